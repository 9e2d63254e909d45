package response

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type UserResponse struct {
	UUID      string    `json:"uuid,omitempty"`
	FirstName string    `json:"name,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Age       int       `json:"age,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type TaskResponse struct {
	UUID      uuid.UUID `json:"uuid"`
	Title     string    `json:"title"`
	Details   string    `json:"details,omitempty"`
	Date      string    `json:"date,omitempty"`
	Hour      string    `json:"hour,omitempty"`
	Status    string    `json:"status"`
	Trashed   bool      `json:"trashed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type CursorData struct {
	Datetime string `json:"datetime"`
	ID       int    `json:"id,omitempty"`
}

type CursorResponse struct {
	Size       int             `json:"size"`
	Data       json.RawMessage `json:"data"`
	Pagination struct {
		HasNext    bool   `json:"has_next"`
		NextCursor string `json:"next_cursor"`
	} `json:"pagination"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ResponseError struct {
	Code    string            `json:"code"`
	Errors  []ValidationError `json:"errors"`
	Details any               `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error ResponseError `json:"error"`
}
