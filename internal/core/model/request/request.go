package request

type SignUpRequest struct {
	FirstName string `json:"name" validate:"required,min=2,max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Age       int    `json:"age" validate:"required,gte=13"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,password"`
}

type TaskRequest struct {
	Title   string `json:"title" validate:"required,max=50"`
	Details string `json:"details,omitempty" validate:"max=500"`
	Date    string `json:"date,omitempty"`
	Hour    string `json:"hour,omitempty"`
	Status  string `json:"status,omitempty"`
}

// TaskUpdateRequest is a partial update: nil fields are left untouched,
// non-nil fields are validated and merged.
type TaskUpdateRequest struct {
	Title   *string `json:"title,omitempty"`
	Details *string `json:"details,omitempty"`
	Date    *string `json:"date,omitempty"`
	Hour    *string `json:"hour,omitempty"`
	Status  *string `json:"status,omitempty"`
}
