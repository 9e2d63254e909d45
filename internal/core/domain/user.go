package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                int
	UUID              uuid.UUID
	FirstName         string `validate:"required,min=2,max=100"`
	LastName          string `validate:"max=100"`
	Age               int    `validate:"gte=13"`
	Email             string `validate:"required,email,max=255"`
	EncryptedPassword string `validate:"required"`
	ResetToken        *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NormalizeEmail lowercases and trims an email so uniqueness checks and
// lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) HasPendingReset() bool {
	return u.ResetToken != nil && *u.ResetToken != ""
}
