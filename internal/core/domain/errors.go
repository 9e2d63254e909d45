package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the auth and task lifecycle. Handlers map these to
// HTTP status codes; services never leak store-level errors past them.
var (
	// ErrNotFound covers both "no such record" and "not owned by the
	// caller" so task existence is never revealed across users.
	ErrNotFound = errors.New("record not found")

	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrExpiredToken       = errors.New("session token expired")
	ErrInvalidOrUsedLink  = errors.New("reset link is invalid or already used")
	ErrEmailDelivery      = errors.New("email delivery failed")
	ErrValidation         = errors.New("validation failed")
)

// ValidationError carries the offending field alongside ErrValidation so
// errors.Is(err, ErrValidation) keeps working through the wrap.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
