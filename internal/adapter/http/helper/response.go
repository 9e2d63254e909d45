package helper

import (
	"errors"
	"net/http"

	"timely/internal/adapter/http/validation"
	"timely/internal/core/domain"
	"timely/internal/core/model/response"

	"github.com/gin-gonic/gin"
)

func SendSuccess(c *gin.Context, statusCode int, data any, message ...string) {
	response := response.SuccessResponse{
		Data: data,
	}

	if len(message) > 0 && message[0] != "" {
		response.Message = message[0]
	}

	c.JSON(statusCode, response)
}

func SendError(c *gin.Context, statusCode int, code string, errors []response.ValidationError, details ...any) {
	errorResponse := response.ErrorResponse{
		Error: response.ResponseError{
			Code:   code,
			Errors: errors,
		},
	}

	if len(details) > 0 {
		errorResponse.Error.Details = details[0]
	}

	c.JSON(statusCode, errorResponse)
}

func SendValidationError(c *gin.Context, err error) {
	validationErrors := validation.FormatValidationErrors(err)
	SendError(c, http.StatusBadRequest, "VALIDATION_ERROR", validationErrors)
}

func SendInternalError(c *gin.Context, message string, details ...any) {
	errors := []response.ValidationError{
		{
			Field:   "server",
			Message: message,
		},
	}

	SendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", errors, details...)
}

func SendUnauthorizedError(c *gin.Context, message string) {
	errors := []response.ValidationError{
		{
			Field:   "auth",
			Message: message,
		},
	}

	SendError(c, http.StatusUnauthorized, "UNAUTHORIZED", errors)
}

func SendBadRequestError(c *gin.Context, field string, message string) {
	errors := []response.ValidationError{
		{
			Field:   field,
			Message: message,
		},
	}

	SendError(c, http.StatusBadRequest, "BAD_REQUEST", errors)
}

func SendNotFoundError(c *gin.Context, message string) {
	errors := []response.ValidationError{
		{
			Field:   "resource",
			Message: message,
		},
	}

	SendError(c, http.StatusNotFound, "NOT_FOUND", errors)
}

func SendConflictError(c *gin.Context, field string, message string) {
	errors := []response.ValidationError{
		{
			Field:   field,
			Message: message,
		},
	}

	SendError(c, http.StatusConflict, "CONFLICT", errors)
}

// SendDomainError translates sentinel errors from the core services into the
// envelope the API exposes. Unknown errors become a 500 without leaking the
// underlying message.
func SendDomainError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError

	switch {
	case errors.As(err, &validationErr):
		SendError(c, http.StatusBadRequest, "VALIDATION_ERROR", []response.ValidationError{
			{Field: validationErr.Field, Message: validationErr.Message},
		})
	case errors.Is(err, domain.ErrValidation):
		SendBadRequestError(c, "request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		SendNotFoundError(c, "not found")
	case errors.Is(err, domain.ErrDuplicateEmail):
		SendConflictError(c, "email", "email is already registered")
	case errors.Is(err, domain.ErrInvalidCredentials):
		SendUnauthorizedError(c, "invalid email or password")
	case errors.Is(err, domain.ErrUnauthenticated):
		SendUnauthorizedError(c, "authentication required")
	case errors.Is(err, domain.ErrExpiredToken):
		SendUnauthorizedError(c, "session expired")
	case errors.Is(err, domain.ErrInvalidToken):
		SendUnauthorizedError(c, "invalid session")
	case errors.Is(err, domain.ErrInvalidOrUsedLink):
		SendBadRequestError(c, "token", "reset link is invalid or has already been used")
	case errors.Is(err, domain.ErrEmailDelivery):
		SendInternalError(c, "could not deliver email")
	default:
		SendInternalError(c, "something went wrong")
	}
}
