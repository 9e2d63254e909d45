package port

import (
	"context"

	"timely/internal/core/domain"
	"timely/internal/core/model/request"
)

type AuthService interface {
	Register(ctx context.Context, req *request.SignUpRequest) (*domain.User, error)
	Authenticate(ctx context.Context, req *request.LoginRequest) (*domain.User, error)
	VerifySession(ctx context.Context, token string) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, newPassword string) error
}
