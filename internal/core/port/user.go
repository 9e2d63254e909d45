package port

import (
	"context"

	"timely/internal/core/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	// SetResetToken stores the single-use reset identifier; nil clears it.
	SetResetToken(ctx context.Context, userID int, resetID *string) error
	// UpdatePassword replaces the stored hash and clears the reset token
	// in the same statement so a used link can never be replayed.
	UpdatePassword(ctx context.Context, userID int, encryptedPassword string) error
}
