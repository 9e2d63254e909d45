package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"timely/internal/core/domain"
	"timely/internal/core/model/request"
	"timely/internal/core/port"
	"timely/internal/core/util"
	"timely/pkg/auth"
)

type AuthService struct {
	repo   port.UserRepository
	mailer port.Mailer

	// BaseURL is the public origin embedded in password-reset links.
	BaseURL string
}

func NewAuthService(repo port.UserRepository, mailer port.Mailer, baseURL string) *AuthService {
	return &AuthService{repo: repo, mailer: mailer, BaseURL: baseURL}
}

func (as *AuthService) Register(ctx context.Context, req *request.SignUpRequest) (*domain.User, error) {
	if !util.PasswordMeetsPolicy(req.Password) {
		return nil, domain.NewValidationError("password", "must be at least 8 characters with an uppercase letter, a digit and a special character")
	}

	if req.Age < 13 {
		return nil, domain.NewValidationError("age", "must be at least 13")
	}

	email := domain.NormalizeEmail(req.Email)

	_, err := as.repo.GetByEmail(ctx, email)

	if err == nil {
		return nil, domain.ErrDuplicateEmail
	}

	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	encrypted, err := util.GenerateEncrypt(req.Password)

	if err != nil {
		return nil, fmt.Errorf("error creating encrypted password: %w", err)
	}

	now := time.Now()

	user := domain.User{
		UUID:              uuid.New(),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Age:               req.Age,
		Email:             email,
		EncryptedPassword: encrypted,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	savedUser, err := as.repo.Create(ctx, user)

	if err != nil {
		return nil, err
	}

	return &savedUser, nil
}

// Authenticate returns the same error for an unknown email and a wrong
// password so callers cannot enumerate accounts.
func (as *AuthService) Authenticate(ctx context.Context, req *request.LoginRequest) (*domain.User, error) {
	user, err := as.repo.GetByEmail(ctx, domain.NormalizeEmail(req.Email))

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}

		return nil, err
	}

	if err := util.ComparePassword(req.Password, user.EncryptedPassword); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return &user, nil
}

func (as *AuthService) VerifySession(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}

	claims, err := auth.VerifySessionToken(token)

	if err != nil {
		return nil, err
	}

	user, err := as.repo.GetByID(ctx, claims.UserID)

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}

		return nil, err
	}

	return &user, nil
}

// RequestPasswordReset is success-shaped for unknown emails; only delivery
// failures for an existing account surface as errors.
func (as *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := as.repo.GetByEmail(ctx, domain.NormalizeEmail(email))

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			slog.Info("Auth#RequestPasswordReset", "skipped", "unknown email")
			return nil
		}

		return err
	}

	resetID := uuid.New().String()

	if err := as.repo.SetResetToken(ctx, user.ID, &resetID); err != nil {
		return err
	}

	token, err := auth.CreateResetTokenForUser(user.ID, resetID)

	if err != nil {
		return err
	}

	msg := buildResetMail(user, as.BaseURL, token)

	if err := as.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrEmailDelivery, err)
	}

	return nil
}

// ResetPassword treats expiry, reuse and tampering uniformly: any token
// whose reset id does not match the stored one fails with
// ErrInvalidOrUsedLink.
func (as *AuthService) ResetPassword(ctx context.Context, token string, newPassword string) error {
	claims, err := auth.VerifyResetToken(token)

	if err != nil {
		return domain.ErrInvalidOrUsedLink
	}

	if !util.PasswordMeetsPolicy(newPassword) {
		return domain.NewValidationError("password", "must be at least 8 characters with an uppercase letter, a digit and a special character")
	}

	user, err := as.repo.GetByID(ctx, claims.UserID)

	if err != nil {
		return domain.ErrInvalidOrUsedLink
	}

	if user.ResetToken == nil || *user.ResetToken != claims.ResetID {
		return domain.ErrInvalidOrUsedLink
	}

	encrypted, err := util.GenerateEncrypt(newPassword)

	if err != nil {
		return fmt.Errorf("error creating encrypted password: %w", err)
	}

	return as.repo.UpdatePassword(ctx, user.ID, encrypted)
}

func buildResetMail(user domain.User, baseURL string, token string) port.MailMessage {
	link := fmt.Sprintf("%s/reset-password?token=%s", baseURL, token)

	text := fmt.Sprintf(
		"Hi %s,\n\nA password reset was requested for your Timely account.\n"+
			"The link below is valid for one hour and can be used once:\n\n%s\n\n"+
			"If you did not request this, you can ignore this email.\n",
		user.FirstName, link,
	)

	html := fmt.Sprintf(
		`<p>Hi %s,</p><p>A password reset was requested for your Timely account.</p>`+
			`<p><a href="%s">Reset your password</a> (valid for one hour, single use).</p>`+
			`<p>If you did not request this, you can ignore this email.</p>`,
		user.FirstName, link,
	)

	return port.MailMessage{
		To:      user.Email,
		Subject: "Reset your Timely password",
		Text:    text,
		HTML:    html,
	}
}
