package service_test

import (
	"context"
	"os"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	. "timely/pkg/test"

	"timely/internal/adapter/database/sqlite/repository"
	"timely/internal/adapter/mail"
	"timely/internal/core/domain"
	"timely/internal/core/model/request"
	"timely/internal/core/port"
	"timely/internal/core/service"
)

type AuthServiceTestSuite struct {
	suite.Suite
	Service *service.AuthService
	Mailer  *mail.MemoryMailer
	repo    port.UserRepository
}

func (s *AuthServiceTestSuite) SetupTest() {
	os.Setenv("JWT_SECRET", "test-secret")

	db := InitTestDB()
	repo := repository.NewUserRepository(db, nil)

	s.Mailer = mail.NewMemoryMailer()
	s.Service = service.NewAuthService(repo, s.Mailer, "http://localhost:8080")
	s.repo = repo
}

func TestAuthServiceTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(AuthServiceTestSuite))
}

func signUpRequest() *request.SignUpRequest {
	return &request.SignUpRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Age:       30,
		Email:     "ada@example.com",
		Password:  "Sup3rSecret!",
	}
}

func (s *AuthServiceTestSuite) TestRegister_Success() {
	user, err := s.Service.Register(context.Background(), signUpRequest())

	assert.NoError(s.T(), err)
	assert.NotNil(s.T(), user)
	assert.Equal(s.T(), "ada@example.com", user.Email)
	assert.NotEqual(s.T(), "Sup3rSecret!", user.EncryptedPassword)
}

func (s *AuthServiceTestSuite) TestRegister_DuplicateEmailCaseInsensitive() {
	_, err := s.Service.Register(context.Background(), signUpRequest())
	assert.NoError(s.T(), err)

	dup := signUpRequest()
	dup.Email = "ADA@Example.COM"

	_, err = s.Service.Register(context.Background(), dup)
	assert.ErrorIs(s.T(), err, domain.ErrDuplicateEmail)
}

func (s *AuthServiceTestSuite) TestRegister_WeakPassword() {
	req := signUpRequest()
	req.Password = "weakpass"

	_, err := s.Service.Register(context.Background(), req)
	assert.ErrorIs(s.T(), err, domain.ErrValidation)
}

func (s *AuthServiceTestSuite) TestRegister_Underage() {
	req := signUpRequest()
	req.Age = 12

	_, err := s.Service.Register(context.Background(), req)
	assert.ErrorIs(s.T(), err, domain.ErrValidation)
}

func (s *AuthServiceTestSuite) TestAuthenticate_Success() {
	_, err := s.Service.Register(context.Background(), signUpRequest())
	assert.NoError(s.T(), err)

	user, err := s.Service.Authenticate(context.Background(), &request.LoginRequest{
		Email:    "ada@example.com",
		Password: "Sup3rSecret!",
	})

	assert.NoError(s.T(), err)
	assert.Equal(s.T(), "ada@example.com", user.Email)
}

func (s *AuthServiceTestSuite) TestAuthenticate_SameErrorForUnknownEmailAndWrongPassword() {
	_, err := s.Service.Register(context.Background(), signUpRequest())
	assert.NoError(s.T(), err)

	_, errWrongPassword := s.Service.Authenticate(context.Background(), &request.LoginRequest{
		Email:    "ada@example.com",
		Password: "Wr0ngPassword!",
	})

	_, errUnknownEmail := s.Service.Authenticate(context.Background(), &request.LoginRequest{
		Email:    "nobody@example.com",
		Password: "Sup3rSecret!",
	})

	assert.ErrorIs(s.T(), errWrongPassword, domain.ErrInvalidCredentials)
	assert.ErrorIs(s.T(), errUnknownEmail, domain.ErrInvalidCredentials)
	assert.Equal(s.T(), errWrongPassword.Error(), errUnknownEmail.Error())
}

func (s *AuthServiceTestSuite) TestVerifySession_MissingToken() {
	_, err := s.Service.VerifySession(context.Background(), "")
	assert.ErrorIs(s.T(), err, domain.ErrUnauthenticated)
}

func (s *AuthServiceTestSuite) TestVerifySession_Garbage() {
	_, err := s.Service.VerifySession(context.Background(), "not-a-token")
	assert.ErrorIs(s.T(), err, domain.ErrInvalidToken)
}

func (s *AuthServiceTestSuite) TestRequestPasswordReset_UnknownEmailIsSilent() {
	err := s.Service.RequestPasswordReset(context.Background(), "nobody@example.com")

	assert.NoError(s.T(), err)
	Expect(s.Mailer.Messages()).To(BeEmpty())
}

func (s *AuthServiceTestSuite) TestRequestPasswordReset_SendsMailWithLink() {
	user, err := s.Service.Register(context.Background(), signUpRequest())
	assert.NoError(s.T(), err)

	err = s.Service.RequestPasswordReset(context.Background(), user.Email)
	assert.NoError(s.T(), err)

	msg, ok := s.Mailer.LastMessage()
	Expect(ok).To(BeTrue())
	Expect(msg.To).To(Equal("ada@example.com"))
	Expect(msg.Text).To(ContainSubstring("/reset-password?token="))

	stored, err := s.repo.GetByEmail(context.Background(), user.Email)
	assert.NoError(s.T(), err)
	assert.True(s.T(), stored.HasPendingReset())
}

func (s *AuthServiceTestSuite) TestRequestPasswordReset_DeliveryFailurePropagates() {
	_, err := s.Service.Register(context.Background(), signUpRequest())
	assert.NoError(s.T(), err)

	s.Mailer.FailNext = true

	err = s.Service.RequestPasswordReset(context.Background(), "ada@example.com")
	assert.ErrorIs(s.T(), err, domain.ErrEmailDelivery)
}

func (s *AuthServiceTestSuite) TestResetPassword_TokenIsSingleUse() {
	user, err := s.Service.Register(context.Background(), signUpRequest())
	assert.NoError(s.T(), err)

	err = s.Service.RequestPasswordReset(context.Background(), user.Email)
	assert.NoError(s.T(), err)

	msg, _ := s.Mailer.LastMessage()
	token := extractToken(msg.Text)
	Expect(token).NotTo(BeEmpty())

	err = s.Service.ResetPassword(context.Background(), token, "N3wPassword!")
	assert.NoError(s.T(), err)

	// The stored reset id is cleared, so a replayed token must fail.
	err = s.Service.ResetPassword(context.Background(), token, "An0therPassword!")
	assert.ErrorIs(s.T(), err, domain.ErrInvalidOrUsedLink)

	_, err = s.Service.Authenticate(context.Background(), &request.LoginRequest{
		Email:    "ada@example.com",
		Password: "N3wPassword!",
	})
	assert.NoError(s.T(), err)
}

func (s *AuthServiceTestSuite) TestResetPassword_WeakPassword() {
	user, err := s.Service.Register(context.Background(), signUpRequest())
	assert.NoError(s.T(), err)

	err = s.Service.RequestPasswordReset(context.Background(), user.Email)
	assert.NoError(s.T(), err)

	msg, _ := s.Mailer.LastMessage()
	token := extractToken(msg.Text)

	err = s.Service.ResetPassword(context.Background(), token, "weak")
	assert.ErrorIs(s.T(), err, domain.ErrValidation)
}

func (s *AuthServiceTestSuite) TestResetPassword_TamperedToken() {
	err := s.Service.ResetPassword(context.Background(), "tampered-token", "N3wPassword!")
	assert.ErrorIs(s.T(), err, domain.ErrInvalidOrUsedLink)
}

func extractToken(text string) string {
	const marker = "/reset-password?token="

	idx := strings.Index(text, marker)

	if idx < 0 {
		return ""
	}

	rest := text[idx+len(marker):]

	if end := strings.IndexAny(rest, " \r\n"); end >= 0 {
		return rest[:end]
	}

	return rest
}
