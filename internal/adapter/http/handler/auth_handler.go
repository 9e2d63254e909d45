package handler

import (
	"log/slog"
	"net/http"

	"timely/internal/adapter/http/helper"
	"timely/internal/adapter/http/middleware"
	"timely/internal/adapter/http/validation"
	"timely/internal/core/domain"
	"timely/internal/core/model/request"
	"timely/internal/core/model/response"
	"timely/internal/core/port"
	"timely/internal/core/util"
	"timely/pkg/auth"
	"timely/pkg/config"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc    port.AuthService
	config *config.AppConfig
}

func NewAuthHandler(svc port.AuthService, cfg *config.AppConfig) *AuthHandler {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}

	return &AuthHandler{
		svc:    svc,
		config: cfg,
	}
}

func (a *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	params, err := util.ParamsToMap[request.SignUpRequest](c)

	if err != nil {
		helper.SendBadRequestError(c, "request", "invalid request parameters")
		return
	}

	if err := validation.Validator.Struct(params); err != nil {
		helper.SendValidationError(c, err)
		return
	}

	user, err := a.svc.Register(ctx, &params)

	if err != nil {
		slog.Error("registration failed", "error", err, "email", params.Email)
		helper.SendDomainError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusCreated, toUserResponse(*user))
}

func (a *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	params, err := util.ParamsToMap[request.LoginRequest](c)

	if err != nil {
		helper.SendBadRequestError(c, "request", "invalid request parameters")
		return
	}

	if err := validation.Validator.Struct(params); err != nil {
		helper.SendValidationError(c, err)
		return
	}

	user, err := a.svc.Authenticate(ctx, &params)

	if err != nil {
		helper.SendDomainError(c, err)
		return
	}

	token, err := auth.CreateSessionTokenForUser(user.ID, user.Email)

	if err != nil {
		slog.Error("session token signing failed", "error", err)
		helper.SendDomainError(c, domain.ErrInvalidCredentials)
		return
	}

	a.setSessionCookie(c, token, int(auth.SessionTokenTTL.Seconds()))

	helper.SendSuccess(c, http.StatusOK, response.SessionResponse{
		Token: token,
		User:  toUserResponse(*user),
	})
}

// Logout clears the session cookie. It succeeds whether or not a session
// exists, so a double logout is harmless.
func (a *AuthHandler) Logout(c *gin.Context) {
	a.setSessionCookie(c, "", -1)

	helper.SendSuccess(c, http.StatusOK, nil, "logged out")
}

func (a *AuthHandler) Verify(c *gin.Context) {
	value, ok := c.Get("x-user")

	if !ok {
		helper.SendDomainError(c, domain.ErrUnauthenticated)
		return
	}

	user, ok := value.(*domain.User)

	if !ok {
		helper.SendDomainError(c, domain.ErrUnauthenticated)
		return
	}

	helper.SendSuccess(c, http.StatusOK, toUserResponse(*user))
}

func (a *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx := c.Request.Context()

	params, err := util.ParamsToMap[request.ForgotPasswordRequest](c)

	if err != nil {
		helper.SendBadRequestError(c, "request", "invalid request parameters")
		return
	}

	if err := validation.Validator.Struct(params); err != nil {
		helper.SendValidationError(c, err)
		return
	}

	if err := a.svc.RequestPasswordReset(ctx, params.Email); err != nil {
		slog.Error("password reset request failed", "error", err)
		helper.SendDomainError(c, err)
		return
	}

	// Same body for known and unknown emails.
	helper.SendSuccess(c, http.StatusOK, nil, "if the email is registered, a reset link has been sent")
}

func (a *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := c.Request.Context()

	params, err := util.ParamsToMap[request.ResetPasswordRequest](c)

	if err != nil {
		helper.SendBadRequestError(c, "request", "invalid request parameters")
		return
	}

	if err := validation.Validator.Struct(params); err != nil {
		helper.SendValidationError(c, err)
		return
	}

	if err := a.svc.ResetPassword(ctx, params.Token, params.Password); err != nil {
		helper.SendDomainError(c, err)
		return
	}

	helper.SendSuccess(c, http.StatusOK, nil, "password updated")
}

func (a *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	if a.config.IsProduction() {
		c.SetSameSite(http.SameSiteStrictMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}

	c.SetCookie(middleware.SessionCookieName, token, maxAge, "/", "", a.config.IsProduction(), true)
}

func toUserResponse(user domain.User) response.UserResponse {
	return response.UserResponse{
		UUID:      user.UUID.String(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Age:       user.Age,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
