package middleware

import (
	"strings"

	"timely/internal/adapter/http/helper"
	"timely/internal/core/port"

	"github.com/gin-gonic/gin"
)

const (
	// SessionCookieName is the httpOnly cookie the login handler sets.
	SessionCookieName = "timely_session"

	userIDKey = "x-user-id"
	userKey   = "x-user"
)

// SessionMiddleware authenticates the request from the session cookie, or
// from a bearer token for non-browser clients. The cookie wins when both are
// present.
func SessionMiddleware(authService port.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)

		user, err := authService.VerifySession(c.Request.Context(), token)

		if err != nil {
			helper.SendDomainError(c, err)
			c.Abort()
			return
		}

		c.Set(userIDKey, user.ID)
		c.Set(userKey, user)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	bearer := c.GetHeader("Authorization")

	if strings.HasPrefix(bearer, "Bearer ") {
		return bearer[len("Bearer "):]
	}

	return ""
}

// CurrentUserID returns the authenticated user id set by SessionMiddleware.
func CurrentUserID(c *gin.Context) (int, bool) {
	value, ok := c.Get(userIDKey)

	if !ok {
		return 0, false
	}

	id, ok := value.(int)
	return id, ok
}
