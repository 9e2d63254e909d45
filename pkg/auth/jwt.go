package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"timely/internal/core/domain"
)

const (
	SessionTokenTTL = 3 * time.Hour
	ResetTokenTTL   = 1 * time.Hour

	resetScope = "password_reset"
)

type SessionClaims struct {
	UserID int
	Email  string
}

type ResetClaims struct {
	UserID  int
	ResetID string
}

type JWT struct {
	Secret string
}

func (j *JWT) CreateSessionToken(userId int, email string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userId,
		"email":   email,
		"exp":     time.Now().Add(SessionTokenTTL).Unix(),
	})

	return token.SignedString([]byte(j.Secret))
}

func (j *JWT) VerifySessionToken(tokenString string) (*SessionClaims, error) {
	claims, err := j.parse(tokenString)

	if err != nil {
		return nil, err
	}

	userId, ok := claims["user_id"].(float64)

	if !ok {
		return nil, domain.ErrInvalidToken
	}

	email, _ := claims["email"].(string)

	return &SessionClaims{UserID: int(userId), Email: email}, nil
}

// CreateResetToken embeds the single-use reset identifier; the token stays
// verifiable until expiry but becomes unusable once the stored identifier
// is cleared.
func (j *JWT) CreateResetToken(userId int, resetID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userId,
		"reset_id": resetID,
		"scope":    resetScope,
		"exp":      time.Now().Add(ResetTokenTTL).Unix(),
	})

	return token.SignedString([]byte(j.Secret))
}

func (j *JWT) VerifyResetToken(tokenString string) (*ResetClaims, error) {
	claims, err := j.parse(tokenString)

	if err != nil {
		return nil, err
	}

	if scope, _ := claims["scope"].(string); scope != resetScope {
		return nil, domain.ErrInvalidToken
	}

	userId, ok := claims["user_id"].(float64)
	resetID, okReset := claims["reset_id"].(string)

	if !ok || !okReset || resetID == "" {
		return nil, domain.ErrInvalidToken
	}

	return &ResetClaims{UserID: int(userId), ResetID: resetID}, nil
}

func (j *JWT) parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}

		return []byte(j.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrExpiredToken
		}

		return nil, domain.ErrInvalidToken
	}

	if !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

func defaultJWT() *JWT {
	return &JWT{Secret: os.Getenv("JWT_SECRET")}
}

func CreateSessionTokenForUser(userId int, email string) (string, error) {
	return defaultJWT().CreateSessionToken(userId, email)
}

func VerifySessionToken(token string) (*SessionClaims, error) {
	return defaultJWT().VerifySessionToken(token)
}

func CreateResetTokenForUser(userId int, resetID string) (string, error) {
	return defaultJWT().CreateResetToken(userId, resetID)
}

func VerifyResetToken(token string) (*ResetClaims, error) {
	return defaultJWT().VerifyResetToken(token)
}
