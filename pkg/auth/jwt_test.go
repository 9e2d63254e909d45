package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"timely/internal/core/domain"
	"timely/pkg/auth"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	j := &auth.JWT{Secret: "test-secret"}

	token, err := j.CreateSessionToken(42, "user@example.com")
	assert.NoError(t, err)

	claims, err := j.VerifySessionToken(token)
	assert.NoError(t, err)
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestSessionTokenWrongSecret(t *testing.T) {
	j := &auth.JWT{Secret: "test-secret"}
	other := &auth.JWT{Secret: "another-secret"}

	token, _ := j.CreateSessionToken(1, "user@example.com")

	_, err := other.VerifySessionToken(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestSessionTokenGarbage(t *testing.T) {
	j := &auth.JWT{Secret: "test-secret"}

	_, err := j.VerifySessionToken("not-a-token")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestResetTokenRoundTrip(t *testing.T) {
	j := &auth.JWT{Secret: "test-secret"}

	token, err := j.CreateResetToken(7, "reset-abc")
	assert.NoError(t, err)

	claims, err := j.VerifyResetToken(token)
	assert.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "reset-abc", claims.ResetID)
}

func TestResetTokenRejectsSessionToken(t *testing.T) {
	j := &auth.JWT{Secret: "test-secret"}

	session, _ := j.CreateSessionToken(7, "user@example.com")

	_, err := j.VerifyResetToken(session)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestTokenTTLs(t *testing.T) {
	assert.Equal(t, 3*time.Hour, auth.SessionTokenTTL)
	assert.Equal(t, time.Hour, auth.ResetTokenTTL)
}
