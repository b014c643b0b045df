package user

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTManager(secret string) *JWTManager {
	return NewJWTManager(&JWTConfig{
		Secret:            secret,
		AccessTokenExpiry: time.Hour,
		Issuer:            "postforge",
	})
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestJWTManager("test-secret")
	u := &User{ID: uuid.New(), Email: "alice@example.com"}

	token, expiresAt, err := m.GenerateAccessToken(u)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.Email, claims.Email)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _, err := newTestJWTManager("secret-a").GenerateAccessToken(&User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = newTestJWTManager("secret-b").ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := newTestJWTManager("secret").ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	m := NewJWTManager(&JWTConfig{
		Secret:            "secret",
		AccessTokenExpiry: -time.Minute,
		Issuer:            "postforge",
	})
	token, _, err := m.GenerateAccessToken(&User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
