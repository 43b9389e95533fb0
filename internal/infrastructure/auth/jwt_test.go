package auth

import (
	"testing"
	"time"

	"github.com/erp/workstation/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-that-is-long-enough"

func newTestService() *JWTService {
	return NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "identity"})
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestService()

	token, err := svc.IssueToken(IssueInput{
		UserID:      "user-42",
		Username:    "alice",
		Permissions: []string{"print:export"},
	})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "identity", claims.Issuer)
	assert.True(t, claims.HasPermission("print:export"))
	assert.False(t, claims.HasPermission("grid:admin"))
}

func TestValidateToken_Errors(t *testing.T) {
	svc := newTestService()

	t.Run("expired", func(t *testing.T) {
		past := newTestService()
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := past.IssueToken(IssueInput{UserID: "u", TTL: time.Minute})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("not yet valid", func(t *testing.T) {
		future := newTestService()
		future.now = func() time.Time { return time.Now().Add(time.Hour) }
		token, err := future.IssueToken(IssueInput{UserID: "u"})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-decent-length", Issuer: "identity"})
		token, err := other.IssueToken(IssueInput{UserID: "u"})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "someone-else"})
		token, err := other.IssueToken(IssueInput{UserID: "u"})
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{UserID: "u"}).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrMissingUserID)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMissingSecret(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{})

	_, err := svc.IssueToken(IssueInput{UserID: "u"})
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = svc.ValidateToken("x")
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = newTestService().IssueToken(IssueInput{})
	assert.ErrorIs(t, err, ErrMissingUserID)
}
