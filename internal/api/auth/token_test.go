package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-user-accounts/config"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

func testTokenService(t *testing.T, ttl time.Duration) *TokenService {
	t.Helper()
	svc, err := NewTokenService(config.JWTConfig{
		SecretKey:      "test-access-secret",
		AccessTokenTTL: ttl,
		Issuer:         "test-issuer",
		Audience:       "test-audience",
	})
	require.NoError(t, err)
	return svc
}

func TestNewTokenService(t *testing.T) {
	t.Run("EmptySecret", func(t *testing.T) {
		_, err := NewTokenService(config.JWTConfig{})
		assert.Error(t, err)
	})

	t.Run("ZeroTTLUsesDefault", func(t *testing.T) {
		svc := testTokenService(t, 0)
		assert.Equal(t, defaultAccessTokenTTL, svc.TTL())
	})
}

func TestIssueAndVerify(t *testing.T) {
	svc := testTokenService(t, 15*time.Minute)
	userID := uuid.New()

	token, err := svc.Issue(userID, types.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, types.RoleAdmin, claims.Role)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.Contains(t, claims.Audience, "test-audience")
}

func TestVerifyFailures(t *testing.T) {
	svc := testTokenService(t, 15*time.Minute)
	userID := uuid.New()

	t.Run("Missing", func(t *testing.T) {
		_, err := svc.Verify("")
		assert.ErrorIs(t, err, ErrTokenMissing)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := svc.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := svc.Verify("garbage")
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("SignatureMismatch", func(t *testing.T) {
		other, err := NewTokenService(config.JWTConfig{
			SecretKey:      "a-different-secret",
			AccessTokenTTL: 15 * time.Minute,
			Issuer:         "test-issuer",
			Audience:       "test-audience",
		})
		require.NoError(t, err)

		token, err := other.Issue(userID, types.RoleUser)
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenSignatureMismatch)
	})

	t.Run("Expired", func(t *testing.T) {
		expiring := testTokenService(t, 15*time.Minute)
		expiring.ttl = -1 * time.Minute

		token, err := expiring.Issue(userID, types.RoleUser)
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("IssuerMismatch", func(t *testing.T) {
		other, err := NewTokenService(config.JWTConfig{
			SecretKey:      "test-access-secret",
			AccessTokenTTL: 15 * time.Minute,
			Issuer:         "someone-else",
			Audience:       "test-audience",
		})
		require.NoError(t, err)

		token, err := other.Issue(userID, types.RoleUser)
		require.NoError(t, err)

		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})
}
