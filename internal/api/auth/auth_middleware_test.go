package auth

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-user-accounts/config"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

func middlewareFixture(t *testing.T) (*TokenService, config.JWTConfig) {
	t.Helper()
	jwtCfg := config.JWTConfig{
		SecretKey:      "test-access-secret",
		AccessTokenTTL: 15 * time.Minute,
		Issuer:         "test-issuer",
		Audience:       "test-audience",
	}
	tokens, err := NewTokenService(jwtCfg)
	require.NoError(t, err)
	return tokens, jwtCfg
}

func TestAuthenticate(t *testing.T) {
	tokens, jwtCfg := middlewareFixture(t)
	logger := slog.Default()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		assert.True(t, ok)
		assert.NotNil(t, user)
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		userID := uuid.New()
		user := &types.UserRecord{ID: userID, Role: types.RoleUser, IsActive: true}
		mockRepo.On("GetUserByID", mock.Anything, userID).Return(user, nil).Once()

		token, err := tokens.Issue(userID, types.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		Authenticate(logger, tokens, mockRepo, jwtCfg)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockRepo.AssertExpectations(t)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		rec := httptest.NewRecorder()

		Authenticate(logger, tokens, mockRepo, jwtCfg)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockRepo.AssertNotCalled(t, "GetUserByID")
	})

	t.Run("BadHeaderFormat", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()

		Authenticate(logger, tokens, mockRepo, jwtCfg)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MalformedToken", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()

		Authenticate(logger, tokens, mockRepo, jwtCfg)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Malformed token")
	})

	t.Run("TamperedSignature", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		other, err := NewTokenService(config.JWTConfig{
			SecretKey:      "another-secret",
			AccessTokenTTL: 15 * time.Minute,
			Issuer:         "test-issuer",
			Audience:       "test-audience",
		})
		require.NoError(t, err)
		token, err := other.Issue(uuid.New(), types.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		Authenticate(logger, tokens, mockRepo, jwtCfg)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Invalid token signature")
	})

	t.Run("SubjectNoLongerExists", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		userID := uuid.New()
		mockRepo.On("GetUserByID", mock.Anything, userID).Return(nil, types.ErrNotFound).Once()

		token, err := tokens.Issue(userID, types.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		Authenticate(logger, tokens, mockRepo, jwtCfg)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockRepo.AssertExpectations(t)
	})

	t.Run("SubjectDeactivated", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		userID := uuid.New()
		user := &types.UserRecord{ID: userID, Role: types.RoleUser, IsActive: false}
		mockRepo.On("GetUserByID", mock.Anything, userID).Return(user, nil).Once()

		token, err := tokens.Issue(userID, types.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		Authenticate(logger, tokens, mockRepo, jwtCfg)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Account deactivated")
		mockRepo.AssertExpectations(t)
	})
}

func TestRequireRole(t *testing.T) {
	logger := slog.Default()

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	withUser := func(req *http.Request, user *types.UserRecord) *http.Request {
		return req.WithContext(contextWithUser(req.Context(), user))
	}

	t.Run("AdminAllowed", func(t *testing.T) {
		req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/users", nil),
			&types.UserRecord{ID: uuid.New(), Role: types.RoleAdmin, IsActive: true})
		rec := httptest.NewRecorder()

		RequireRole(logger, types.RoleAdmin)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("UserForbidden", func(t *testing.T) {
		req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/users", nil),
			&types.UserRecord{ID: uuid.New(), Role: types.RoleUser, IsActive: true})
		rec := httptest.NewRecorder()

		RequireRole(logger, types.RoleAdmin)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "Insufficient permissions")
	})

	t.Run("NoUserInContext", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		rec := httptest.NewRecorder()

		RequireRole(logger, types.RoleAdmin)(okHandler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
