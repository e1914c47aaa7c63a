package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-user-accounts/app/observability/metrics"
	"github.com/FACorreiaa/go-user-accounts/config"
	"github.com/FACorreiaa/go-user-accounts/internal/api"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

// Define typed context keys
type contextKey string

const UserKey contextKey = "user"

// Authenticate is middleware to validate JWT access tokens and resolve the
// caller to a live account. The token only identifies the caller; the record
// loaded here is what downstream handlers must trust, so a token for an
// account that no longer exists or was deactivated is rejected even while
// the token itself is still valid.
func Authenticate(logger *slog.Logger, tokens *TokenService, repo AuthRepo, jwtCfg config.JWTConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				recordVerification(ctx, "missing")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				l.WarnContext(ctx, "Invalid Authorization header format")
				recordVerification(ctx, "missing")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}
			tokenString := headerParts[1]

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				l.WarnContext(ctx, "Token verification failed", slog.Any("error", err))
				errMsg := "Invalid or expired token"
				outcome := "invalid"
				switch {
				case errors.Is(err, ErrTokenExpired):
					errMsg = "Token has expired"
					outcome = "expired"
				case errors.Is(err, ErrTokenMalformed):
					errMsg = "Malformed token"
					outcome = "malformed"
				case errors.Is(err, ErrTokenSignatureMismatch):
					errMsg = "Invalid token signature"
					outcome = "signature_mismatch"
				case errors.Is(err, ErrTokenMissing):
					errMsg = "Authorization token required"
					outcome = "missing"
				}
				recordVerification(ctx, outcome)
				api.ErrorResponse(w, r, http.StatusUnauthorized, errMsg)
				return
			}

			if jwtCfg.Audience != "" && !api.VerifyAudience(claims.Audience, jwtCfg.Audience) {
				l.WarnContext(ctx, "Token audience mismatch", slog.String("expected", jwtCfg.Audience), slog.Any("actual", claims.Audience))
				recordVerification(ctx, "invalid")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token audience")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				l.WarnContext(ctx, "Token subject is not a valid id", slog.String("uid", claims.UserID))
				recordVerification(ctx, "malformed")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Malformed token")
				return
			}

			user, err := repo.GetUserByID(ctx, userID)
			if err != nil {
				if errors.Is(err, types.ErrNotFound) {
					l.WarnContext(ctx, "Token subject no longer exists", slog.String("userID", claims.UserID))
					recordVerification(ctx, "unknown_subject")
					api.ErrorResponse(w, r, http.StatusUnauthorized, "Account no longer exists")
					return
				}
				l.ErrorContext(ctx, "Failed to resolve token subject", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to resolve identity")
				return
			}

			if !user.IsActive {
				l.WarnContext(ctx, "Token subject is deactivated", slog.String("userID", user.ID.String()))
				recordVerification(ctx, "deactivated_subject")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Account deactivated")
				return
			}

			recordVerification(ctx, "success")
			ctx = contextWithUser(ctx, user)
			l.DebugContext(ctx, "Authentication successful, user added to context", slog.String("userID", user.ID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// contextWithUser binds the resolved record for downstream handlers.
func contextWithUser(ctx context.Context, user *types.UserRecord) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext returns the authenticated user added by Authenticate.
func UserFromContext(ctx context.Context) (*types.UserRecord, bool) {
	user, ok := ctx.Value(UserKey).(*types.UserRecord)
	return user, ok
}

// RequireRole checks if the authenticated user holds one of the allowed
// roles. Runs AFTER the Authenticate middleware. The role checked is the one
// loaded from the database, not the one stamped into the token, so a
// demotion takes effect on the next request.
func RequireRole(logger *slog.Logger, allowedRoles ...types.Role) func(next http.Handler) http.Handler {
	roleMap := make(map[types.Role]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		roleMap[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			user, ok := UserFromContext(ctx)
			if !ok {
				logger.ErrorContext(ctx, "Authenticated user missing from context")
				api.ErrorResponse(w, r, http.StatusInternalServerError, "Cannot determine caller identity")
				return
			}

			if _, allowed := roleMap[user.Role]; !allowed {
				logger.WarnContext(ctx, "Role check failed", slog.String("userID", user.ID.String()), slog.String("role", string(user.Role)))
				api.ErrorResponse(w, r, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func recordVerification(ctx context.Context, outcome string) {
	metrics.Get().TokenVerificationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
