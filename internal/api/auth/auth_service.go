package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-user-accounts/app/observability/metrics"
	"github.com/FACorreiaa/go-user-accounts/config"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

// Ensure implementation satisfies the interface
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract for authentication.
type AuthService interface {
	// Login authenticates a user by email/password and returns a signed
	// access token plus the authenticated record.
	Login(ctx context.Context, email, password string) (string, *types.UserRecord, error)

	// Register creates a new plain-user account.
	Register(ctx context.Context, name, email, password string) (*types.UserRecord, error)

	// GetUserByID loads a user record, for the /auth/me endpoint.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserRecord, error)
}

// AuthServiceImpl implements the AuthService interface.
type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	tokens *TokenService
	cfg    *config.Config
}

// NewAuthService creates a new AuthService.
func NewAuthService(repo AuthRepo, tokens *TokenService, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		tokens: tokens,
		cfg:    cfg,
	}
}

// Login authenticates a user and returns a signed access token.
// Any credential failure collapses into types.ErrUnauthenticated so the
// caller cannot distinguish a missing account from a wrong password.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, *types.UserRecord, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"))
	l.DebugContext(ctx, "Authenticating user")

	outcome := "failure"
	defer func() {
		metrics.Get().LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}()

	user, err := s.repo.GetUserByEmail(ctx, types.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			l.WarnContext(ctx, "Login attempt for unknown email")
			span.SetStatus(codes.Error, "Unknown email")
			return "", nil, fmt.Errorf("invalid credentials: %w", types.ErrUnauthenticated)
		}
		l.ErrorContext(ctx, "Failed to load user for login", slog.Any("error", err))
		span.RecordError(err)
		return "", nil, fmt.Errorf("error loading user: %w", err)
	}

	if !user.IsActive {
		l.WarnContext(ctx, "Login attempt for deactivated account", slog.String("userID", user.ID.String()))
		span.SetStatus(codes.Error, "Account deactivated")
		return "", nil, fmt.Errorf("account deactivated: %w", types.ErrUnauthenticated)
	}

	if !CheckPassword(password, user.PasswordHash) {
		l.WarnContext(ctx, "Login attempt with wrong password", slog.String("userID", user.ID.String()))
		span.SetStatus(codes.Error, "Wrong password")
		return "", nil, fmt.Errorf("invalid credentials: %w", types.ErrUnauthenticated)
	}

	accessToken, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		l.ErrorContext(ctx, "Failed to issue access token", slog.Any("error", err))
		span.RecordError(err)
		return "", nil, fmt.Errorf("error issuing token: %w", err)
	}

	// Best effort: a failed stamp must not fail the login.
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		l.WarnContext(ctx, "Failed to stamp last login", slog.Any("error", err))
	}

	outcome = "success"
	l.InfoContext(ctx, "User authenticated successfully", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "Authenticated")
	return accessToken, user, nil
}

// Register creates a new account. The role is always RoleUser; only the
// admin creation path may assign another role.
func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password string) (*types.UserRecord, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("user.email_domain", emailDomain(email)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Register"))
	l.DebugContext(ctx, "Registering new user")

	fields := map[string]string{}
	trimmedName, msg := types.ValidateName(name)
	if msg != "" {
		fields["name"] = msg
	}
	normalizedEmail, msg := types.ValidateEmail(email)
	if msg != "" {
		fields["email"] = msg
	}
	if msg := types.ValidatePassword(password); msg != "" {
		fields["password"] = msg
	}
	if len(fields) > 0 {
		span.SetStatus(codes.Error, "Validation failed")
		return nil, types.NewValidationError(fields)
	}

	passwordHash, err := HashPassword(password, s.cfg.Auth.BcryptCost)
	if err != nil {
		l.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, trimmedName, normalizedEmail, passwordHash, types.RoleUser)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			span.SetStatus(codes.Error, "Duplicate email")
			return nil, err
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	l.InfoContext(ctx, "User registered successfully", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "Registered")
	return user, nil
}

// GetUserByID loads a user record by id.
func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserRecord, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	return user, nil
}

func emailDomain(email string) string {
	for i := len(email) - 1; i >= 0; i-- {
		if email[i] == '@' {
			return email[i+1:]
		}
	}
	return ""
}
