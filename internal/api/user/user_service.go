package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-user-accounts/app/observability/metrics"
	"github.com/FACorreiaa/go-user-accounts/config"
	"github.com/FACorreiaa/go-user-accounts/internal/api/auth"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

const (
	userCountCacheKey = "users:count"
	userCountCacheTTL = 30 * time.Second

	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Ensure implementation satisfies the interface
var _ UserService = (*UserServiceImpl)(nil)

// UserService defines the business logic contract for account management.
// Every method that mutates or reads another user's record takes the
// acting user so the permission policy is enforced here, not in handlers.
type UserService interface {
	// GetUser returns a record if the actor is the target or an admin.
	GetUser(ctx context.Context, actor *types.UserRecord, userID uuid.UUID) (*types.UserRecord, error)

	// CreateUser creates an account on behalf of an admin; unlike
	// self-registration it may assign any valid role.
	CreateUser(ctx context.Context, params types.CreateUserParams) (*types.UserRecord, error)

	// UpdateUser applies a partial update under the mutation policy.
	UpdateUser(ctx context.Context, actor *types.UserRecord, userID uuid.UUID, params types.UpdateUserParams) (*types.UserRecord, error)

	// DeleteUser permanently removes another user's account.
	DeleteUser(ctx context.Context, actor *types.UserRecord, userID uuid.UUID) error

	// ListUsers returns one page of accounts, newest first.
	ListUsers(ctx context.Context, page, limit int) (*types.UserListResponse, error)
}

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
	cfg    *config.Config
	cache  *cache.Cache
}

// NewUserService creates a new UserService.
func NewUserService(repo UserRepo, cfg *config.Config, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
		cache:  cache.New(userCountCacheTTL, time.Minute),
	}
}

func (s *UserServiceImpl) GetUser(ctx context.Context, actor *types.UserRecord, userID uuid.UUID) (*types.UserRecord, error) {
	if actor.Role != types.RoleAdmin && actor.ID != userID {
		return nil, fmt.Errorf("cannot view another user's account: %w", types.ErrForbidden)
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	return user, nil
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, params types.CreateUserParams) (*types.UserRecord, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "CreateUser")
	defer span.End()

	l := s.logger.With(slog.String("method", "CreateUser"))

	role := params.Role
	if role == "" {
		role = types.RoleUser
	}

	fields := map[string]string{}
	trimmedName, msg := types.ValidateName(params.Name)
	if msg != "" {
		fields["name"] = msg
	}
	normalizedEmail, msg := types.ValidateEmail(params.Email)
	if msg != "" {
		fields["email"] = msg
	}
	if msg := types.ValidatePassword(params.Password); msg != "" {
		fields["password"] = msg
	}
	if !role.Valid() {
		fields["role"] = "Role must be either 'user' or 'admin'"
	}
	if len(fields) > 0 {
		span.SetStatus(codes.Error, "Validation failed")
		return nil, types.NewValidationError(fields)
	}

	passwordHash, err := auth.HashPassword(params.Password, s.cfg.Auth.BcryptCost)
	if err != nil {
		l.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		span.RecordError(err)
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, trimmedName, normalizedEmail, passwordHash, role, true)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			span.SetStatus(codes.Error, "Duplicate email")
			return nil, err
		}
		span.RecordError(err)
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.cache.Delete(userCountCacheKey)
	recordMutation(ctx, "create")
	l.InfoContext(ctx, "User created by admin", slog.String("userID", user.ID.String()))
	span.SetStatus(codes.Ok, "User created")
	return user, nil
}

// UpdateUser enforces the mutation policy before anything touches the
// database. Every check runs against the full request first, so a request
// that fails any rule changes nothing at all.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, actor *types.UserRecord, userID uuid.UUID, params types.UpdateUserParams) (*types.UserRecord, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateUser")
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateUser"), slog.String("userID", userID.String()), slog.String("actorID", actor.ID.String()))

	isAdmin := actor.Role == types.RoleAdmin
	isSelf := actor.ID == userID

	if !isAdmin && !isSelf {
		l.WarnContext(ctx, "Update denied, actor is neither admin nor target")
		span.SetStatus(codes.Error, "Not permitted")
		return nil, fmt.Errorf("cannot update another user's account: %w", types.ErrForbidden)
	}

	// Role changes are an admin privilege even on the actor's own record.
	if params.Role != nil && !isAdmin {
		l.WarnContext(ctx, "Update denied, non-admin attempted role change")
		span.SetStatus(codes.Error, "Role change not permitted")
		return nil, fmt.Errorf("cannot change role: %w", types.ErrForbidden)
	}

	// A non-admin toggling their own active flag is dropped, not rejected.
	if params.IsActive != nil && !isAdmin {
		l.DebugContext(ctx, "Ignoring isActive field on non-admin self-update")
		params.IsActive = nil
	}

	target, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, "Target not found")
		return nil, fmt.Errorf("error fetching user for update: %w", err)
	}

	fields := map[string]string{}
	if params.Name != nil {
		trimmed, msg := types.ValidateName(*params.Name)
		if msg != "" {
			fields["name"] = msg
		} else {
			params.Name = &trimmed
		}
	}
	if params.Email != nil {
		normalized, msg := types.ValidateEmail(*params.Email)
		if msg != "" {
			fields["email"] = msg
		} else {
			params.Email = &normalized
		}
	}
	if params.Role != nil && !params.Role.Valid() {
		fields["role"] = "Role must be either 'user' or 'admin'"
	}
	if len(fields) > 0 {
		span.SetStatus(codes.Error, "Validation failed")
		return nil, types.NewValidationError(fields)
	}

	// Uniqueness is re-checked excluding the target so keeping the same
	// email is never a conflict.
	if params.Email != nil && *params.Email != target.Email {
		if _, err := s.repo.GetUserByEmail(ctx, *params.Email, &userID); err == nil {
			l.WarnContext(ctx, "Update denied, email already in use")
			span.SetStatus(codes.Error, "Duplicate email")
			return nil, fmt.Errorf("email already registered: %w", types.ErrConflict)
		} else if !errors.Is(err, types.ErrNotFound) {
			span.RecordError(err)
			return nil, fmt.Errorf("error checking email uniqueness: %w", err)
		}
	}

	if !params.HasFields() {
		span.SetStatus(codes.Ok, "Nothing to update")
		return target, nil
	}

	updated, err := s.repo.UpdateUser(ctx, userID, params)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	recordMutation(ctx, "update")
	l.InfoContext(ctx, "User updated")
	span.SetStatus(codes.Ok, "User updated")
	return updated, nil
}

// DeleteUser removes an account. The self-delete guard runs before the
// existence lookup, so an admin deleting themselves always gets the guard
// error even if their record is somehow already gone.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, actor *types.UserRecord, userID uuid.UUID) error {
	ctx, span := otel.Tracer("UserService").Start(ctx, "DeleteUser", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "DeleteUser"), slog.String("userID", userID.String()), slog.String("actorID", actor.ID.String()))

	if actor.Role != types.RoleAdmin {
		span.SetStatus(codes.Error, "Not permitted")
		return fmt.Errorf("only admins can delete accounts: %w", types.ErrForbidden)
	}

	if actor.ID == userID {
		l.WarnContext(ctx, "Delete denied, admin attempted self-delete")
		span.SetStatus(codes.Error, "Self-delete")
		return fmt.Errorf("cannot delete own account: %w", types.ErrBadRequest)
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		span.RecordError(err)
		return fmt.Errorf("error deleting user: %w", err)
	}

	s.cache.Delete(userCountCacheKey)
	recordMutation(ctx, "delete")
	l.InfoContext(ctx, "User deleted")
	span.SetStatus(codes.Ok, "User deleted")
	return nil
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, page, limit int) (*types.UserListResponse, error) {
	l := s.logger.With(slog.String("method", "ListUsers"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	skip := (page - 1) * limit

	totalCount, err := s.countUsersCached(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}

	users, err := s.repo.ListUsers(ctx, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	l.DebugContext(ctx, "Listed users", slog.Int("page", page), slog.Int("limit", limit), slog.Int("total", totalCount))

	pagination := types.Pagination{}
	if page*limit < totalCount {
		pagination.Next = &types.PageRef{Page: page + 1, Limit: limit}
	}
	if page > 1 {
		pagination.Prev = &types.PageRef{Page: page - 1, Limit: limit}
	}

	return &types.UserListResponse{
		Success:    true,
		Count:      len(users),
		Pagination: pagination,
		Data:       users,
	}, nil
}

// countUsersCached memoizes the total count briefly. Creation and deletion
// invalidate it, so only external writers can make a page transiently stale.
func (s *UserServiceImpl) countUsersCached(ctx context.Context) (int, error) {
	if cached, found := s.cache.Get(userCountCacheKey); found {
		if count, ok := cached.(int); ok {
			return count, nil
		}
	}
	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return 0, err
	}
	s.cache.Set(userCountCacheKey, count, cache.DefaultExpiration)
	return count, nil
}

func recordMutation(ctx context.Context, operation string) {
	metrics.Get().UserMutationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
