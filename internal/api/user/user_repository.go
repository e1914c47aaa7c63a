package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-user-accounts/app/observability/metrics"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user account persistence.
type UserRepo interface {
	// GetUser retrieves a user record by its unique ID.
	// Returns types.ErrNotFound if no such record exists.
	GetUser(ctx context.Context, userID uuid.UUID) (*types.UserRecord, error)

	// GetUserByEmail retrieves a user record by email (case-insensitive).
	// A non-nil excludeID skips that record; used for uniqueness checks
	// during updates so a user keeping their own email is not a conflict.
	GetUserByEmail(ctx context.Context, email string, excludeID *uuid.UUID) (*types.UserRecord, error)

	// CreateUser inserts a new account and returns the stored record.
	// Returns types.ErrConflict when the email is already registered.
	CreateUser(ctx context.Context, name, email, passwordHash string, role types.Role, isActive bool) (*types.UserRecord, error)

	// UpdateUser applies the non-nil fields of params and returns the
	// updated record. Returns types.ErrNotFound if the user doesn't exist.
	UpdateUser(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) (*types.UserRecord, error)

	// DeleteUser removes an account permanently.
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// CountUsers returns the total number of accounts.
	CountUsers(ctx context.Context) (int, error)

	// ListUsers returns a page of accounts ordered newest first.
	ListUsers(ctx context.Context, skip, limit int) ([]types.UserRecord, error)
}

// PGXQuerier is the slice of pgxpool.Pool the repository needs. Tests
// substitute a pgxmock pool through the same methods.
type PGXQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ PGXQuerier = (*pgxpool.Pool)(nil)

// PostgresUserRepo implements UserRepo using PostgreSQL.
type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool PGXQuerier
}

// NewPostgresUserRepo creates a new PostgreSQL user repository.
func NewPostgresUserRepo(pgpool PGXQuerier, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = "id, name, email, password_hash, role, is_active, created_at, last_login_at"

// observeQuery records the elapsed time of a database query. Meant to be
// deferred at the top of a repository method with the start time captured
// at the call site.
func observeQuery(ctx context.Context, query string, start time.Time) {
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.String("query", query)))
}

func scanUser(row pgx.Row) (*types.UserRecord, error) {
	var u types.UserRecord
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) GetUser(ctx context.Context, userID uuid.UUID) (*types.UserRecord, error) {
	defer observeQuery(ctx, "get_user", time.Now())
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1", userColumns)

	user, err := scanUser(r.pgpool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, types.ErrNotFound)
		}
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string, excludeID *uuid.UUID) (*types.UserRecord, error) {
	defer observeQuery(ctx, "get_user_by_email", time.Now())
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = lower($1)", userColumns)
	args := []interface{}{email}
	if excludeID != nil {
		query += " AND id <> $2"
		args = append(args, *excludeID)
	}

	user, err := scanUser(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("email %s: %w", email, types.ErrNotFound)
		}
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) CreateUser(ctx context.Context, name, email, passwordHash string, role types.Role, isActive bool) (*types.UserRecord, error) {
	defer observeQuery(ctx, "create_user", time.Now())
	l := r.logger.With(slog.String("method", "CreateUser"))

	query := fmt.Sprintf(`
        INSERT INTO users (name, email, password_hash, role, is_active)
        VALUES ($1, lower($2), $3, $4, $5)
        RETURNING %s`, userColumns)

	user, err := scanUser(r.pgpool.QueryRow(ctx, query, name, email, passwordHash, role, isActive))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			l.WarnContext(ctx, "Duplicate email on user creation", slog.String("email", email))
			return nil, fmt.Errorf("email already registered: %w", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	l.InfoContext(ctx, "User created", slog.String("userID", user.ID.String()))
	return user, nil
}

// UpdateUser builds the SET clause from the non-nil fields of params so a
// partial update never touches omitted columns. All changes land in a
// single statement; a concurrent reader sees either the old record or the
// fully updated one.
func (r *PostgresUserRepo) UpdateUser(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) (*types.UserRecord, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UpdateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()
	defer observeQuery(ctx, "update_user", time.Now())

	l := r.logger.With(slog.String("method", "UpdateUser"), slog.String("userID", userID.String()))

	var setClauses []string
	var args []interface{}
	argID := 1

	if params.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argID))
		args = append(args, *params.Name)
		argID++
		span.SetAttributes(attribute.Bool("update.name", true))
	}
	if params.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = lower($%d)", argID))
		args = append(args, *params.Email)
		argID++
		span.SetAttributes(attribute.Bool("update.email", true))
	}
	if params.Role != nil {
		setClauses = append(setClauses, fmt.Sprintf("role = $%d", argID))
		args = append(args, *params.Role)
		argID++
		span.SetAttributes(attribute.Bool("update.role", true))
	}
	if params.IsActive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", argID))
		args = append(args, *params.IsActive)
		argID++
		span.SetAttributes(attribute.Bool("update.is_active", true))
	}

	if len(setClauses) == 0 {
		l.WarnContext(ctx, "UpdateUser called with no fields to update")
		span.SetStatus(codes.Ok, "No update fields provided")
		return r.GetUser(ctx, userID)
	}

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setClauses, ", "), argID, userColumns)

	l.DebugContext(ctx, "Executing dynamic update query", slog.String("query", query), slog.Int("arg_count", len(args)))

	user, err := scanUser(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, fmt.Errorf("user not found for update: %w", types.ErrNotFound)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			l.WarnContext(ctx, "Duplicate email on user update")
			span.SetStatus(codes.Error, "Duplicate email")
			return nil, fmt.Errorf("email already registered: %w", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to execute update query", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("database error updating user: %w", err)
	}

	l.InfoContext(ctx, "User updated successfully")
	span.SetStatus(codes.Ok, "User updated")
	return user, nil
}

func (r *PostgresUserRepo) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "DeleteUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()
	defer observeQuery(ctx, "delete_user", time.Now())

	l := r.logger.With(slog.String("method", "DeleteUser"), slog.String("userID", userID.String()))

	tag, err := r.pgpool.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to delete user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "User not found")
		return fmt.Errorf("user not found for delete: %w", types.ErrNotFound)
	}

	l.InfoContext(ctx, "User deleted")
	span.SetStatus(codes.Ok, "User deleted")
	return nil
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context) (int, error) {
	defer observeQuery(ctx, "count_users", time.Now())
	var count int
	if err := r.pgpool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&count); err != nil {
		return 0, fmt.Errorf("database error counting users: %w", err)
	}
	return count, nil
}

func (r *PostgresUserRepo) ListUsers(ctx context.Context, skip, limit int) ([]types.UserRecord, error) {
	defer observeQuery(ctx, "list_users", time.Now())
	l := r.logger.With(slog.String("method", "ListUsers"))

	query := fmt.Sprintf("SELECT %s FROM users ORDER BY created_at DESC OFFSET $1 LIMIT $2", userColumns)

	rows, err := r.pgpool.Query(ctx, query, skip, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to query users", slog.Any("error", err))
		return nil, fmt.Errorf("database error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]types.UserRecord, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			l.ErrorContext(ctx, "Failed to scan user row", slog.Any("error", err))
			return nil, fmt.Errorf("database error scanning user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("database error iterating users: %w", err)
	}
	return users, nil
}
