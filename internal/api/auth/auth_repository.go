package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the persistence contract the auth flows need.
type AuthRepo interface {
	// GetUserByEmail loads a user by normalized email.
	// Returns types.ErrNotFound if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*types.UserRecord, error)

	// GetUserByID loads a user by id. Returns types.ErrNotFound if absent.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserRecord, error)

	// CreateUser inserts a new record with the given hash and role.
	// Returns types.ErrConflict when the email is already taken.
	CreateUser(ctx context.Context, name, email, passwordHash string, role types.Role) (*types.UserRecord, error)

	// UpdateLastLogin stamps last_login_at after a successful authentication.
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = "id, name, email, password_hash, role, is_active, created_at, last_login_at"

func scanUser(row pgx.Row) (*types.UserRecord, error) {
	var u types.UserRecord
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.UserRecord, error) {
	user, err := scanUser(r.pgpool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = lower($1)", email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		return nil, fmt.Errorf("get user by email: query failed: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.UserRecord, error) {
	user, err := scanUser(r.pgpool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", types.ErrNotFound)
		}
		return nil, fmt.Errorf("get user by id: query failed: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, name, email, passwordHash string, role types.Role) (*types.UserRecord, error) {
	l := r.logger.With(slog.String("method", "CreateUser"))

	user, err := scanUser(r.pgpool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, role, is_active, created_at)
         VALUES ($1, $2, lower($3), $4, $5, TRUE, $6)
         RETURNING `+userColumns,
		uuid.New(), name, email, passwordHash, role, time.Now()))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			l.WarnContext(ctx, "Attempted to register duplicate email", slog.Any("error", err))
			return nil, fmt.Errorf("email already registered: %w", types.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		return nil, fmt.Errorf("database error creating user: %w", err)
	}
	return user, nil
}

func (r *PostgresAuthRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE users SET last_login_at = $1 WHERE id = $2", time.Now(), userID)
	if err != nil {
		return fmt.Errorf("update last login: db update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user not found: %w", types.ErrNotFound)
	}
	return nil
}
