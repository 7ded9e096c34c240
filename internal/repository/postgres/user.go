package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/nvoss/toolgate/internal/domain"
)

const uniqueViolation = "23505"

// UserRepository implements domain.UserRepository
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, role, access_token, access_expiry, refresh_token, refresh_expiry, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.Pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	if err := r.db.Pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// RotateTokens applies rotate to the stored token slots inside a
// transaction holding the user's row lock, so concurrent logins for the
// same identity serialize instead of overwriting each other.
func (r *UserRepository) RotateTokens(ctx context.Context, id uuid.UUID, rotate domain.RotateFunc) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer tx.Rollback(ctx)

	var current domain.TokenSlots
	query := `
		SELECT access_token, access_expiry, refresh_token, refresh_expiry
		FROM users
		WHERE id = $1
		FOR UPDATE
	`
	err = tx.QueryRow(ctx, query, id).Scan(
		&current.AccessToken,
		&current.AccessExpiry,
		&current.RefreshToken,
		&current.RefreshExpiry,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to read token slots: %w", err)
	}

	next, err := rotate(current)
	if err != nil {
		return err
	}

	update := `
		UPDATE users
		SET access_token = $2, access_expiry = $3, refresh_token = $4, refresh_expiry = $5, updated_at = $6
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, update, id,
		next.AccessToken,
		next.AccessExpiry,
		next.RefreshToken,
		next.RefreshExpiry,
		time.Now(),
	); err != nil {
		return fmt.Errorf("failed to write token slots: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.AccessToken,
		&u.AccessExpiry,
		&u.RefreshToken,
		&u.RefreshExpiry,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}
