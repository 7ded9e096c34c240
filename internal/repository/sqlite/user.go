package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nvoss/toolgate/internal/domain"
)

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
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.conn.ExecContext(ctx, query,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanUser(r.db.conn.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.db.conn.QueryRowContext(ctx, query, id.String()))
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`
	if err := r.db.conn.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// RotateTokens applies rotate to the stored token slots inside a
// transaction. The single-connection pool serializes concurrent logins
// for the same identity.
func (r *UserRepository) RotateTokens(ctx context.Context, id uuid.UUID, rotate domain.RotateFunc) error {
	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer tx.Rollback()

	var current domain.TokenSlots
	query := `
		SELECT access_token, access_expiry, refresh_token, refresh_expiry
		FROM users
		WHERE id = ?
	`
	err = tx.QueryRowContext(ctx, query, id.String()).Scan(
		&current.AccessToken,
		&current.AccessExpiry,
		&current.RefreshToken,
		&current.RefreshExpiry,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
		SET access_token = ?, access_expiry = ?, refresh_token = ?, refresh_expiry = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, update,
		next.AccessToken,
		next.AccessExpiry,
		next.RefreshToken,
		next.RefreshExpiry,
		time.Now(),
		id.String(),
	); err != nil {
		return fmt.Errorf("failed to write token slots: %w", err)
	}

	return tx.Commit()
}

func (r *UserRepository) scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u     domain.User
		rawID string
		role  string
	)
	err := row.Scan(
		&rawID,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.AccessToken,
		&u.AccessExpiry,
		&u.RefreshToken,
		&u.RefreshExpiry,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id in store: %w", err)
	}
	u.ID = id
	u.Role = domain.Role(role)
	return &u, nil
}
