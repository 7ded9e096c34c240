package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is the access level carried in every token.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents one identity with its persisted token material.
// At most one live access/refresh pair exists per user; issuing a new
// pair overwrites the stored one.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	Role          Role       `json:"role"`
	AccessToken   *string    `json:"-"`
	AccessExpiry  *time.Time `json:"-"`
	RefreshToken  *string    `json:"-"`
	RefreshExpiry *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// UserCreate represents user registration data
type UserCreate struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is the login/registration response. RefreshToken is empty
// when the stored refresh token was still valid and got reused.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TokenSlots is the persisted token material for one user.
type TokenSlots struct {
	AccessToken   *string
	AccessExpiry  *time.Time
	RefreshToken  *string
	RefreshExpiry *time.Time
}

// RotateFunc decides the next token slots given the currently stored
// ones. It runs under the repository's per-identity lock so concurrent
// logins for the same user cannot interleave.
type RotateFunc func(current TokenSlots) (TokenSlots, error)

// UserRepository persists identities and their token slots.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	RotateTokens(ctx context.Context, id uuid.UUID, rotate RotateFunc) error
}
