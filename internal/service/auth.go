package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nvoss/toolgate/internal/domain"
	"github.com/nvoss/toolgate/internal/security"
)

// AuthService handles registration, login, and token rotation.
type AuthService struct {
	users  domain.UserRepository
	tokens *security.TokenManager
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users domain.UserRepository, tokens *security.TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens, now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Register creates a new identity and issues a fresh token pair.
func (s *AuthService) Register(ctx context.Context, input domain.UserCreate) (*domain.TokenPair, error) {
	return s.register(ctx, input.Email, input.Password, domain.RoleUser)
}

// EnsureAdmin creates the bootstrap admin account when it is missing.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	_, err := s.register(ctx, email, password, domain.RoleAdmin)
	if errors.Is(err, domain.ErrDuplicateEmail) {
		return nil
	}
	return err
}

func (s *AuthService) register(ctx context.Context, email, password string, role domain.Role) (*domain.TokenPair, error) {
	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	var pair *domain.TokenPair
	err = s.users.RotateTokens(ctx, user.ID, func(domain.TokenSlots) (domain.TokenSlots, error) {
		slots, p, err := s.mintPair(user.ID, user.Role)
		pair = p
		return slots, err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Login verifies credentials and rotates tokens. While the stored
// refresh token is still valid it is reused and only a new access token
// is minted; once it has expired (or was never issued) a full pair is
// reissued. Unknown email and wrong password are indistinguishable to
// the caller.
func (s *AuthService) Login(ctx context.Context, input domain.UserLogin) (*domain.TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !security.VerifyPassword(input.Password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	var pair *domain.TokenPair
	err = s.users.RotateTokens(ctx, user.ID, func(current domain.TokenSlots) (domain.TokenSlots, error) {
		now := s.now()
		if current.RefreshToken != nil && current.RefreshExpiry != nil && current.RefreshExpiry.After(now) {
			access, accessExp, err := s.tokens.Issue(user.ID, user.Role, security.AccessToken)
			if err != nil {
				return domain.TokenSlots{}, fmt.Errorf("failed to issue access token: %w", err)
			}
			next := current
			next.AccessToken = &access
			next.AccessExpiry = &accessExp
			pair = &domain.TokenPair{
				AccessToken: access,
				ExpiresIn:   int64(s.tokens.TTL(security.AccessToken).Seconds()),
			}
			return next, nil
		}

		slots, p, err := s.mintPair(user.ID, user.Role)
		pair = p
		return slots, err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *AuthService) mintPair(id uuid.UUID, role domain.Role) (domain.TokenSlots, *domain.TokenPair, error) {
	access, accessExp, err := s.tokens.Issue(id, role, security.AccessToken)
	if err != nil {
		return domain.TokenSlots{}, nil, fmt.Errorf("failed to issue access token: %w", err)
	}
	refresh, refreshExp, err := s.tokens.Issue(id, role, security.RefreshToken)
	if err != nil {
		return domain.TokenSlots{}, nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	slots := domain.TokenSlots{
		AccessToken:   &access,
		AccessExpiry:  &accessExp,
		RefreshToken:  &refresh,
		RefreshExpiry: &refreshExp,
	}
	pair := &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.TTL(security.AccessToken).Seconds()),
	}
	return slots, pair, nil
}
