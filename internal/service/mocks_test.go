package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nvoss/toolgate/internal/domain"
)

// fakeUserRepository is an in-memory domain.UserRepository. RotateTokens
// holds one lock across the read-rotate-write cycle, mirroring the
// serialization the real stores provide.
type fakeUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (r *fakeUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepository) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepository) RotateTokens(_ context.Context, id uuid.UUID, rotate domain.RotateFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	next, err := rotate(domain.TokenSlots{
		AccessToken:   u.AccessToken,
		AccessExpiry:  u.AccessExpiry,
		RefreshToken:  u.RefreshToken,
		RefreshExpiry: u.RefreshExpiry,
	})
	if err != nil {
		return err
	}
	u.AccessToken = next.AccessToken
	u.AccessExpiry = next.AccessExpiry
	u.RefreshToken = next.RefreshToken
	u.RefreshExpiry = next.RefreshExpiry
	return nil
}
