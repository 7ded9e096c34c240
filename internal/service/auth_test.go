package service

import (
	"context"
	"testing"
	"time"

	"github.com/nvoss/toolgate/internal/domain"
	"github.com/nvoss/toolgate/internal/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(now time.Time) (*AuthService, *fakeUserRepository) {
	repo := newFakeUserRepository()
	clock := func() time.Time { return now }
	tokens := security.NewTokenManager("test-secret", 10*time.Minute, 24*time.Hour).WithClock(clock)
	return NewAuthService(repo, tokens).WithClock(clock), repo
}

func TestRegisterIssuesPairAndPersistsSlots(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, repo := newTestAuthService(now)
	ctx := context.Background()

	pair, err := svc.Register(ctx, domain.UserCreate{Email: "alice@example.com", Password: "long-enough-pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(600), pair.ExpiresIn)

	user, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, domain.RoleUser, user.Role)
	require.NotNil(t, user.AccessToken)
	assert.Equal(t, pair.AccessToken, *user.AccessToken)
	require.NotNil(t, user.RefreshToken)
	assert.Equal(t, pair.RefreshToken, *user.RefreshToken)
	assert.NotEqual(t, "long-enough-pw", user.PasswordHash)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestAuthService(now)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.UserCreate{Email: "alice@example.com", Password: "long-enough-pw"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, domain.UserCreate{Email: "alice@example.com", Password: "another-password"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestLoginWrongCredentials(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestAuthService(now)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.UserCreate{Email: "alice@example.com", Password: "long-enough-pw"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.UserLogin{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// Unknown email is indistinguishable from a wrong password.
	_, err = svc.Login(ctx, domain.UserLogin{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginReusesLiveRefreshToken(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, repo := newTestAuthService(now)
	ctx := context.Background()

	first, err := svc.Register(ctx, domain.UserCreate{Email: "alice@example.com", Password: "long-enough-pw"})
	require.NoError(t, err)

	pair, err := svc.Login(ctx, domain.UserLogin{Email: "alice@example.com", Password: "long-enough-pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	// The stored refresh token is still live, so none is reissued.
	assert.Empty(t, pair.RefreshToken)

	user, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.RefreshToken)
	assert.Equal(t, first.RefreshToken, *user.RefreshToken)
	require.NotNil(t, user.AccessToken)
	assert.Equal(t, pair.AccessToken, *user.AccessToken)
}

func TestLoginReissuesPairAfterRefreshExpiry(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeUserRepository()
	clockNow := start
	clock := func() time.Time { return clockNow }
	tokens := security.NewTokenManager("test-secret", 10*time.Minute, 24*time.Hour).WithClock(clock)
	svc := NewAuthService(repo, tokens).WithClock(clock)
	ctx := context.Background()

	first, err := svc.Register(ctx, domain.UserCreate{Email: "alice@example.com", Password: "long-enough-pw"})
	require.NoError(t, err)

	clockNow = start.Add(25 * time.Hour)

	pair, err := svc.Login(ctx, domain.UserLogin{Email: "alice@example.com", Password: "long-enough-pw"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, first.RefreshToken, pair.RefreshToken)

	user, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, user.RefreshToken)
	assert.Equal(t, pair.RefreshToken, *user.RefreshToken)
}

func TestEnsureAdmin(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc, repo := newTestAuthService(now)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "bootstrap-password"))

	user, err := repo.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	// Re-running is a no-op, not a failure.
	require.NoError(t, svc.EnsureAdmin(ctx, "admin@example.com", "bootstrap-password"))

	// Missing credentials skip bootstrap entirely.
	require.NoError(t, svc.EnsureAdmin(ctx, "", ""))
}
