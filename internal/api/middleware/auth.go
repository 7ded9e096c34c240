package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nvoss/toolgate/internal/api/response"
	"github.com/nvoss/toolgate/internal/domain"
	"github.com/nvoss/toolgate/internal/ratelimit"
	"github.com/nvoss/toolgate/internal/security"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	UserRoleKey contextKey = "userRole"
)

// anonymousKey is the shared bucket for requests without a valid token.
const anonymousKey = "anonymous"

// BearerToken extracts the bearer token from the Authorization header.
// Returns "" when the header is absent or malformed.
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// AuthMiddleware handles token authentication
type AuthMiddleware struct {
	tokens *security.TokenManager
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(tokens *security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate validates the access token and stores the identity in
// the request context. Refresh tokens are rejected here.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			response.Unauthorized(w, "missing or malformed authorization header")
			return
		}

		userID, role, err := m.tokens.Validate(token, security.AccessToken)
		if err != nil {
			response.FromError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, UserRoleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates admin-only routes. It runs after Authenticate, so
// a role mismatch is a 403, distinct from authentication failure.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := GetUserRole(r.Context())
		if !ok {
			response.Unauthorized(w, "unauthorized")
			return
		}
		if role != domain.RoleAdmin {
			response.Forbidden(w, domain.ErrForbidden.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID gets the user ID from context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetUserRole gets the user role from context
func GetUserRole(ctx context.Context) (domain.Role, bool) {
	role, ok := ctx.Value(UserRoleKey).(domain.Role)
	return role, ok
}

// RateLimitMiddleware handles rate limiting
type RateLimitMiddleware struct {
	limiter *ratelimit.Limiter
	tokens  *security.TokenManager
}

// NewRateLimitMiddleware creates a new rate limit middleware
func NewRateLimitMiddleware(limiter *ratelimit.Limiter, tokens *security.TokenManager) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter, tokens: tokens}
}

// Key derives the rate-limit key for a request. Authenticated traffic
// is isolated per identity; any authentication failure falls back to
// the shared anonymous bucket. The limiter itself never rejects with a
// 401; that is Authenticate's job.
func (m *RateLimitMiddleware) Key(r *http.Request) string {
	token := BearerToken(r)
	if token == "" {
		return anonymousKey
	}
	userID, _, err := m.tokens.Validate(token, security.AccessToken)
	if err != nil {
		return anonymousKey
	}
	return "user:" + userID.String()
}

// Limit enforces the per-key quota before the handler runs.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.Key(r)

		allowed, remaining, reset, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			// Counter store trouble must not block traffic.
			log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", reset.UTC().Format(time.RFC3339))

		if !allowed {
			response.Error(w, http.StatusTooManyRequests,
				domain.ErrRateLimited.Error()+": "+m.limiter.Description())
			return
		}

		next.ServeHTTP(w, r)
	})
}
