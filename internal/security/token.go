package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nvoss/toolgate/internal/domain"
)

// TokenKind distinguishes the two token slots. The kind is embedded as a
// claim so a refresh token can never be accepted where an access token
// is required, and vice versa.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// Claims represents JWT claims
type Claims struct {
	Role string `json:"role"`
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenManager handles JWT token operations
type TokenManager struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
}

// NewTokenManager creates a new token manager
func NewTokenManager(secret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:          []byte(secret),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		now:             time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// TTL returns the configured lifetime for a token kind.
func (m *TokenManager) TTL(kind TokenKind) time.Duration {
	if kind == RefreshToken {
		return m.refreshTokenTTL
	}
	return m.accessTokenTTL
}

// Issue signs a token for the given identity and role. Expiry is always
// issued-at plus the kind's TTL, in whole seconds.
func (m *TokenManager) Issue(userID uuid.UUID, role domain.Role, kind TokenKind) (string, time.Time, error) {
	now := m.now().Truncate(time.Second)
	expiry := now.Add(m.TTL(kind))

	claims := Claims{
		Role: string(role),
		Type: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiry),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "toolgate",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiry, nil
}

// Validate verifies signature, expiry, and required claims, and checks
// that the token is of the expected kind. A token whose expiry equals
// the current time is already expired.
func (m *TokenManager) Validate(tokenString string, kind TokenKind) (uuid.UUID, domain.Role, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, "", domain.ErrExpiredToken
		}
		return uuid.Nil, "", domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, "", domain.ErrInvalidToken
	}
	if claims.Type != string(kind) || claims.Role == "" || claims.Subject == "" {
		return uuid.Nil, "", domain.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, "", domain.ErrInvalidToken
	}
	return userID, domain.Role(claims.Role), nil
}
