package domain

import "errors"

// Sentinel errors for every expected failure condition. The API boundary
// maps these to HTTP statuses; anything not listed here is treated as an
// internal failure and never shown to the caller verbatim.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrForbidden          = errors.New("insufficient role")
	ErrAccessDenied       = errors.New("access denied")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrNotFound           = errors.New("not found")
	ErrNotPermitted       = errors.New("operation not permitted")
	ErrServerLinked       = errors.New("server already linked")
)
