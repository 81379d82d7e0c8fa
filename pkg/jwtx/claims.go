package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims this service consumes from the external
// identity provider. Only the subject (stable user id) and scopes matter to
// the escrow subsystem; everything else is passed through untouched.
type Claims struct {
	jwt.RegisteredClaims

	// Permission Scopes, e.g. "escrow:seller escrow:admin"
	Scopes []string `json:"scopes,omitempty"`
}

// UserID returns the stable opaque user id asserted by the identity provider.
func (c Claims) UserID() string { return c.Subject }

// HasScope reports whether the token carries the given scope.
func (c Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// ValidateExpiry rejects tokens without an exp claim or past it. The parser
// already enforces exp when present; this catches tokens that omit it.
func (c Claims) ValidateExpiry() error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if time.Now().After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	return nil
}
