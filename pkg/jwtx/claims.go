package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes used by the portal. The access TTL matches what the
// backend issues at login, so cookies and tokens expire together.
const (
	DefaultAccessTokenTTL  = 3600 * time.Second
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims are the access-token claims the backend embeds in the session token.
type Claims struct {
	jwt.RegisteredClaims

	// Role is the single authorization role, e.g. "ROLE_ADMIN".
	Role Role `json:"role,omitempty"`

	// Roles is read when a backend emits a list instead of a single role.
	// Only the first entry is considered.
	Roles []Role `json:"roles,omitempty"`

	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// NewAccessClaims builds minimally-correct claims for a subject and role.
func NewAccessClaims(subject string, role Role, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Role: role,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// PrimaryRole returns the role the token grants, or RoleNone.
func (c *Claims) PrimaryRole() Role {
	if c.Role != RoleNone {
		return c.Role
	}
	if len(c.Roles) > 0 {
		return c.Roles[0]
	}
	return RoleNone
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}

	if c.Issuer != expected {
		return ErrIssuer
	}

	return nil
}

// ValidateAudience checks if at least one expected audience is present.
func (c *Claims) ValidateAudience(expected []string) error {
	if len(expected) == 0 {
		return nil // nothing to enforce
	}

	for _, want := range expected {
		if slices.Contains(c.Audience, want) {
			return nil
		}
	}

	return ErrAudience
}

// ValidateExpiryAt ensures the token carries exp, hasn't expired and isn't
// used before nbf, allowing leeway for clock skew in both directions.
func (c *Claims) ValidateExpiryAt(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrMissingExpiry
	}
	if now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}

	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}

	return nil
}

// ValidateExpiry is ValidateExpiryAt against the wall clock with no leeway.
func (c *Claims) ValidateExpiry() error {
	return c.ValidateExpiryAt(time.Now().UTC(), 0)
}
