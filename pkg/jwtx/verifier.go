package jwtx

import (
	"errors"
	"time"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf.
	Leeway time.Duration

	// Now overrides the clock, mainly for tests.
	Now func() time.Time
}

// ErrInvalidToken is wrapped by every verification failure, so callers that
// only care about "usable or not" can match on it alone.
var ErrInvalidToken = errors.New("jwtx: invalid token")

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidSig = errors.New("jwtx: invalid signature")

	ErrIssuer        = errors.New("jwtx: issuer mismatch")
	ErrAudience      = errors.New("jwtx: audience mismatch")
	ErrExpired       = errors.New("jwtx: token expired")
	ErrMissingExpiry = errors.New("jwtx: token has no expiry")
	ErrNotYetValid   = errors.New("jwtx: token not yet valid")
)

// invalid joins ErrInvalidToken with the precise cause.
func invalid(cause error) error {
	return errors.Join(ErrInvalidToken, cause)
}
