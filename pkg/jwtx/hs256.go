package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret is returned when a signer or verifier is built without a key.
var ErrEmptySecret = errors.New("jwtx: empty HMAC secret")

// HS256Verifier validates JWTs signed with HMAC-SHA256 using a secret shared
// with the backend. Any other alg header is rejected as a bad signature.
type HS256Verifier struct {
	secret []byte
	opts   VerifyOptions
	parser *jwt.Parser
}

// NewVerifierHS256 creates a verifier for the given shared secret.
func NewVerifierHS256(secret []byte, opts VerifyOptions) (*HS256Verifier, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	// Time based claims are checked by ValidateExpiryAt with our own clock,
	// so the parser only handles structure and signature.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	return &HS256Verifier{secret: secret, opts: opts, parser: parser}, nil
}

// Verify validates the JWT string and returns its parsed Claims.
func (v *HS256Verifier) Verify(tokenStr string) (Claims, error) {
	if tokenStr == "" {
		return Claims{}, invalid(ErrMalformed)
	}

	token, err := v.parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return Claims{}, invalid(classify(err))
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, invalid(ErrMalformed)
	}

	// Now check all the claim requirements
	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, invalid(err)
	}
	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return Claims{}, invalid(err)
	}
	if err := claims.ValidateExpiryAt(v.opts.Now().UTC(), v.opts.Leeway); err != nil {
		return Claims{}, invalid(err)
	}

	return *claims, nil
}

// classify maps golang-jwt parse errors onto our sentinels.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		// Also covers tokens signed with any algorithm other than HS256.
		return fmt.Errorf("%w: %w", ErrInvalidSig, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
}

// HS256Signer mints HMAC-SHA256 tokens. The portal never issues tokens in
// production; this backs the mint-token dev command and tests.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 creates a signer for the given shared secret.
func NewSignerHS256(secret []byte) (*HS256Signer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return &HS256Signer{secret: secret}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}
