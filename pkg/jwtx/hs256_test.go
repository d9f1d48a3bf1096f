package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/garage/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestHS256SignAndVerify(t *testing.T) {
	now := time.Now().UTC()

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	require.Equal(t, "HS256", signer.Alg())

	claims := jwtx.NewAccessClaims("user-42", jwtx.RoleCustomer, time.Hour, "garage-api", now)
	claims.Email = "jo@example.com"

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	verifier, err := jwtx.NewVerifierHS256(testSecret, jwtx.VerifyOptions{Issuer: "garage-api"})
	require.NoError(t, err)

	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-42", parsed.Subject)
	require.Equal(t, jwtx.RoleCustomer, parsed.PrimaryRole())
	require.Equal(t, "jo@example.com", parsed.Email)
	require.NotEmpty(t, parsed.ID)
}

func TestHS256VerifyFailures(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	signer, err := jwtx.NewSignerHS256(testSecret)
	require.NoError(t, err)
	verifier, err := jwtx.NewVerifierHS256(testSecret, jwtx.VerifyOptions{Now: fixedClock(now)})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other, err := jwtx.NewSignerHS256([]byte("another-secret-another-secret!!"))
		require.NoError(t, err)
		token, err := other.Sign(jwtx.NewAccessClaims("u", jwtx.RoleAdmin, time.Hour, "", now))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewAccessClaims("u", jwtx.RoleAdmin, time.Hour, "", now.Add(-2*time.Hour)))
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("no expiry", func(t *testing.T) {
		claims := jwtx.NewAccessClaims("u", jwtx.RoleAdmin, time.Hour, "", now)
		claims.ExpiresAt = nil
		token, err := signer.Sign(claims)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
		require.ErrorIs(t, err, jwtx.ErrMissingExpiry)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
			_, err := verifier.Verify(raw)
			require.ErrorIs(t, err, jwtx.ErrInvalidToken, "token %q", raw)
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := signer.Sign(jwtx.NewAccessClaims("u", jwtx.RoleCustomer, time.Hour, "", now))
		require.NoError(t, err)

		admin, err := signer.Sign(jwtx.NewAccessClaims("u", jwtx.RoleAdmin, time.Hour, "", now))
		require.NoError(t, err)

		// Splice the admin payload onto the customer signature.
		parts := strings.Split(token, ".")
		adminParts := strings.Split(admin, ".")
		forged := parts[0] + "." + adminParts[1] + "." + parts[2]

		_, err = verifier.Verify(forged)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwtx.NewAccessClaims("u", jwtx.RoleAdmin, time.Hour, "", now))
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidToken)
	})
}

func TestHS256RequiresSecret(t *testing.T) {
	_, err := jwtx.NewVerifierHS256(nil, jwtx.VerifyOptions{})
	require.ErrorIs(t, err, jwtx.ErrEmptySecret)

	_, err = jwtx.NewSignerHS256(nil)
	require.ErrorIs(t, err, jwtx.ErrEmptySecret)
}
