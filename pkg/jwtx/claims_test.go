package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/garage/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "garage-api",
		},
	}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("garage-api"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("other-api"), jwtx.ErrIssuer)
	})
}

func TestValidateAudience(t *testing.T) {
	c := &jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: []string{"portal", "chat"},
		},
	}

	require.NoError(t, c.ValidateAudience([]string{"chat"}))
	require.NoError(t, c.ValidateAudience(nil))
	require.ErrorIs(t, c.ValidateAudience([]string{"admin"}), jwtx.ErrAudience)
}

func TestValidateExpiryAt(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid token", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		}}
		require.NoError(t, c.ValidateExpiryAt(now, 0))
	})

	t.Run("expired token", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
		}}
		require.ErrorIs(t, c.ValidateExpiryAt(now, 0), jwtx.ErrExpired)
	})

	t.Run("expired within leeway", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Second)),
		}}
		require.NoError(t, c.ValidateExpiryAt(now, 30*time.Second))
	})

	t.Run("not yet valid", func(t *testing.T) {
		c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			NotBefore: jwt.NewNumericDate(now.Add(time.Minute)),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}}
		require.ErrorIs(t, c.ValidateExpiryAt(now, 0), jwtx.ErrNotYetValid)
	})

	t.Run("no exp claim", func(t *testing.T) {
		c := &jwtx.Claims{}
		require.ErrorIs(t, c.ValidateExpiryAt(now, 0), jwtx.ErrMissingExpiry)
	})
}

func TestPrimaryRole(t *testing.T) {
	require.Equal(t, jwtx.RoleAdmin, (&jwtx.Claims{Role: jwtx.RoleAdmin}).PrimaryRole())
	require.Equal(t, jwtx.RoleEmployee, (&jwtx.Claims{
		Roles: []jwtx.Role{jwtx.RoleEmployee, jwtx.RoleAdmin},
	}).PrimaryRole())
	require.Equal(t, jwtx.RoleNone, (&jwtx.Claims{}).PrimaryRole())
}

func TestRoleKnown(t *testing.T) {
	require.True(t, jwtx.RoleCustomer.Known())
	require.False(t, jwtx.RoleNone.Known())
	require.False(t, jwtx.Role("ADMIN").Known())
}
