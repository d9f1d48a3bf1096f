package httpx

import (
	"context"

	"github.com/aussiebroadwan/garage/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyRole   ctxKey = "role"
	CtxKeyClaims ctxKey = "claims"
)

// ContextWithClaims stores verified claims for downstream handlers.
func ContextWithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyRole, c.PrimaryRole())
	ctx = context.WithValue(ctx, CtxKeyClaims, c)
	return ctx
}

// ClaimsFromContext returns the claims the route guard verified, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}

// RoleFromContext returns the verified role or jwtx.RoleNone.
func RoleFromContext(ctx context.Context) jwtx.Role {
	if r, ok := ctx.Value(CtxKeyRole).(jwtx.Role); ok {
		return r
	}
	return jwtx.RoleNone
}
