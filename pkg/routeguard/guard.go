// Package routeguard decides, before a page renders, whether the caller may
// see it. The decision uses only the signed access token cookie: the cached
// role cookie is never consulted.
package routeguard

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/garage/pkg/httpx"
	"github.com/aussiebroadwan/garage/pkg/jwtx"
	"github.com/aussiebroadwan/garage/pkg/metricsx"
	"github.com/aussiebroadwan/garage/pkg/slogx"
	"github.com/aussiebroadwan/garage/pkg/tokenstore"
)

// Outcome is the terminal state of a guard decision.
type Outcome string

const (
	Allow    Outcome = "allow"
	Redirect Outcome = "redirect"
)

// Reason says why a request was redirected. Callers treat every reason the
// same; it exists for logs and metrics.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonUnprotected  Reason = "unprotected"
	ReasonMissingToken Reason = "missing_token"
	ReasonInvalidToken Reason = "invalid_token"
	ReasonRoleMismatch Reason = "role_mismatch"
)

// Decision is the result of evaluating one request.
type Decision struct {
	Outcome  Outcome
	Reason   Reason
	Location string      // redirect target when Outcome is Redirect
	Rule     Rule        // the matched rule, zero for unprotected paths
	Claims   jwtx.Claims // verified claims when a protected path is allowed
}

// Guard enforces a Table against incoming navigations.
type Guard struct {
	Table    *Table
	Verifier jwtx.Verifier

	// CookieName holds the signed access token (default "authToken").
	CookieName string

	Metrics *metricsx.Metrics
}

// New builds a guard using the default cookie name.
func New(table *Table, verifier jwtx.Verifier, m *metricsx.Metrics) *Guard {
	return &Guard{
		Table:      table,
		Verifier:   verifier,
		CookieName: tokenstore.DefaultNames.AccessToken,
		Metrics:    m,
	}
}

// Decide runs Start -> CheckToken -> Verify -> CheckRole for r. It reads one
// cookie and performs no other I/O.
func (g *Guard) Decide(r *http.Request) Decision {
	path := r.URL.Path

	// Start: anything outside the table proceeds untouched.
	if g.Table.Excluded(path) {
		return Decision{Outcome: Allow, Reason: ReasonUnprotected}
	}
	rule, ok := g.Table.Match(path)
	if !ok {
		return Decision{Outcome: Allow, Reason: ReasonUnprotected}
	}

	// CheckToken
	c, err := r.Cookie(g.CookieName)
	if err != nil || c.Value == "" {
		return g.deny(rule, ReasonMissingToken, g.Table.Home)
	}

	// Verify
	claims, err := g.Verifier.Verify(c.Value)
	if err != nil {
		return g.deny(rule, ReasonInvalidToken, g.Table.Home)
	}

	// CheckRole: exact match only.
	role := claims.PrimaryRole()
	if role != rule.Role {
		return g.deny(rule, ReasonRoleMismatch, g.Table.HomeFor(role))
	}

	return Decision{Outcome: Allow, Rule: rule, Claims: claims}
}

func (g *Guard) deny(rule Rule, reason Reason, location string) Decision {
	return Decision{Outcome: Redirect, Reason: reason, Rule: rule, Location: location}
}

// Middleware redirects denied navigations with 307 and passes allowed ones
// through, with verified claims in the context for protected paths.
func (g *Guard) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.Decide(r)
			g.Metrics.GuardDecision(string(d.Outcome), string(d.Reason))

			if d.Outcome == Redirect {
				slogx.FromContext(r.Context()).Info("route guard redirect",
					"reason", d.Reason,
					"required_role", d.Rule.Role,
					"location", d.Location,
				)
				httpx.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
				return
			}

			if d.Reason != ReasonUnprotected {
				r = r.WithContext(httpx.ContextWithClaims(r.Context(), d.Claims))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ErrNoVerifier is returned by Validate for a guard without a verifier.
var ErrNoVerifier = errors.New("routeguard: no verifier configured")

// Validate checks the guard is usable before serving traffic.
func (g *Guard) Validate() error {
	if g.Verifier == nil {
		return ErrNoVerifier
	}
	return g.Table.Validate()
}
