package http

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/garage/pkg/apiclient"
	"github.com/aussiebroadwan/garage/pkg/httpx"
	"github.com/aussiebroadwan/garage/pkg/jwtx"
	"github.com/aussiebroadwan/garage/pkg/routeguard"
	"github.com/aussiebroadwan/garage/pkg/slogx"
)

// SessionFunc binds a client to the cookies of one request.
type SessionFunc func(http.ResponseWriter, *http.Request) *apiclient.Session

// AuthHandler serves sign in and sign out.
type AuthHandler struct {
	Table       *routeguard.Table
	Verifier    jwtx.Verifier
	APISession  SessionFunc
	ChatSession SessionFunc
}

type loginView struct {
	Email string
	Error string
}

// HandleLoginPage renders the sign-in form, or sends an already signed-in
// user to their portal.
func (h *AuthHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if role, ok := h.verifiedRole(w, r); ok {
		httpx.Redirect(w, r, h.Table.HomeFor(role), http.StatusSeeOther)
		return
	}
	renderPage(w, r, http.StatusOK, "login.html", loginView{})
}

// HandleLogin exchanges credentials for a session and redirects to the
// portal of the role in the signed token.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := slogx.FromContext(r.Context())

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if email == "" || password == "" {
		renderPage(w, r, http.StatusBadRequest, "login.html", loginView{
			Email: email,
			Error: "Email and password are required.",
		})
		return
	}

	session := h.APISession(w, r)
	resp, err := session.Login(r.Context(), email, password)
	if err != nil {
		if apiclient.IsStatus(err, http.StatusUnauthorized) || apiclient.IsStatus(err, http.StatusBadRequest) {
			renderPage(w, r, http.StatusUnauthorized, "login.html", loginView{
				Email: email,
				Error: "Invalid email or password.",
			})
			return
		}
		logger.Error("login failed", "err", err)
		renderError(w, r, http.StatusBadGateway, "The service is unavailable, please try again.")
		return
	}

	// The role in the response body is display data; the token decides.
	claims, err := h.Verifier.Verify(resp.Token)
	if err != nil {
		logger.Error("login returned an unverifiable token", "err", err)
		session.Logout()
		renderError(w, r, http.StatusBadGateway, "The service returned an invalid session.")
		return
	}

	if h.ChatSession != nil {
		if _, err := h.ChatSession(w, r).Login(r.Context(), email, password); err != nil {
			logger.Warn("chat login failed, assistant unavailable", "err", err)
		}
	}

	role := claims.PrimaryRole()
	logger.Info("user signed in", "sub", claims.Subject, "role", role)
	httpx.Redirect(w, r, h.Table.HomeFor(role), http.StatusSeeOther)
}

// HandleLogout clears every session cookie and returns to the login page.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.APISession(w, r).Logout()
	if h.ChatSession != nil {
		h.ChatSession(w, r).Logout()
	}
	httpx.Redirect(w, r, h.Table.Home, http.StatusSeeOther)
}

// HandleDashboardRedirect sends /dashboard to the caller's own portal.
func (h *AuthHandler) HandleDashboardRedirect(w http.ResponseWriter, r *http.Request) {
	if role, ok := h.verifiedRole(w, r); ok {
		httpx.Redirect(w, r, h.Table.HomeFor(role), http.StatusSeeOther)
		return
	}
	httpx.Redirect(w, r, h.Table.Home, http.StatusSeeOther)
}

// verifiedRole reads the role from a valid access token cookie. Only roles
// with their own home count, so a stray token cannot loop back to "/".
func (h *AuthHandler) verifiedRole(w http.ResponseWriter, r *http.Request) (jwtx.Role, bool) {
	token, ok := h.APISession(w, r).AccessToken()
	if !ok {
		return jwtx.RoleNone, false
	}
	claims, err := h.Verifier.Verify(token)
	if err != nil {
		return jwtx.RoleNone, false
	}
	role := claims.PrimaryRole()
	if h.Table.HomeFor(role) == h.Table.Home {
		return jwtx.RoleNone, false
	}
	return role, true
}
