package http

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/aussiebroadwan/garage/pkg/apiclient"
	"github.com/aussiebroadwan/garage/pkg/httpx"
	"github.com/aussiebroadwan/garage/pkg/jwtx"
	"github.com/aussiebroadwan/garage/pkg/slogx"
)

// dashboard is one role portal and the API resource behind it.
type dashboard struct {
	Path    string
	Title   string
	Role    jwtx.Role
	APIPath string
}

var dashboards = []dashboard{
	{Path: "/admin", Title: "Admin dashboard", Role: jwtx.RoleAdmin, APIPath: "/api/admin/dashboard"},
	{Path: "/customer", Title: "Customer dashboard", Role: jwtx.RoleCustomer, APIPath: "/api/customer/dashboard"},
	{Path: "/employee", Title: "Employee dashboard", Role: jwtx.RoleEmployee, APIPath: "/api/employee/dashboard"},
}

// DashboardHandler renders the role portals from API data. The route
// guard has already checked the role before a page handler runs.
type DashboardHandler struct {
	Home       string
	APISession SessionFunc
}

type stat struct {
	Label string
	Value string
}

type dashboardView struct {
	Title string
	User  *apiclient.UserInfo
	Stats []stat
}

// Page returns the handler for d.
func (h *DashboardHandler) Page(d dashboard) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slogx.FromContext(r.Context()).With("dashboard", d.Path, "role", httpx.RoleFromContext(r.Context()))
		session := h.APISession(w, r)

		var data map[string]any
		err := session.GetJSON(r.Context(), d.APIPath, &data)
		switch {
		case errors.Is(err, apiclient.ErrSessionExpired):
			// Cookies were already cleared on this response.
			logger.Info("session expired, back to sign in")
			httpx.Redirect(w, r, h.Home, http.StatusSeeOther)
			return
		case errors.Is(err, apiclient.ErrRetryExhausted):
			logger.Warn("api rejected refreshed token", "err", err)
			renderError(w, r, http.StatusUnauthorized, "Your session could not be restored. Please sign in again.")
			return
		case err != nil:
			logger.Error("failed to load dashboard", "err", err)
			renderError(w, r, http.StatusBadGateway, "The dashboard could not be loaded.")
			return
		}

		view := dashboardView{Title: d.Title, Stats: stats(data)}
		if user, ok := session.CachedUser(); ok {
			view.User = &user
		}
		renderPage(w, r, http.StatusOK, "dashboard.html", view)
	})
}

// stats flattens the top level of a dashboard payload into sorted rows.
func stats(data map[string]any) []stat {
	out := make([]stat, 0, len(data))
	for k, v := range data {
		out = append(out, stat{Label: k, Value: formatValue(v)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case []any:
		return fmt.Sprintf("%d items", len(t))
	case map[string]any:
		return fmt.Sprintf("%d fields", len(t))
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.2f", t)
	default:
		return fmt.Sprint(t)
	}
}
