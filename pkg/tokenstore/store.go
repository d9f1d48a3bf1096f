// Package tokenstore keeps the session credentials the portal hands to the
// browser: the signed access token, the refresh token, and two display-only
// caches (role and user info).
//
// The cached role and user info are never a trust source. Anything deciding
// access must verify the signed access token instead.
package tokenstore

import "time"

// Store reads and writes session values. Implementations never fail: a
// write that cannot happen is dropped, a missing value reports ok=false.
type Store interface {
	// Set overwrites name with value for maxAge.
	Set(name, value string, maxAge time.Duration)
	// Get returns the value of name and whether it was present.
	Get(name string) (string, bool)
	// Delete expires name immediately. Deleting a missing name is a no-op.
	Delete(name string)
	// ClearSession deletes every value listed in the store's Names.
	ClearSession()
}

// Names are the storage keys one session uses.
type Names struct {
	AccessToken  string
	RefreshToken string
	UserRole     string
	UserInfo     string
}

// DefaultNames are the cookie names shared by the portal and the browser.
var DefaultNames = Names{
	AccessToken:  "authToken",
	RefreshToken: "refreshToken",
	UserRole:     "userRole",
	UserInfo:     "userInfo",
}

// All returns every non-empty name in deletion order.
func (n Names) All() []string {
	out := make([]string, 0, 4)
	for _, name := range []string{n.AccessToken, n.RefreshToken, n.UserRole, n.UserInfo} {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// clearSession deletes each session value in turn. Cookie writes are not
// transactional so there is nothing to roll back.
func clearSession(s Store, names Names) {
	for _, name := range names.All() {
		s.Delete(name)
	}
}
