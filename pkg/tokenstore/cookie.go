package tokenstore

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// CookieOptions are the attributes written on every cookie.
type CookieOptions struct {
	// Secure marks cookies HTTPS-only. Enabled for production builds.
	Secure bool
	// Names overrides DefaultNames.
	Names Names
}

// CookieStore is a Store over one request's cookies and its response. Values
// written during the request shadow the incoming cookies, so a token minted
// by a refresh halfway through a handler is what later calls read.
type CookieStore struct {
	r    *http.Request
	w    http.ResponseWriter
	opts CookieOptions

	mu      sync.Mutex
	written map[string]*string // nil entry means deleted
}

// NewCookieStore binds a store to r and w.
func NewCookieStore(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieStore {
	if opts.Names == (Names{}) {
		opts.Names = DefaultNames
	}
	return &CookieStore{
		r:       r,
		w:       w,
		opts:    opts,
		written: make(map[string]*string),
	}
}

// Names returns the cookie names this store clears.
func (s *CookieStore) Names() Names { return s.opts.Names }

func (s *CookieStore) Set(name, value string, maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := value
	s.written[name] = &v
	s.writeCookie(name, value, max(int(maxAge/time.Second), 1))
}

func (s *CookieStore) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.written[name]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}

	c, err := s.r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (s *CookieStore) Delete(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.written[name] = nil
	s.writeCookie(name, "", -1)
}

func (s *CookieStore) ClearSession() {
	clearSession(s, s.opts.Names)
}

// writeCookie replaces any Set-Cookie for name already on the response.
// maxAge < 0 expires the cookie now.
func (s *CookieStore) writeCookie(name, value string, maxAge int) {
	h := s.w.Header()
	var kept []string
	for _, line := range h.Values("Set-Cookie") {
		if !strings.HasPrefix(line, name+"=") {
			kept = append(kept, line)
		}
	}
	h.Del("Set-Cookie")
	for _, line := range kept {
		h.Add("Set-Cookie", line)
	}

	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
