package apiclient

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeAPI is a garage backend that accepts exactly one access token at a time.
type fakeAPI struct {
	*httptest.Server

	mu           sync.Mutex
	validToken   string
	refreshToken string
	nextToken    string
	usedTokens   []string

	refreshCalls atomic.Int32
	refreshGate  chan struct{} // when non-nil, refresh waits for it to close
	refreshFails bool
	alwaysReject bool // protected endpoints 401 even for the valid token
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		validToken:   "fresh-token",
		refreshToken: "rt-1",
		nextToken:    "fresh-token",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", f.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh-token", f.handleRefresh)
	mux.HandleFunc("/api/", f.handleProtected)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Password != "hunter2" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Bad credentials"}`))
		return
	}

	f.mu.Lock()
	token, refresh := f.validToken, f.refreshToken
	f.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"token":        token,
		"refreshToken": refresh,
		"role":         "ROLE_CUSTOMER",
		"firstName":    "Jo",
		"lastName":     "Bloggs",
		"email":        req.Email,
	})
}

func (f *fakeAPI) handleRefresh(w http.ResponseWriter, r *http.Request) {
	f.refreshCalls.Add(1)

	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if f.refreshGate != nil {
		select {
		case <-f.refreshGate:
		case <-r.Context().Done():
			return
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.refreshFails || req.RefreshToken != f.refreshToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "refresh token expired"})
		return
	}

	f.validToken = f.nextToken
	writeJSON(w, http.StatusOK, map[string]string{"token": f.validToken})
}

func (f *fakeAPI) handleProtected(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	f.mu.Lock()
	ok := token != "" && token == f.validToken && !f.alwaysReject
	if ok {
		f.usedTokens = append(f.usedTokens, token)
	}
	f.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_token", "error_description": "token expired"})
		return
	}

	switch r.URL.Path {
	case "/api/missing":
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such job"})
	case "/api/echo":
		body, _ := io.ReadAll(r.Body)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"echo": string(body)}})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"token": token}})
	}
}

func (f *fakeAPI) tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.usedTokens...)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
