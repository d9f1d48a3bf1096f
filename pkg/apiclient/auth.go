package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/garage/pkg/jwtx"
)

// LoginRequest is the credential body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is what the API returns for a successful sign in.
type LoginResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	Role         jwtx.Role `json:"role"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
}

// UserInfo is the display-only profile cached next to the tokens.
type UserInfo struct {
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      jwtx.Role `json:"role"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

var errEmptyToken = errors.New("apiclient: response carried no token")

// Login signs in with email and password and stores the issued tokens plus
// the display caches.
func (s *Session) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	if err := s.client.postPublic(ctx, s.client.LoginPath, LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, errEmptyToken
	}

	n := s.client.Names
	s.store.Set(n.AccessToken, out.Token, s.client.AccessTokenTTL)
	if out.RefreshToken != "" {
		s.store.Set(n.RefreshToken, out.RefreshToken, s.client.RefreshTokenTTL)
	}

	// A client without cache names (the chat client) keeps only tokens.
	if n.UserRole != "" {
		s.store.Set(n.UserRole, string(out.Role), s.client.RefreshTokenTTL)
	}
	if n.UserInfo != "" {
		info, err := json.Marshal(UserInfo{
			FirstName: out.FirstName,
			LastName:  out.LastName,
			Email:     out.Email,
			Role:      out.Role,
		})
		if err == nil {
			s.store.Set(n.UserInfo, url.QueryEscape(string(info)), s.client.RefreshTokenTTL)
		}
	}

	return &out, nil
}

// Logout drops every session value from the store.
func (s *Session) Logout() {
	s.store.ClearSession()
}

// CachedUser returns the display profile stored at login. It is not
// verified and must not drive access decisions.
func (s *Session) CachedUser() (UserInfo, bool) {
	raw, ok := s.store.Get(s.client.Names.UserInfo)
	if !ok {
		return UserInfo{}, false
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return UserInfo{}, false
	}

	var info UserInfo
	if err := json.Unmarshal([]byte(decoded), &info); err != nil {
		return UserInfo{}, false
	}
	return info, true
}

// exchange trades a refresh token for a new access token.
func (c *Client) exchange(ctx context.Context, refreshToken string) (refreshResponse, error) {
	var out refreshResponse
	if err := c.postPublic(ctx, c.RefreshPath, refreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return refreshResponse{}, err
	}
	if out.Token == "" {
		return refreshResponse{}, errEmptyToken
	}
	return out, nil
}

// postPublic sends an unauthenticated JSON POST and decodes the payload.
func (c *Client) postPublic(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	return decodeJSON(resp, out)
}

// decodeJSON reads resp, returning an APIError for non-2xx statuses and
// otherwise decoding the normalized payload into out (if non-nil).
func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(Normalize(body), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
