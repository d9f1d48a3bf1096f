package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aussiebroadwan/garage/pkg/slogx"
	"github.com/aussiebroadwan/garage/pkg/tokenstore"
)

// Session is a Client bound to one token store.
type Session struct {
	client *Client
	store  tokenstore.Store
}

// Store returns the store the session reads tokens from.
func (s *Session) Store() tokenstore.Store { return s.store }

// AccessToken returns the stored access token, if any.
func (s *Session) AccessToken() (string, bool) {
	return s.store.Get(s.client.Names.AccessToken)
}

// Do sends req with the stored access token. A 401 triggers one refresh and
// one replay; any other status is returned unchanged for the caller to
// handle. The request body is buffered so it can be sent twice.
func (s *Session) Do(req *http.Request) (*http.Response, error) {
	if err := bufferBody(req); err != nil {
		return nil, err
	}

	token, _ := s.AccessToken()
	resp, err := s.send(req, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	discard(resp)

	fresh, err := s.reauthorize(req.Context(), token)
	if err != nil {
		return nil, err
	}

	// The replay never re-enters reauthorize, so a request is retried at most once.
	resp, err = s.send(req, fresh)
	if err != nil {
		s.client.Metrics.Replay(s.client.Name, "error")
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		s.client.Metrics.Replay(s.client.Name, "unauthorized")
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		apiErr := parseErrorResponse(resp.StatusCode, body)
		apiErr.cause = ErrRetryExhausted
		return nil, apiErr
	}

	s.client.Metrics.Replay(s.client.Name, "ok")
	return resp, nil
}

// send dispatches a copy of req carrying token.
func (s *Session) send(req *http.Request, token string) (*http.Response, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		out.Body = body
	}

	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}

	resp, err := s.client.HTTPClient.Do(out)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

// reauthorize obtains a token to replay with after a 401 for a request that was
// sent with stale.
func (s *Session) reauthorize(ctx context.Context, stale string) (string, error) {
	names := s.client.Names
	flights := s.client.coordinator()

	// Another caller already replaced the token we used; replay with theirs.
	if current, ok := s.store.Get(names.AccessToken); ok && current != stale {
		return current, nil
	}

	refreshToken, _ := s.store.Get(names.RefreshToken)

	wait, recent, leader := flights.begin(refreshToken, stale)
	switch {
	case wait != nil:
		return s.await(ctx, wait)
	case !leader:
		// A flight for this refresh token settled while we were on our way.
		s.apply(*recent)
		return recent.token, nil
	}

	// Double-check now that we lead: the store may have been refreshed
	// between the first read and begin.
	var res refreshResult
	if current, ok := s.store.Get(names.AccessToken); ok && current != stale {
		res = refreshResult{token: current}
	} else {
		res = s.lead(ctx, refreshToken)
	}
	released := flights.settle(refreshToken, res)

	slogx.FromContext(ctx).Debug("token refresh settled",
		"client", s.client.Name,
		"released", released,
		"ok", res.err == nil,
	)
	return res.token, res.err
}

// lead performs the exchange for every caller queued on refreshToken and
// applies the outcome to this session's store.
func (s *Session) lead(ctx context.Context, refreshToken string) refreshResult {
	log := slogx.FromContext(ctx).With("client", s.client.Name)
	start := time.Now()

	if refreshToken == "" {
		s.client.Metrics.Refresh(s.client.Name, "no_refresh_token", time.Since(start))
		err := fmt.Errorf("%w: %w", ErrSessionExpired, ErrNoRefreshToken)
		s.expire(ctx, err)
		return refreshResult{err: err}
	}

	// The exchange serves every queued caller, so one caller going away
	// must not cancel it. RefreshTimeout still bounds it.
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.client.RefreshTimeout)
	defer cancel()

	tokens, err := s.client.exchange(rctx, refreshToken)
	if err != nil {
		s.client.Metrics.Refresh(s.client.Name, "failed", time.Since(start))
		log.Warn("token refresh failed", "err", err)

		err = fmt.Errorf("%w: %w", ErrSessionExpired, err)
		s.expire(ctx, err)
		return refreshResult{err: err}
	}

	s.client.Metrics.Refresh(s.client.Name, "ok", time.Since(start))
	res := refreshResult{token: tokens.Token, refreshToken: tokens.RefreshToken}
	s.apply(res)
	return res
}

// await blocks until the running exchange settles, then applies its
// outcome to this session's store, which may differ from the leader's.
func (s *Session) await(ctx context.Context, wait <-chan refreshResult) (string, error) {
	select {
	case res := <-wait:
		if res.err != nil {
			s.store.ClearSession()
			return "", res.err
		}
		s.apply(res)
		return res.token, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// apply writes a successful refresh into this session's store.
func (s *Session) apply(res refreshResult) {
	s.store.Set(s.client.Names.AccessToken, res.token, s.client.AccessTokenTTL)
	if res.refreshToken != "" {
		s.store.Set(s.client.Names.RefreshToken, res.refreshToken, s.client.RefreshTokenTTL)
	}
}

// expire clears the session before anyone is told about it.
func (s *Session) expire(ctx context.Context, cause error) {
	s.store.ClearSession()
	if s.client.OnSessionExpired != nil {
		s.client.OnSessionExpired(ctx, cause)
	}
}

// bufferBody makes req's body replayable.
func bufferBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}

	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to buffer request body: %w", err)
	}

	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	req.Body, _ = req.GetBody()
	req.ContentLength = int64(len(data))
	return nil
}

// discard drains and closes a response we are not going to hand back.
func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
