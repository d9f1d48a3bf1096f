package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// GetJSON fetches path and decodes the normalized payload into out.
func (s *Session) GetJSON(ctx context.Context, path string, out any) error {
	return s.DoJSON(ctx, http.MethodGet, path, nil, out)
}

// PostJSON sends in as JSON to path and decodes the normalized payload into out.
func (s *Session) PostJSON(ctx context.Context, path string, in, out any) error {
	return s.DoJSON(ctx, http.MethodPost, path, in, out)
}

// DoJSON is the authenticated JSON round trip behind GetJSON and PostJSON.
// Non-2xx answers come back as *APIError.
func (s *Session) DoJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.client.url(path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Do(req)
	if err != nil {
		return err
	}
	return decodeJSON(resp, out)
}
