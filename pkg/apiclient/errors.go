package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSessionExpired means the session could not be refreshed and has
	// been cleared. The user must sign in again.
	ErrSessionExpired = errors.New("apiclient: session expired")

	// ErrNoRefreshToken is the cause of ErrSessionExpired when no refresh
	// token was stored.
	ErrNoRefreshToken = errors.New("apiclient: no refresh token")

	// ErrRetryExhausted means a request was still rejected with 401 after
	// its one replay.
	ErrRetryExhausted = errors.New("apiclient: unauthorized after refresh")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string

	cause error
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// parseErrorResponse builds an APIError from whichever error shape the API
// used: {"message"}, {"error","error_description"} or a bare status.
func parseErrorResponse(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}

	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil {
		e.Code = env.Error
		e.Message = env.firstMessage()
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
