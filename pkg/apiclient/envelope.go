package apiclient

import (
	"bytes"
	"encoding/json"
)

// Envelope is the wrapper some API endpoints put around their payload.
// Every field is optional; endpoints that answer with a bare payload are
// handled by Normalize.
type Envelope struct {
	Data             json.RawMessage `json:"data,omitempty"`
	Success          *bool           `json:"success,omitempty"`
	Message          string          `json:"message,omitempty"`
	Error            string          `json:"error,omitempty"`
	ErrorDescription string          `json:"error_description,omitempty"`
}

func (e Envelope) firstMessage() string {
	if e.ErrorDescription != "" {
		return e.ErrorDescription
	}
	return e.Message
}

// Normalize returns the payload of a response body: the "data" member when
// the body is an object carrying one, otherwise the body itself.
func Normalize(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}

	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return trimmed
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return trimmed
	}
	return env.Data
}
