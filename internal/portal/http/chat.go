package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/garage/pkg/apiclient"
	"github.com/aussiebroadwan/garage/pkg/httpx"
	"github.com/aussiebroadwan/garage/pkg/slogx"
)

// ChatMessagesPath is the chatbot API resource messages are relayed to.
const ChatMessagesPath = "/api/chat/messages"

// ChatHandler relays assistant messages through the chat client.
type ChatHandler struct {
	ChatSession SessionFunc
}

// ChatRequest is the body of POST /chat/messages.
type ChatRequest struct {
	Message string `json:"message" example:"Is my car ready?"`
}

// ErrorResponse is the {"error","error_description"} body httpx.WriteError emits.
type ErrorResponse struct {
	Error            string `json:"error" example:"session_expired"`
	ErrorDescription string `json:"error_description" example:"sign in again to use the assistant"`
}

// HandleMessage godoc
//
//	@Summary		Send a message to the assistant
//	@Description	Relays the message to the chatbot API with the caller's chat session cookies
//	@Description	and returns the chatbot's answer with any {"data": ...} envelope removed
//	@Tags			Chat
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ChatRequest		true	"message to send"
//	@Success		200		{object}	map[string]any	"chatbot answer"
//	@Failure		400		{object}	ErrorResponse	"invalid_request"
//	@Failure		401		{object}	ErrorResponse	"session_expired"
//	@Failure		502		{object}	ErrorResponse	"upstream_error or upstream_unavailable"
//	@Security		ChatSession
//	@Router			/chat/messages [post]
func (h *ChatHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "body must be JSON with a message")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	var reply json.RawMessage
	err := h.ChatSession(w, r).PostJSON(r.Context(), ChatMessagesPath, req, &reply)

	var apiErr *apiclient.APIError
	switch {
	case errors.Is(err, apiclient.ErrSessionExpired):
		httpx.WriteError(w, http.StatusUnauthorized, "session_expired", "sign in again to use the assistant")
		return
	case errors.As(err, &apiErr):
		httpx.WriteError(w, http.StatusBadGateway, "upstream_error", apiErr.Message)
		return
	case err != nil:
		slogx.FromContext(r.Context()).Error("chat relay failed", "err", err)
		httpx.WriteError(w, http.StatusBadGateway, "upstream_unavailable", "assistant is unavailable")
		return
	}

	if len(reply) == 0 {
		reply = json.RawMessage("null")
	}
	httpx.WriteJSON(w, http.StatusOK, reply)
}
