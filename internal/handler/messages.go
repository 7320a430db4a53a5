package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/capitalize-ai/bot-console/internal/chat"
	"github.com/capitalize-ai/bot-console/internal/middleware"
	"github.com/capitalize-ai/bot-console/internal/model"
)

// SendMessageRequest is the body of POST .../messages.
type SendMessageRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"session_id,omitempty"`
}

// SendMessageResponse reports a send and the conversation state.
type SendMessageResponse struct {
	MessageID    string             `json:"message_id"`
	Conversation model.Conversation `json:"conversation"`
	Error        string             `json:"error,omitempty"`
}

// Send handles POST /api/v1/tenants/{tenantID}/conversations/{id}/messages
// The message is appended optimistically and 202 returned; with ?wait=true
// the response waits for the reply.
func (h *ConversationHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := middleware.ValidateMessageText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := h.workspace(r).Chat()
	send, err := rec.SendMessage(r.Context(), id, req.Text, req.SessionID)
	if err != nil {
		writeError(w, statusOf(err), err.Error())
		return
	}

	if r.URL.Query().Get("wait") == "true" {
		writeSendResult(w, r, send, http.StatusOK)
		return
	}

	conv, _ := rec.Get(id)
	writeJSON(w, http.StatusAccepted, SendMessageResponse{MessageID: send.MessageID, Conversation: conv})
}

// writeSendResult waits for send and writes the reconciled conversation.
func writeSendResult(w http.ResponseWriter, r *http.Request, send *chat.Send, success int) {
	_, err := send.Wait(r.Context())
	switch {
	case err == nil:
		writeJSON(w, success, SendMessageResponse{MessageID: send.MessageID, Conversation: send.Conversation()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "gave up waiting for the reply; it will still be applied")
	case errors.Is(err, chat.ErrConversationDiscarded):
		writeError(w, http.StatusGone, err.Error())
	default:
		writeJSON(w, statusOf(err), SendMessageResponse{
			MessageID:    send.MessageID,
			Conversation: send.Conversation(),
			Error:        messageOf(err, chat.SendFailedMessage),
		})
	}
}
