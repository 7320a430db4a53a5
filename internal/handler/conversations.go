package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/bot-console/internal/middleware"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/service"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

// ConversationHandler handles conversation and session endpoints.
type ConversationHandler struct {
	console *service.Console
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(console *service.Console, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{console: console, logger: log}
}

func (h *ConversationHandler) workspace(r *http.Request) *service.Workspace {
	return h.console.Workspace(middleware.GetTenantID(r.Context()))
}

// conversationID reads and validates {id}, writing a 400 when invalid.
func conversationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := middleware.ValidateResourceID("conversation", id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

// CreateConversationRequest is the body of POST .../conversations.
type CreateConversationRequest struct {
	Text string `json:"text"`
}

// ConversationListResponse lists conversations with the selection.
type ConversationListResponse struct {
	Conversations []model.Conversation `json:"conversations"`
	ActiveID      string               `json:"active_id,omitempty"`
}

// List handles GET /api/v1/tenants/{tenantID}/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	rec := h.workspace(r).Chat()
	writeJSON(w, http.StatusOK, ConversationListResponse{
		Conversations: rec.List(),
		ActiveID:      rec.ActiveID(),
	})
}

// Create handles POST /api/v1/tenants/{tenantID}/conversations
// With ?wait=true and initial text the response waits for the reply.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text != "" {
		if err := middleware.ValidateMessageText(req.Text); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	conv, send := h.workspace(r).Chat().CreateConversation(r.Context(), req.Text)
	if send == nil || r.URL.Query().Get("wait") != "true" {
		writeJSON(w, http.StatusCreated, conv)
		return
	}

	writeSendResult(w, r, send, http.StatusCreated)
}

// Get handles GET /api/v1/tenants/{tenantID}/conversations/{id}
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	conv, found := h.workspace(r).Chat().Get(id)
	if !found {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// Select handles POST /api/v1/tenants/{tenantID}/conversations/{id}/select
func (h *ConversationHandler) Select(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	if err := h.workspace(r).Chat().SelectConversation(id); err != nil {
		writeError(w, statusOf(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"active_id": id})
}

// Discard handles DELETE /api/v1/tenants/{tenantID}/conversations/{id}
func (h *ConversationHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id, ok := conversationID(w, r)
	if !ok {
		return
	}

	if err := h.workspace(r).Chat().DiscardConversation(id); err != nil {
		writeError(w, statusOf(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Sessions handles GET /api/v1/tenants/{tenantID}/sessions
func (h *ConversationHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "page must be a positive integer")
			return
		}
		page = n
	}

	sessions, err := h.workspace(r).Sessions(r.Context(), page)
	if err != nil {
		writeError(w, statusOf(err), messageOf(err, "Failed to load sessions"))
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// OpenSession handles POST /api/v1/tenants/{tenantID}/sessions/{sessionID}/open
// It selects the session; the history loader fetches its messages.
func (h *ConversationHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := middleware.ValidateResourceID("session", sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.workspace(r).OpenSession(sessionID)
	if err != nil {
		writeError(w, statusOf(err), err.Error())
		return
	}

	// History arrives as a conversation.loaded event when not yet loaded.
	status := http.StatusOK
	if !conv.Loaded {
		status = http.StatusAccepted
	}
	writeJSON(w, status, conv)
}
