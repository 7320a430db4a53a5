package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/middleware"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/service"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

// FAQHandler handles FAQ link and FAQ endpoints.
type FAQHandler struct {
	console *service.Console
	logger  *logger.Logger
}

// NewFAQHandler creates a new FAQ handler.
func NewFAQHandler(console *service.Console, log *logger.Logger) *FAQHandler {
	return &FAQHandler{console: console, logger: log}
}

func (h *FAQHandler) workspace(r *http.Request) *service.Workspace {
	return h.console.Workspace(middleware.GetTenantID(r.Context()))
}

// linkID reads and validates {linkID}, writing a 400 when invalid.
func linkID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "linkID")
	if err := middleware.ValidateResourceID("FAQ link", id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return id, true
}

// ListLinks handles GET /api/v1/tenants/{tenantID}/faq-links
func (h *FAQHandler) ListLinks(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.workspace(r).FAQLinks(r.Context(), q)
	if err != nil {
		h.logger.Warn("failed to list FAQ links", zap.String("tenant_id", middleware.GetTenantID(r.Context())), zap.Error(err))
		writeError(w, statusOf(err), messageOf(err, "Failed to load FAQ links"))
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// CreateLink handles POST /api/v1/tenants/{tenantID}/faq-links
func (h *FAQHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var in model.FAQLinkInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, form := h.workspace(r).CreateFAQLink(r.Context(), in)
	writeJSON(w, outcomeStatus(outcome, http.StatusCreated), dialogResponse{Outcome: outcome, Form: form})
}

// Toggle handles POST /api/v1/tenants/{tenantID}/faq-links/{linkID}/toggle
func (h *FAQHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	id, ok := linkID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"expanded": h.workspace(r).ToggleFAQLink(id)})
}

// ListFAQs handles GET /api/v1/tenants/{tenantID}/faq-links/{linkID}/faqs
func (h *FAQHandler) ListFAQs(w http.ResponseWriter, r *http.Request) {
	id, ok := linkID(w, r)
	if !ok {
		return
	}
	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.workspace(r).FAQs(r.Context(), id, q)
	if err != nil {
		writeError(w, statusOf(err), messageOf(err, "Failed to load FAQs"))
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// RequestDelete handles POST /api/v1/tenants/{tenantID}/faq-links/{linkID}/delete
func (h *FAQHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := linkID(w, r)
	if !ok {
		return
	}
	h.workspace(r).RequestFAQLinkDelete(id)
	writeJSON(w, http.StatusOK, deleteState{Pending: id, Open: true})
}

// CancelDelete handles POST /api/v1/tenants/{tenantID}/faq-links/{linkID}/delete/cancel
func (h *FAQHandler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	h.workspace(r).CancelFAQLinkDelete()
	writeJSON(w, http.StatusOK, deleteState{})
}

// ConfirmDelete handles POST /api/v1/tenants/{tenantID}/faq-links/{linkID}/delete/confirm
func (h *FAQHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := linkID(w, r)
	if !ok {
		return
	}
	outcome := h.workspace(r).ConfirmFAQLinkDelete(r.Context(), id)
	writeJSON(w, outcomeStatus(outcome, http.StatusOK), dialogResponse{Outcome: outcome})
}

// Search handles GET /api/v1/tenants/{tenantID}/faqs/search
func (h *FAQHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("user_query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "user_query is required")
		return
	}

	faqs, err := h.workspace(r).SearchFAQs(r.Context(), query)
	if err != nil {
		writeError(w, statusOf(err), messageOf(err, "FAQ search failed"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": faqs})
}
