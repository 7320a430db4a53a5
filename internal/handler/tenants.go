// Package handler provides HTTP handlers for the console API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/service"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

// TenantHandler handles tenant endpoints.
type TenantHandler struct {
	console *service.Console
	logger  *logger.Logger
}

// NewTenantHandler creates a new tenant handler.
func NewTenantHandler(console *service.Console, log *logger.Logger) *TenantHandler {
	return &TenantHandler{console: console, logger: log}
}

// List handles GET /api/v1/tenants
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.console.Tenants().List(r.Context(), q)
	if err != nil {
		h.logger.Warn("failed to list tenants", zap.Error(err))
		writeError(w, statusOf(err), messageOf(err, "Failed to load tenants"))
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Create handles POST /api/v1/tenants
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.TenantInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, form := h.console.Tenants().Create(r.Context(), in)
	writeJSON(w, outcomeStatus(outcome, http.StatusCreated), dialogResponse{Outcome: outcome, Form: form})
}

// Get handles GET /api/v1/tenants/{tenantID}
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	tenant, err := h.console.Tenants().Details(r.Context(), tenantID)
	if err != nil {
		writeError(w, statusOf(err), messageOf(err, "Failed to load tenant"))
		return
	}

	writeJSON(w, http.StatusOK, tenant)
}

// Update handles PATCH /api/v1/tenants/{tenantID}
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "tenantID")

	var form map[string]any
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.console.Tenants().Update(r.Context(), tenantID, form)
	if err != nil {
		writeError(w, statusOf(err), messageOf(err, "Failed to load tenant"))
		return
	}

	writeJSON(w, outcomeStatus(outcome, http.StatusOK), dialogResponse{Outcome: outcome})
}

// RequestDelete handles POST /api/v1/tenants/{tenantID}/delete
func (h *TenantHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	h.console.Tenants().RequestDelete(chi.URLParam(r, "tenantID"))
	pending, open := h.console.Tenants().PendingDelete()
	writeJSON(w, http.StatusOK, deleteState{Pending: pending, Open: open})
}

// CancelDelete handles POST /api/v1/tenants/{tenantID}/delete/cancel
func (h *TenantHandler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	h.console.Tenants().CancelDelete()
	writeJSON(w, http.StatusOK, deleteState{})
}

// ConfirmDelete handles POST /api/v1/tenants/{tenantID}/delete/confirm
func (h *TenantHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	outcome := h.console.Tenants().ConfirmDelete(r.Context(), chi.URLParam(r, "tenantID"))
	writeJSON(w, outcomeStatus(outcome, http.StatusOK), dialogResponse{Outcome: outcome})
}
