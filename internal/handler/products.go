package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/middleware"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/service"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

// ProductHandler handles product endpoints.
type ProductHandler struct {
	console *service.Console
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(console *service.Console, log *logger.Logger) *ProductHandler {
	return &ProductHandler{console: console, logger: log}
}

func (h *ProductHandler) workspace(r *http.Request) *service.Workspace {
	return h.console.Workspace(middleware.GetTenantID(r.Context()))
}

// productView adds the display thumbnail to a product.
type productView struct {
	model.Product
	Thumbnail string `json:"thumbnail,omitempty"`
}

func productViews(products []model.Product) []productView {
	out := make([]productView, len(products))
	for i, p := range products {
		out[i] = productView{Product: p, Thumbnail: p.Thumbnail()}
	}
	return out
}

// List handles GET /api/v1/tenants/{tenantID}/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.workspace(r).Products(r.Context(), q)
	if err != nil {
		h.logger.Warn("failed to list products", zap.String("tenant_id", middleware.GetTenantID(r.Context())), zap.Error(err))
		writeError(w, statusOf(err), messageOf(err, "Failed to load products"))
		return
	}

	writeJSON(w, http.StatusOK, service.ListView[productView]{
		Items:      productViews(view.Items),
		Pagination: view.Pagination,
	})
}

// FetchFeed handles POST /api/v1/tenants/{tenantID}/products/fetch-feed
func (h *ProductHandler) FetchFeed(w http.ResponseWriter, r *http.Request) {
	var feed model.ProductFeedRequest
	if err := decodeJSON(r, &feed); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, form := h.workspace(r).FetchProductFeed(r.Context(), feed)
	writeJSON(w, outcomeStatus(outcome, http.StatusAccepted), dialogResponse{Outcome: outcome, Form: form})
}

// RequestDelete handles POST /api/v1/tenants/{tenantID}/products/delete
func (h *ProductHandler) RequestDelete(w http.ResponseWriter, r *http.Request) {
	h.workspace(r).RequestProductsDelete()
	writeJSON(w, http.StatusOK, deleteState{Pending: middleware.GetTenantID(r.Context()), Open: true})
}

// CancelDelete handles POST /api/v1/tenants/{tenantID}/products/delete/cancel
func (h *ProductHandler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	h.workspace(r).CancelProductsDelete()
	writeJSON(w, http.StatusOK, deleteState{})
}

// ConfirmDelete handles POST /api/v1/tenants/{tenantID}/products/delete/confirm
func (h *ProductHandler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	outcome := h.workspace(r).ConfirmProductsDelete(r.Context())
	writeJSON(w, outcomeStatus(outcome, http.StatusOK), dialogResponse{Outcome: outcome})
}

// Search handles GET /api/v1/tenants/{tenantID}/products/search
func (h *ProductHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("user_query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "user_query is required")
		return
	}

	products, err := h.workspace(r).SearchProducts(r.Context(), query)
	if err != nil {
		writeError(w, statusOf(err), messageOf(err, "Product search failed"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": productViews(products)})
}
