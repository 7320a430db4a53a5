package handler

import (
	"net/http"

	"github.com/capitalize-ai/bot-console/internal/middleware"
	"github.com/capitalize-ai/bot-console/internal/notify"
)

// NotificationHandler hands pending notifications to the UI.
type NotificationHandler struct {
	center *notify.Center
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(center *notify.Center) *NotificationHandler {
	return &NotificationHandler{center: center}
}

// Drain handles GET /api/v1/notifications
// Returned notifications are removed unless ?peek=true. Operators only see
// notifications of the tenants they may manage.
func (h *NotificationHandler) Drain(w http.ResponseWriter, r *http.Request) {
	tenants := middleware.GetTenants(r.Context())
	if r.URL.Query().Get("peek") == "true" {
		writeJSON(w, http.StatusOK, map[string]any{"items": h.center.Pending(tenants...)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": h.center.Drain(tenants...)})
}
