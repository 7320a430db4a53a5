package handler

import (
	"context"
	"net/http"
	"time"

	natsclient "github.com/capitalize-ai/bot-console/internal/nats"
)

const readyTimeout = 3 * time.Second

// Pinger checks that the remote API is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	upstream   Pinger
	natsClient *natsclient.Client
}

// NewHealthHandler creates a health handler. natsClient is nil when NATS is
// disabled.
func NewHealthHandler(upstream Pinger, natsClient *natsclient.Client) *HealthHandler {
	return &HealthHandler{upstream: upstream, natsClient: natsClient}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type readiness struct {
	Status   string `json:"status"`
	Upstream string `json:"upstream"`
	NATS     string `json:"nats"`
	Reason   string `json:"reason,omitempty"`
}

// Ready handles GET /ready. The console is ready when the remote API answers
// and, if configured, NATS is connected.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	res := readiness{Status: "ready", Upstream: "ok", NATS: h.natsClient.Status()}
	if err := h.upstream.Ping(ctx); err != nil {
		res.Upstream = "unreachable"
		res.Status, res.Reason = "not ready", "remote API unreachable"
	} else if h.natsClient != nil && !h.natsClient.IsConnected() {
		res.Status, res.Reason = "not ready", "NATS not connected"
	}

	status := http.StatusOK
	if res.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}
