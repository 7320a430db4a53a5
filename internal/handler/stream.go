package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/events"
	"github.com/capitalize-ai/bot-console/internal/middleware"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/pkg/logger"
	"github.com/capitalize-ai/bot-console/pkg/metrics"
)

const (
	replayBatch       = 50
	heartbeatInterval = 30 * time.Second
)

// Replayer reads journalled events back.
type Replayer interface {
	Replay(ctx context.Context, tenantID string, afterSequence uint64, limit int) ([]model.Event, uint64, bool, error)
}

// StreamHandler handles SSE streaming and event replay endpoints.
type StreamHandler struct {
	bus       *events.Bus
	journal   Replayer
	logger    *logger.Logger
	heartbeat time.Duration
}

// NewStreamHandler creates a new stream handler. journal is nil when the
// NATS journal is disabled.
func NewStreamHandler(bus *events.Bus, journal Replayer, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		bus:       bus,
		journal:   journal,
		logger:    log.Component("stream"),
		heartbeat: heartbeatInterval,
	}
}

// ReplayCompleteEvent represents the completion of event replay.
type ReplayCompleteEvent struct {
	LastSequence uint64 `json:"last_sequence"`
	EventCount   int    `json:"event_count"`
}

func parseAfterSequence(r *http.Request) (uint64, bool, error) {
	s := r.URL.Query().Get("after_sequence")
	if s == "" {
		return 0, false, nil
	}
	seq, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("after_sequence must be a non-negative integer")
	}
	return seq, true, nil
}

// Stream handles GET /api/v1/tenants/{tenantID}/stream
// Supports ?after_sequence=N to replay journalled events first.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := middleware.GetTenantID(ctx)

	afterSequence, replay, err := parseAfterSequence(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// The server WriteTimeout would cut the stream; it lives until the client leaves.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("failed to clear stream write deadline", zap.Error(err))
	}

	// Subscribe before replaying so nothing published meanwhile is lost.
	live, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	sendSSEEvent(w, flusher, "connected", map[string]string{
		"tenant_id": tenantID,
	})

	if replay && h.journal != nil {
		h.replay(ctx, w, flusher, tenantID, afterSequence)
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("SSE client disconnected", zap.String("tenant_id", tenantID))
			return

		case e, ok := <-live:
			if !ok {
				return
			}
			if e.TenantID != "" && e.TenantID != tenantID {
				continue
			}
			if err := sendSSEEvent(w, flusher, string(e.Type), e); err != nil {
				h.logger.Warn("failed to encode event", zap.String("type", string(e.Type)), zap.Error(err))
			}

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{
				Timestamp: time.Now().UTC(),
			})
		}
	}
}

func (h *StreamHandler) replay(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, tenantID string, afterSequence uint64) {
	lastSequence := afterSequence
	total := 0
	for {
		batch, last, more, err := h.journal.Replay(ctx, tenantID, lastSequence, replayBatch)
		if err != nil {
			h.logger.Error("failed to replay events", zap.String("tenant_id", tenantID), zap.Error(err))
			sendSSEEvent(w, flusher, "error", &model.ErrorEvent{
				Code:    "replay_error",
				Message: "Failed to replay events",
			})
			return
		}
		for _, e := range batch {
			if ctx.Err() != nil {
				return
			}
			sendSSEEvent(w, flusher, string(e.Type), e)
			total++
		}
		lastSequence = last
		if !more {
			break
		}
	}

	sendSSEEvent(w, flusher, "replay_complete", &ReplayCompleteEvent{
		LastSequence: lastSequence,
		EventCount:   total,
	})

	h.logger.Info("event replay complete",
		zap.String("tenant_id", tenantID),
		zap.Int("events_replayed", total),
		zap.Uint64("last_sequence", lastSequence),
	)
}

// Events handles GET /api/v1/tenants/{tenantID}/events
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusNotFound, "event journal is not enabled")
		return
	}

	afterSequence, _, err := parseAfterSequence(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := replayBatch
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	tenantID := middleware.GetTenantID(r.Context())
	batch, last, more, err := h.journal.Replay(r.Context(), tenantID, afterSequence, limit)
	if err != nil {
		h.logger.Error("failed to read journal", zap.String("tenant_id", tenantID), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to read event journal")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events":        batch,
		"last_sequence": last,
		"has_more":      more,
	})
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
