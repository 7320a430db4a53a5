// Package ws pushes console events to browser clients over WebSocket and
// accepts their search and selection input.
package ws

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/pkg/logger"
	"github.com/capitalize-ai/bot-console/pkg/metrics"
)

// InputHandler applies input sent by WebSocket clients.
type InputHandler interface {
	TypeSearch(tenantID, list, text string) error
	SubmitSearch(tenantID, list, text string) error
	SelectConversation(tenantID, conversationID string) error
}

// Hub maintains the set of active WebSocket clients and broadcasts events.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	handler    InputHandler
	logger     *logger.Logger
}

// NewHub creates a new Hub instance.
func NewHub(handler InputHandler, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		handler:    handler,
		logger:     log.Component("ws"),
	}
}

// Run starts the hub's event loop until ctx ends or events closes.
func (h *Hub) Run(ctx context.Context, events <-chan model.Event) {
	defer close(h.done)
	defer h.closeAll()
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.WSConnectionsActive.Inc()

		case client := <-h.unregister:
			h.remove(client)

		case event, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(event)
		}
	}
}

func (h *Hub) broadcast(event model.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn("failed to encode event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if !client.wants(event) {
			continue
		}
		select {
		case client.send <- data:
		default:
			h.logger.Warn("dropping slow client", zap.String("tenant_id", client.tenantID))
			close(client.send)
			delete(h.clients, client)
			metrics.WSConnectionsActive.Dec()
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		metrics.WSConnectionsActive.Dec()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
		metrics.WSConnectionsActive.Dec()
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// clientEvent is an incoming WebSocket message.
type clientEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	inputSearchType   = "search.type"
	inputSearchSubmit = "search.submit"
	inputSelect       = "conversation.select"
)

type searchInput struct {
	List string `json:"list"`
	Text string `json:"text"`
}

type selectInput struct {
	ConversationID string `json:"conversation_id"`
}

// dispatch applies one client message and returns an error event to send
// back, if any.
func (h *Hub) dispatch(c *Client, raw []byte) *model.ErrorEvent {
	if c.tenantID == "" {
		return &model.ErrorEvent{Code: "no_tenant", Message: "connect with tenant_id to send input"}
	}
	var in clientEvent
	if err := json.Unmarshal(raw, &in); err != nil {
		return &model.ErrorEvent{Code: "bad_message", Message: "message must be a JSON object"}
	}

	var err error
	switch in.Type {
	case inputSearchType, inputSearchSubmit:
		var s searchInput
		if err := json.Unmarshal(in.Data, &s); err != nil {
			return &model.ErrorEvent{Code: "bad_message", Message: "invalid search input"}
		}
		if in.Type == inputSearchType {
			err = h.handler.TypeSearch(c.tenantID, s.List, s.Text)
		} else {
			err = h.handler.SubmitSearch(c.tenantID, s.List, s.Text)
		}
	case inputSelect:
		var s selectInput
		if err := json.Unmarshal(in.Data, &s); err != nil {
			return &model.ErrorEvent{Code: "bad_message", Message: "invalid selection"}
		}
		err = h.handler.SelectConversation(c.tenantID, s.ConversationID)
	default:
		return &model.ErrorEvent{Code: "unknown_type", Message: "unknown message type " + in.Type}
	}

	if err != nil {
		return &model.ErrorEvent{Code: "rejected", Message: err.Error()}
	}
	return nil
}
