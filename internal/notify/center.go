// Package notify collects the transient notifications console flows raise.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/events"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/pkg/logger"
	"github.com/capitalize-ai/bot-console/pkg/metrics"
)

// Notifier raises operator-visible notifications.
type Notifier interface {
	Success(tenantID, message string)
	Error(tenantID, message string)
	Info(tenantID, message string)
}

// Center keeps a bounded backlog of notifications until they are drained.
type Center struct {
	mu        sync.Mutex
	backlog   []model.Notification
	limit     int
	publisher events.Publisher
	logger    *logger.Logger
}

// NewCenter creates a center holding at most limit undrained notifications.
// publisher may be nil.
func NewCenter(limit int, publisher events.Publisher, log *logger.Logger) *Center {
	if limit <= 0 {
		limit = 50
	}
	return &Center{
		limit:     limit,
		publisher: publisher,
		logger:    log.Component("notify"),
	}
}

func (c *Center) Success(tenantID, message string) { c.raise(model.LevelSuccess, tenantID, message) }
func (c *Center) Error(tenantID, message string)   { c.raise(model.LevelError, tenantID, message) }
func (c *Center) Info(tenantID, message string)    { c.raise(model.LevelInfo, tenantID, message) }

func (c *Center) raise(level model.NotificationLevel, tenantID, message string) {
	n := model.Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		TenantID:  tenantID,
		CreatedAt: time.Now().UTC(),
	}

	c.mu.Lock()
	c.backlog = append(c.backlog, n)
	if over := len(c.backlog) - c.limit; over > 0 {
		c.backlog = append([]model.Notification(nil), c.backlog[over:]...)
	}
	c.mu.Unlock()

	metrics.NotificationsTotal.WithLabelValues(string(level)).Inc()
	fields := []zap.Field{zap.String("level", string(level)), zap.String("tenant_id", tenantID), zap.String("message", message)}
	if level == model.LevelError {
		c.logger.Warn("notification", fields...)
	} else {
		c.logger.Info("notification", fields...)
	}

	if c.publisher != nil {
		c.publisher.Publish(model.Event{
			Type:     model.EventNotification,
			TenantID: tenantID,
			Data:     n,
		})
	}
}

// Drain returns and clears the pending notifications visible to an operator
// granted tenants, oldest first. No tenants means every tenant; notifications
// without a tenant are visible to all.
func (c *Center) Drain(tenants ...string) []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []model.Notification{}
	var kept []model.Notification
	for _, n := range c.backlog {
		if visible(n, tenants) {
			out = append(out, n)
		} else {
			kept = append(kept, n)
		}
	}
	c.backlog = kept
	return out
}

// Pending returns the visible pending notifications without clearing them.
func (c *Center) Pending(tenants ...string) []model.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []model.Notification{}
	for _, n := range c.backlog {
		if visible(n, tenants) {
			out = append(out, n)
		}
	}
	return out
}

func visible(n model.Notification, tenants []string) bool {
	return len(tenants) == 0 || n.TenantID == "" || slices.Contains(tenants, n.TenantID)
}
