// Package events fans console events out to in-process subscribers.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

// Publisher accepts console events.
type Publisher interface {
	Publish(event model.Event)
}

// Bus is a non-blocking broadcast of console events. Slow subscribers lose
// events rather than stall publishers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan model.Event
	next   uint64
	buffer int
	logger *logger.Logger
}

// NewBus creates a bus whose subscriber channels hold buffer events.
func NewBus(buffer int, log *logger.Logger) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		subs:   make(map[uint64]chan model.Event),
		buffer: buffer,
		logger: log.Component("events"),
	}
}

// Publish stamps the event and delivers it to every subscriber.
func (b *Bus) Publish(event model.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("dropping event for slow subscriber",
				zap.Uint64("subscriber", id),
				zap.String("type", string(event.Type)),
			)
		}
	}
}

// Subscribe returns a channel of future events and a function that closes it.
func (b *Bus) Subscribe() (<-chan model.Event, func()) {
	ch := make(chan model.Event, b.buffer)

	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}
