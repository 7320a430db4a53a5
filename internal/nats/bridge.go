package nats

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/invalidation"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

const (
	// InvalidateSubjectPrefix is the prefix of invalidation subjects.
	InvalidateSubjectPrefix = "console.invalidate"

	// OriginHeader carries the id of the instance that published a message.
	OriginHeader = "Console-Origin"
)

// InvalidateSubject returns the subject for a tag.
func InvalidateSubject(tag invalidation.Tag) string {
	return InvalidateSubjectPrefix + "." + string(tag)
}

// Bridge relays cache invalidations between console instances.
type Bridge struct {
	conn     *nats.Conn
	registry *invalidation.Registry
	origin   string
	logger   *logger.Logger

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewBridge creates a bridge for registry over client.
func NewBridge(client *Client, registry *invalidation.Registry, log *logger.Logger) *Bridge {
	return &Bridge{
		conn:     client.Conn(),
		registry: registry,
		origin:   uuid.NewString(),
		logger:   log.Component("nats.bridge"),
	}
}

// Origin returns the id this instance stamps on published invalidations.
func (b *Bridge) Origin() string {
	return b.origin
}

// PublishInvalidation implements invalidation.Publisher.
func (b *Bridge) PublishInvalidation(tag invalidation.Tag) error {
	msg := nats.NewMsg(InvalidateSubject(tag))
	msg.Header.Set(OriginHeader, b.origin)
	if err := b.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}
	return nil
}

// Start subscribes to remote invalidations and attaches the bridge to the
// registry as its publisher.
func (b *Bridge) Start() error {
	sub, err := b.conn.Subscribe(InvalidateSubjectPrefix+".*", b.handle)
	if err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %w", err)
	}

	b.mu.Lock()
	b.sub = sub
	b.mu.Unlock()

	b.registry.SetPublisher(b)
	b.logger.Info("invalidation bridge started", zap.String("origin", b.origin))
	return nil
}

func (b *Bridge) handle(msg *nats.Msg) {
	if msg.Header.Get(OriginHeader) == b.origin {
		return
	}
	tag := invalidation.Tag(strings.TrimPrefix(msg.Subject, InvalidateSubjectPrefix+"."))
	b.logger.Debug("remote invalidation", zap.String("tag", string(tag)), zap.String("origin", msg.Header.Get(OriginHeader)))
	b.registry.Receive(tag)
}

// Stop detaches from the registry and unsubscribes.
func (b *Bridge) Stop() {
	b.registry.SetPublisher(nil)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sub != nil {
		if err := b.sub.Unsubscribe(); err != nil {
			b.logger.Warn("failed to unsubscribe", zap.Error(err))
		}
		b.sub = nil
	}
}
