package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/pkg/logger"
	"github.com/capitalize-ai/bot-console/pkg/metrics"
)

const (
	// StreamName is the name of the console events stream.
	StreamName = "CONSOLE_EVENTS"

	// SubjectPrefix is the prefix for all journal subjects.
	SubjectPrefix = "console.events"

	globalScope = "_global"
)

// Journal records console events in JetStream so clients can catch up after
// a reconnect.
type Journal struct {
	client *Client
	logger *logger.Logger
}

// NewJournal creates a journal over client.
func NewJournal(client *Client, log *logger.Logger) *Journal {
	return &Journal{client: client, logger: log.Component("nats.journal")}
}

// EnsureStream ensures the events stream exists with proper configuration.
func (j *Journal) EnsureStream(ctx context.Context) error {
	js := j.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, jetstream.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream: %w", err)
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Console state events for client catch-up",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	j.logger.Info("created journal stream", zap.String("stream", StreamName))
	return nil
}

// subjectToken makes an arbitrary id safe to use as one subject token.
func subjectToken(s string) string {
	if s == "" {
		return globalScope
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}

// EventSubject returns the subject for an event.
func EventSubject(tenantID string, eventType model.EventType) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, subjectToken(tenantID), eventType)
}

// TenantFilter returns the filter subject for all events of a tenant.
func TenantFilter(tenantID string) string {
	return fmt.Sprintf("%s.%s.>", SubjectPrefix, subjectToken(tenantID))
}

// PublishEvent writes an event to the journal and returns its sequence.
func (j *Journal) PublishEvent(ctx context.Context, event model.Event) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		metrics.JournalPublished.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := j.client.JetStream().Publish(ctx, EventSubject(event.TenantID, event.Type), data)
	if err != nil {
		metrics.JournalPublished.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	metrics.JournalPublished.WithLabelValues("ok").Inc()
	return ack.Sequence, nil
}

// Run journals every event from events until ctx ends or the channel closes.
// Notifications are not journalled.
func (j *Journal) Run(ctx context.Context, events <-chan model.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Type == model.EventNotification {
				continue
			}
			pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if _, err := j.PublishEvent(pubCtx, e); err != nil {
				j.logger.Warn("failed to journal event",
					zap.String("type", string(e.Type)),
					zap.String("tenant_id", e.TenantID),
					zap.Error(err),
				)
			}
			cancel()
		}
	}
}

// Replay returns up to limit events of a tenant recorded after
// afterSequence, the last sequence seen and whether more may follow.
func (j *Journal) Replay(ctx context.Context, tenantID string, afterSequence uint64, limit int) ([]model.Event, uint64, bool, error) {
	if limit <= 0 {
		limit = 100
	}

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject:     TenantFilter(tenantID),
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		InactiveThreshold: 30 * time.Second,
	}
	if afterSequence > 0 {
		consumerConfig.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		consumerConfig.OptStartSeq = afterSequence + 1
	}

	consumer, err := j.client.JetStream().CreateConsumer(ctx, StreamName, consumerConfig)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to create consumer: %w", err)
	}

	batch, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to fetch events: %w", err)
	}

	events := make([]model.Event, 0, limit)
	lastSequence := afterSequence
	for msg := range batch.Messages() {
		var event model.Event
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			j.logger.Warn("skipping unreadable journal entry", zap.String("subject", msg.Subject()), zap.Error(err))
			continue
		}
		if meta, err := msg.Metadata(); err == nil {
			event.Sequence = meta.Sequence.Stream
			lastSequence = meta.Sequence.Stream
		}
		events = append(events, event)
	}

	if err := batch.Error(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, 0, false, fmt.Errorf("batch error: %w", err)
	}

	return events, lastSequence, len(events) == limit, nil
}
