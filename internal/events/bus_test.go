package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

func TestBusFansOut(t *testing.T) {
	bus := NewBus(4, logger.NewNop())
	a, cancelA := bus.Subscribe()
	defer cancelA()
	b, cancelB := bus.Subscribe()
	defer cancelB()

	bus.Publish(model.Event{Type: model.EventConversationCreated, TenantID: "t1"})

	for _, ch := range []<-chan model.Event{a, b} {
		e := <-ch
		assert.Equal(t, model.EventConversationCreated, e.Type)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.CreatedAt.IsZero())
	}
}

func TestBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewBus(1, logger.NewNop())
	ch, cancel := bus.Subscribe()
	defer cancel()

	bus.Publish(model.Event{Type: model.EventMessageOptimistic})
	bus.Publish(model.Event{Type: model.EventMessageConfirmed})

	e := <-ch
	assert.Equal(t, model.EventMessageOptimistic, e.Type)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected event %s", extra.Type)
	default:
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus(1, logger.NewNop())
	ch, cancel := bus.Subscribe()

	cancel()
	cancel()
	bus.Publish(model.Event{Type: model.EventNotification})

	_, ok := <-ch
	require.False(t, ok)
}
