package chat

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/apiclient"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/notify"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

// LoadFailedMessage is raised when history cannot be fetched.
const LoadFailedMessage = "Failed to load conversation history."

// ResolveFunc finds the reconciler of a tenant.
type ResolveFunc func(tenantID string) (*Reconciler, bool)

// Loader loads history when a confirmed conversation without it is selected.
type Loader struct {
	resolve  ResolveFunc
	notifier notify.Notifier
	logger   *logger.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// NewLoader creates a loader.
func NewLoader(resolve ResolveFunc, notifier notify.Notifier, log *logger.Logger) *Loader {
	return &Loader{
		resolve:  resolve,
		notifier: notifier,
		logger:   log.Component("chat.loader"),
		inflight: make(map[string]struct{}),
	}
}

// Run consumes events until ctx ends or the channel closes. Loads run
// concurrently; Run waits for them before returning.
func (l *Loader) Run(ctx context.Context, events <-chan model.Event) {
	defer l.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.Type != model.EventConversationSelected {
				continue
			}
			l.wg.Add(1)
			go func() {
				defer l.wg.Done()
				l.Handle(ctx, e)
			}()
		}
	}
}

// Handle reacts to a single event. It returns true when a load was performed.
func (l *Loader) Handle(ctx context.Context, e model.Event) bool {
	if e.Type != model.EventConversationSelected {
		return false
	}
	rec, ok := l.resolve(e.TenantID)
	if !ok {
		return false
	}
	conv, ok := rec.Get(e.ConversationID)
	if !ok || !conv.Confirmed() || conv.Loaded {
		return false
	}

	key := e.TenantID + "/" + conv.SessionID
	l.mu.Lock()
	if _, busy := l.inflight[key]; busy {
		l.mu.Unlock()
		return false
	}
	l.inflight[key] = struct{}{}
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		delete(l.inflight, key)
		l.mu.Unlock()
	}()

	if _, err := rec.LoadMessages(ctx, conv.SessionID); err != nil {
		l.logger.Warn("history load failed",
			zap.String("tenant_id", e.TenantID),
			zap.String("session_id", conv.SessionID),
			zap.Error(err),
		)
		l.notifier.Error(e.TenantID, apiclient.MessageOf(err, LoadFailedMessage))
		return false
	}
	return true
}
