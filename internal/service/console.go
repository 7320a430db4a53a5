package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/chat"
	"github.com/capitalize-ai/bot-console/internal/config"
	"github.com/capitalize-ai/bot-console/internal/events"
	"github.com/capitalize-ai/bot-console/internal/invalidation"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/notify"
	"github.com/capitalize-ai/bot-console/internal/query"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

// Console is the root of the console state.
type Console struct {
	api      API
	cfg      workspaceConfig
	registry *invalidation.Registry
	cache    *query.Cache
	bus      *events.Bus
	notices  *notify.Center
	tenants  *TenantService
	loader   *chat.Loader
	logger   *logger.Logger

	mu         sync.Mutex
	workspaces map[string]*Workspace
	cancels    []func()
}

// NewConsole wires the console around a remote API.
func NewConsole(api API, cfg config.ConsoleConfig, reg *invalidation.Registry, bus *events.Bus, notices *notify.Center, log *logger.Logger) *Console {
	c := &Console{
		api: api,
		cfg: workspaceConfig{
			faqLinkPageSize: cfg.FAQLinkPageSize,
			faqPageSize:     cfg.FAQPageSize,
			productPageSize: cfg.ProductPageSize,
			sessionPageSize: cfg.SessionPageSize,
			historyPageSize: cfg.HistoryPageSize,
			searchDebounce:  cfg.SearchDebounce,
		},
		registry:   reg,
		cache:      query.NewCache(reg),
		bus:        bus,
		notices:    notices,
		logger:     log.Component("console"),
		workspaces: make(map[string]*Workspace),
	}
	c.tenants = newTenantService(api, c.cache, reg, notices, cfg.TenantPageSize, log)
	c.tenants.onDelete = c.dropWorkspace
	c.loader = chat.NewLoader(c.reconciler, notices, log)

	for _, tag := range invalidation.AllTags {
		c.cancels = append(c.cancels, reg.Subscribe(tag, c.announce))
	}
	return c
}

// Tenants returns the tenant service.
func (c *Console) Tenants() *TenantService {
	return c.tenants
}

// Notifications returns the notification center.
func (c *Console) Notifications() *notify.Center {
	return c.notices
}

// Events returns the console event bus.
func (c *Console) Events() *events.Bus {
	return c.bus
}

// Workspace returns the workspace of tenantID, creating it on first use.
func (c *Console) Workspace(tenantID string) *Workspace {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w, ok := c.workspaces[tenantID]; ok {
		return w
	}
	w := newWorkspace(tenantID, c.api, c.cache, c.registry, c.notices, c.bus, c.cfg, c.logger)
	c.workspaces[tenantID] = w
	c.logger.Debug("workspace opened", zap.String("tenant_id", tenantID))
	return w
}

func (c *Console) reconciler(tenantID string) (*chat.Reconciler, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.workspaces[tenantID]
	if !ok {
		return nil, false
	}
	return w.chat, true
}

func (c *Console) dropWorkspace(tenantID string) {
	c.mu.Lock()
	w, ok := c.workspaces[tenantID]
	delete(c.workspaces, tenantID)
	c.mu.Unlock()
	if ok {
		w.Close()
	}
}

// announce turns an invalidation into an event so connected clients refetch.
func (c *Console) announce(tag invalidation.Tag) {
	c.bus.Publish(model.Event{Type: model.EventInvalidated, Data: model.Invalidated{Tag: string(tag)}})
}

// Run drives history loading and session list refreshes until ctx ends.
func (c *Console) Run(ctx context.Context) {
	loaderEvents, stopLoader := c.bus.Subscribe()
	defer stopLoader()
	watchEvents, stopWatch := c.bus.Subscribe()
	defer stopWatch()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.loader.Run(ctx, loaderEvents)
	}()

	for {
		select {
		case <-ctx.Done():
			<-done
			return
		case e, ok := <-watchEvents:
			if !ok {
				<-done
				return
			}
			switch e.Type {
			case model.EventConversationConfirmed, model.EventMessageConfirmed:
				c.registry.Invalidate(invalidation.TagSessions)
			}
		}
	}
}

// Close detaches the console from the registry and stops workspaces.
func (c *Console) Close() {
	for _, cancel := range c.cancels {
		cancel()
	}
	c.cache.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, w := range c.workspaces {
		w.Close()
		delete(c.workspaces, id)
	}
}
