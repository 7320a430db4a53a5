package service

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/capitalize-ai/bot-console/internal/chat"
	"github.com/capitalize-ai/bot-console/internal/dialog"
	"github.com/capitalize-ai/bot-console/internal/events"
	"github.com/capitalize-ai/bot-console/internal/invalidation"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/notify"
	"github.com/capitalize-ai/bot-console/internal/pagination"
	"github.com/capitalize-ai/bot-console/internal/query"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

// Workspace is the per-tenant console state: FAQ links, products and chat.
type Workspace struct {
	tenantID  string
	api       API
	cache     *query.Cache
	registry  *invalidation.Registry
	notifier  notify.Notifier
	publisher events.Publisher
	logger    *logger.Logger
	scope     url.Values

	faqLinks       *pagination.Controller
	faqs           *pagination.Nested
	createFAQLink  *dialog.CreateFlow[model.FAQLinkInput]
	deleteFAQLink  *dialog.DeleteFlow
	products       *pagination.Controller
	productSearch  *pagination.Debouncer
	fetchFeed      *dialog.CreateFlow[model.ProductFeedRequest]
	deleteProducts *dialog.DeleteFlow

	sessionPageSize int
	chat            *chat.Reconciler

	closeOnce sync.Once
}

type workspaceConfig struct {
	faqLinkPageSize int
	faqPageSize     int
	productPageSize int
	sessionPageSize int
	historyPageSize int
	searchDebounce  time.Duration
}

func newWorkspace(
	tenantID string,
	api API,
	cache *query.Cache,
	reg *invalidation.Registry,
	notifier notify.Notifier,
	publisher events.Publisher,
	cfg workspaceConfig,
	log *logger.Logger,
) *Workspace {
	w := &Workspace{
		tenantID:        tenantID,
		api:             api,
		cache:           cache,
		registry:        reg,
		notifier:        notifier,
		publisher:       publisher,
		logger:          log.Component("workspace").WithTenant(tenantID),
		scope:           url.Values{"tenant_id": {tenantID}},
		faqLinks:        pagination.New(cfg.faqLinkPageSize),
		faqs:            pagination.NewNested(cfg.faqPageSize),
		products:        pagination.New(cfg.productPageSize),
		sessionPageSize: cfg.sessionPageSize,
	}

	w.createFAQLink = dialog.NewCreateFlow(dialog.CreateOptions[model.FAQLinkInput]{
		TenantID: tenantID,
		Notifier: notifier,
		Messages: dialog.Messages{
			Success: "FAQ link created successfully",
			Failure: "Failed to create FAQ link",
		},
		Submit: func(ctx context.Context, in model.FAQLinkInput) (*model.Ack, error) {
			ack, err := api.CreateFAQLink(ctx, tenantID, in)
			if err == nil {
				reg.Invalidate(invalidation.TagFAQLinks)
			}
			return ack, err
		},
	})

	w.deleteFAQLink = dialog.NewDeleteFlow(dialog.DeleteOptions{
		TenantID: tenantID,
		Notifier: notifier,
		Messages: dialog.Messages{
			Success: "FAQ link deleted successfully",
			Failure: "Failed to delete FAQ link",
		},
		Delete: func(ctx context.Context, linkID string) (*model.Ack, error) {
			ack, err := api.DeleteFAQLink(ctx, linkID)
			if err != nil {
				return nil, err
			}
			w.faqs.Forget(linkID)
			reg.Invalidate(invalidation.TagFAQLinks)
			return ack, nil
		},
	})

	w.fetchFeed = dialog.NewCreateFlow(dialog.CreateOptions[model.ProductFeedRequest]{
		TenantID:          tenantID,
		Notifier:          notifier,
		KeepOpenOnSuccess: true,
		Messages: dialog.Messages{
			Success: "Product feed fetch started",
			Failure: "Failed to fetch product feed",
		},
		Submit: func(ctx context.Context, feed model.ProductFeedRequest) (*model.Ack, error) {
			ack, err := api.FetchProductFeed(ctx, tenantID, feed)
			if err == nil {
				reg.Invalidate(invalidation.TagProducts)
			}
			return ack, err
		},
	})

	w.deleteProducts = dialog.NewDeleteFlow(dialog.DeleteOptions{
		TenantID: tenantID,
		Notifier: notifier,
		Messages: dialog.Messages{
			Success: "Products deleted successfully",
			Failure: "Failed to delete products",
		},
		Delete: func(ctx context.Context, target string) (*model.Ack, error) {
			ack, err := api.DeleteProducts(ctx, target)
			if err == nil {
				reg.Invalidate(invalidation.TagProducts)
			}
			return ack, err
		},
	})

	w.productSearch = pagination.NewDebouncer(cfg.searchDebounce, w.applyProductSearch)

	w.chat = chat.NewReconciler(api, chat.Options{
		TenantID:        tenantID,
		HistoryPageSize: cfg.historyPageSize,
		Publisher:       publisher,
		Logger:          log,
	})

	return w
}

// TenantID returns the workspace's tenant.
func (w *Workspace) TenantID() string {
	return w.tenantID
}

// Chat returns the tenant's conversation reconciler.
func (w *Workspace) Chat() *chat.Reconciler {
	return w.chat
}

// Close stops pending debounced work.
func (w *Workspace) Close() {
	w.closeOnce.Do(w.productSearch.Stop)
}

// Pagination returns the state of a named list: "faq-links" or "products".
func (w *Workspace) Pagination(list string) (pagination.State, error) {
	switch list {
	case ListFAQLinks:
		return w.faqLinks.State(), nil
	case ListProducts:
		return w.products.State(), nil
	default:
		return pagination.State{}, ErrUnknownList
	}
}

// List names accepted by Pagination and search events.
const (
	ListFAQLinks = "faq-links"
	ListProducts = "products"
)
