package service

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/dialog"
	"github.com/capitalize-ai/bot-console/internal/invalidation"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/query"
)

// Products returns a page of the tenant's products.
func (w *Workspace) Products(ctx context.Context, q ListQuery) (*ListView[model.Product], error) {
	return fetchList(ctx, w.cache, "products", w.scope, invalidation.TagProducts, w.products, q,
		func(ctx context.Context, p model.ListParams) (*model.Page[model.Product], error) {
			return w.api.ListProducts(ctx, w.tenantID, p)
		})
}

// TypeProductSearch feeds keystrokes into the product search box. The
// search is applied once typing pauses.
func (w *Workspace) TypeProductSearch(text string) {
	w.productSearch.Trigger(text)
}

// SubmitProductSearch applies text right away.
func (w *Workspace) SubmitProductSearch(text string) {
	w.productSearch.Flush(text)
}

func (w *Workspace) applyProductSearch(text string) {
	w.products.SetSearch(text)
	w.logger.Debug("product search applied", zap.String("search", text))
	w.announceSearch(ListProducts, text)
}

func (w *Workspace) announceSearch(list, text string) {
	if w.publisher == nil {
		return
	}
	w.publisher.Publish(model.Event{
		Type:     model.EventSearchApplied,
		TenantID: w.tenantID,
		Data:     model.SearchApplied{List: list, Search: text},
	})
}

// FetchProductFeed runs the product feed dialog. The dialog stays open
// after success so further slices can be requested.
func (w *Workspace) FetchProductFeed(ctx context.Context, feed model.ProductFeedRequest) (dialog.Outcome, model.ProductFeedRequest) {
	if !w.fetchFeed.IsOpen() {
		w.fetchFeed.Open()
	}
	w.fetchFeed.SetForm(feed)
	outcome := w.fetchFeed.Submit(ctx)
	return outcome, w.fetchFeed.Form()
}

// CloseProductFeed closes the product feed dialog.
func (w *Workspace) CloseProductFeed() {
	w.fetchFeed.Close()
}

// RequestProductsDelete opens the delete-all-products confirmation.
func (w *Workspace) RequestProductsDelete() {
	w.deleteProducts.Request(w.tenantID)
}

// CancelProductsDelete closes the delete-all-products confirmation.
func (w *Workspace) CancelProductsDelete() {
	w.deleteProducts.Cancel()
}

// ConfirmProductsDelete deletes every product of the tenant if requested.
func (w *Workspace) ConfirmProductsDelete(ctx context.Context) dialog.Outcome {
	return w.deleteProducts.Confirm(ctx, w.tenantID)
}

// SearchProducts runs a semantic product search for the tenant.
func (w *Workspace) SearchProducts(ctx context.Context, userQuery string) ([]model.Product, error) {
	key := query.Key("product_search", url.Values{"tenant_id": {w.tenantID}, "user_query": {userQuery}})
	return query.Fetch(ctx, w.cache, key, []invalidation.Tag{invalidation.TagProducts},
		func(ctx context.Context) ([]model.Product, error) {
			return w.api.SearchProducts(ctx, w.tenantID, userQuery)
		})
}
