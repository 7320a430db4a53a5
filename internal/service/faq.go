package service

import (
	"context"
	"net/url"

	"github.com/capitalize-ai/bot-console/internal/dialog"
	"github.com/capitalize-ai/bot-console/internal/invalidation"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/query"
)

// FAQLinks returns a page of the tenant's FAQ links.
func (w *Workspace) FAQLinks(ctx context.Context, q ListQuery) (*ListView[model.FAQLink], error) {
	return fetchList(ctx, w.cache, "faq_links", w.scope, invalidation.TagFAQLinks, w.faqLinks, q,
		func(ctx context.Context, p model.ListParams) (*model.Page[model.FAQLink], error) {
			return w.api.ListFAQLinks(ctx, w.tenantID, p)
		})
}

// ToggleFAQLink expands or collapses a FAQ link and returns whether it is
// now expanded. Other links keep their state.
func (w *Workspace) ToggleFAQLink(linkID string) bool {
	return w.faqs.Toggle(linkID)
}

// FAQLinkExpanded reports whether linkID is expanded.
func (w *Workspace) FAQLinkExpanded(linkID string) bool {
	return w.faqs.Expanded(linkID)
}

// FAQs returns a page of the FAQs under linkID.
func (w *Workspace) FAQs(ctx context.Context, linkID string, q ListQuery) (*ListView[model.FAQ], error) {
	scope := url.Values{"faq_link_id": {linkID}}
	return fetchList(ctx, w.cache, "faqs", scope, invalidation.TagFAQLinks, w.faqs.Controller(linkID), q,
		func(ctx context.Context, p model.ListParams) (*model.Page[model.FAQ], error) {
			return w.api.ListFAQs(ctx, linkID, p)
		})
}

// CreateFAQLink runs the create FAQ link dialog with in as the form and
// returns the form as it stands afterwards.
func (w *Workspace) CreateFAQLink(ctx context.Context, in model.FAQLinkInput) (dialog.Outcome, model.FAQLinkInput) {
	w.createFAQLink.Open()
	w.createFAQLink.SetForm(in)
	outcome := w.createFAQLink.Submit(ctx)
	return outcome, w.createFAQLink.Form()
}

// RequestFAQLinkDelete opens the delete confirmation for linkID.
func (w *Workspace) RequestFAQLinkDelete(linkID string) {
	w.deleteFAQLink.Request(linkID)
}

// CancelFAQLinkDelete closes the FAQ link delete confirmation.
func (w *Workspace) CancelFAQLinkDelete() {
	w.deleteFAQLink.Cancel()
}

// ConfirmFAQLinkDelete deletes linkID if its deletion was requested.
func (w *Workspace) ConfirmFAQLinkDelete(ctx context.Context, linkID string) dialog.Outcome {
	return w.deleteFAQLink.Confirm(ctx, linkID)
}

// SearchFAQs runs a semantic FAQ search for the tenant.
func (w *Workspace) SearchFAQs(ctx context.Context, userQuery string) ([]model.FAQ, error) {
	key := query.Key("faq_search", url.Values{"tenant_id": {w.tenantID}, "user_query": {userQuery}})
	return query.Fetch(ctx, w.cache, key, []invalidation.Tag{invalidation.TagFAQLinks},
		func(ctx context.Context) ([]model.FAQ, error) {
			return w.api.SearchFAQs(ctx, w.tenantID, userQuery)
		})
}
