// Package service composes the remote API, caches, dialogs and chat state
// into the console's operations.
package service

import (
	"context"

	"github.com/capitalize-ai/bot-console/internal/chat"
	"github.com/capitalize-ai/bot-console/internal/model"
)

// TenantAPI covers the tenant endpoints.
type TenantAPI interface {
	ListTenants(ctx context.Context, params model.ListParams) (*model.Page[model.Tenant], error)
	GetTenant(ctx context.Context, tenantID string) (*model.Tenant, error)
	CreateTenant(ctx context.Context, in model.TenantInput) (*model.Ack, error)
	UpdateTenant(ctx context.Context, tenantID string, changes map[string]any) (*model.Ack, error)
	DeleteTenant(ctx context.Context, tenantID string) (*model.Ack, error)
}

// FAQAPI covers the FAQ link and FAQ endpoints.
type FAQAPI interface {
	ListFAQLinks(ctx context.Context, tenantID string, params model.ListParams) (*model.Page[model.FAQLink], error)
	CreateFAQLink(ctx context.Context, tenantID string, in model.FAQLinkInput) (*model.Ack, error)
	DeleteFAQLink(ctx context.Context, linkID string) (*model.Ack, error)
	ListFAQs(ctx context.Context, linkID string, params model.ListParams) (*model.Page[model.FAQ], error)
	SearchFAQs(ctx context.Context, tenantID, query string) ([]model.FAQ, error)
}

// ProductAPI covers the product endpoints.
type ProductAPI interface {
	ListProducts(ctx context.Context, tenantID string, params model.ListParams) (*model.Page[model.Product], error)
	FetchProductFeed(ctx context.Context, tenantID string, feed model.ProductFeedRequest) (*model.Ack, error)
	DeleteProducts(ctx context.Context, tenantID string) (*model.Ack, error)
	SearchProducts(ctx context.Context, tenantID, query string) ([]model.Product, error)
}

// SessionAPI covers the chat endpoints.
type SessionAPI interface {
	chat.API
	ListSessions(ctx context.Context, tenantID string, page, pageSize int) (*model.Page[model.Session], error)
}

// API is the whole remote chatbot API. *apiclient.Client implements it.
type API interface {
	TenantAPI
	FAQAPI
	ProductAPI
	SessionAPI
}
