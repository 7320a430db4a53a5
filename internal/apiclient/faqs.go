package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/capitalize-ai/bot-console/internal/model"
)

// ListFAQLinks handles GET /faqs/faq-links/
func (c *Client) ListFAQLinks(ctx context.Context, tenantID string, params model.ListParams) (*model.Page[model.FAQLink], error) {
	env, err := c.do(ctx, request{
		operation: "list_faq_links",
		method:    http.MethodGet,
		path:      "/faqs/faq-links/",
		query:     listQuery(params, map[string]string{"tenant_id": tenantID}),
	})
	if err != nil {
		return nil, err
	}
	return decodePage[model.FAQLink]("list_faq_links", env)
}

// CreateFAQLink handles POST /faqs/create-faq-link/
func (c *Client) CreateFAQLink(ctx context.Context, tenantID string, in model.FAQLinkInput) (*model.Ack, error) {
	env, err := c.do(ctx, request{
		operation: "create_faq_link",
		method:    http.MethodPost,
		path:      "/faqs/create-faq-link/",
		query:     url.Values{"tenant_id": {tenantID}},
		body:      in,
	})
	if err != nil {
		return nil, err
	}
	return ack(env), nil
}

// DeleteFAQLink handles DELETE /faqs/delete-faq-link/
func (c *Client) DeleteFAQLink(ctx context.Context, linkID string) (*model.Ack, error) {
	env, err := c.do(ctx, request{
		operation: "delete_faq_link",
		method:    http.MethodDelete,
		path:      "/faqs/delete-faq-link/",
		query:     url.Values{"faq_link_id": {linkID}},
	})
	if err != nil {
		return nil, err
	}
	return ack(env), nil
}

// ListFAQs handles GET /faqs/
func (c *Client) ListFAQs(ctx context.Context, linkID string, params model.ListParams) (*model.Page[model.FAQ], error) {
	env, err := c.do(ctx, request{
		operation: "list_faqs",
		method:    http.MethodGet,
		path:      "/faqs/",
		query:     listQuery(params, map[string]string{"faq_link_id": linkID}),
	})
	if err != nil {
		return nil, err
	}
	return decodePage[model.FAQ]("list_faqs", env)
}

// SearchFAQs handles GET /faqs/search
func (c *Client) SearchFAQs(ctx context.Context, tenantID, query string) ([]model.FAQ, error) {
	env, err := c.do(ctx, request{
		operation: "search_faqs",
		method:    http.MethodGet,
		path:      "/faqs/search",
		query:     listQuery(model.ListParams{}, map[string]string{"tenant_id": tenantID, "user_query": query}),
	})
	if err != nil {
		return nil, err
	}
	results := []model.FAQ{}
	if err := decodeData("search_faqs", env, &results); err != nil {
		return nil, err
	}
	return results, nil
}
