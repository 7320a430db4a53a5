package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/capitalize-ai/bot-console/internal/model"
)

// ListProducts handles GET /products
func (c *Client) ListProducts(ctx context.Context, tenantID string, params model.ListParams) (*model.Page[model.Product], error) {
	env, err := c.do(ctx, request{
		operation: "list_products",
		method:    http.MethodGet,
		path:      "/products",
		query:     listQuery(params, map[string]string{"tenant_id": tenantID}),
	})
	if err != nil {
		return nil, err
	}
	return decodePage[model.Product]("list_products", env)
}

// FetchProductFeed handles POST /products/fetch-product-feed/
func (c *Client) FetchProductFeed(ctx context.Context, tenantID string, feed model.ProductFeedRequest) (*model.Ack, error) {
	env, err := c.do(ctx, request{
		operation: "fetch_product_feed",
		method:    http.MethodPost,
		path:      "/products/fetch-product-feed/",
		query:     url.Values{"tenant_id": {tenantID}},
		body:      feed,
	})
	if err != nil {
		return nil, err
	}
	return ack(env), nil
}

// DeleteProducts handles DELETE /products/delete-products/
func (c *Client) DeleteProducts(ctx context.Context, tenantID string) (*model.Ack, error) {
	env, err := c.do(ctx, request{
		operation: "delete_products",
		method:    http.MethodDelete,
		path:      "/products/delete-products/",
		query:     url.Values{"tenant_id": {tenantID}},
	})
	if err != nil {
		return nil, err
	}
	return ack(env), nil
}

// SearchProducts handles GET /products/search
func (c *Client) SearchProducts(ctx context.Context, tenantID, query string) ([]model.Product, error) {
	env, err := c.do(ctx, request{
		operation: "search_products",
		method:    http.MethodGet,
		path:      "/products/search",
		query:     listQuery(model.ListParams{}, map[string]string{"tenant_id": tenantID, "user_query": query}),
	})
	if err != nil {
		return nil, err
	}
	results := []model.Product{}
	if err := decodeData("search_products", env, &results); err != nil {
		return nil, err
	}
	return results, nil
}
