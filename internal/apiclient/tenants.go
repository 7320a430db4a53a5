package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/capitalize-ai/bot-console/internal/model"
)

// ListTenants handles GET /tenants/
func (c *Client) ListTenants(ctx context.Context, params model.ListParams) (*model.Page[model.Tenant], error) {
	env, err := c.do(ctx, request{
		operation: "list_tenants",
		method:    http.MethodGet,
		path:      "/tenants/",
		query:     listQuery(params, nil),
	})
	if err != nil {
		return nil, err
	}
	return decodePage[model.Tenant]("list_tenants", env)
}

// GetTenant handles GET /tenants/{id}
func (c *Client) GetTenant(ctx context.Context, tenantID string) (*model.Tenant, error) {
	env, err := c.do(ctx, request{
		operation: "get_tenant",
		method:    http.MethodGet,
		path:      "/tenants/" + url.PathEscape(tenantID),
	})
	if err != nil {
		return nil, err
	}
	var tenant model.Tenant
	if err := decodeData("get_tenant", env, &tenant); err != nil {
		return nil, err
	}
	return &tenant, nil
}

// CreateTenant handles POST /tenants/
func (c *Client) CreateTenant(ctx context.Context, in model.TenantInput) (*model.Ack, error) {
	env, err := c.do(ctx, request{
		operation: "create_tenant",
		method:    http.MethodPost,
		path:      "/tenants/",
		body:      in,
	})
	if err != nil {
		return nil, err
	}
	return ack(env), nil
}

// UpdateTenant sends only the changed fields of a tenant.
func (c *Client) UpdateTenant(ctx context.Context, tenantID string, changes map[string]any) (*model.Ack, error) {
	env, err := c.do(ctx, request{
		operation: "update_tenant",
		method:    http.MethodPatch,
		path:      "/tenants/" + url.PathEscape(tenantID),
		body:      changes,
	})
	if err != nil {
		return nil, err
	}
	return ack(env), nil
}

// DeleteTenant handles DELETE /tenants/{id}
func (c *Client) DeleteTenant(ctx context.Context, tenantID string) (*model.Ack, error) {
	env, err := c.do(ctx, request{
		operation: "delete_tenant",
		method:    http.MethodDelete,
		path:      "/tenants/" + url.PathEscape(tenantID),
	})
	if err != nil {
		return nil, err
	}
	return ack(env), nil
}
