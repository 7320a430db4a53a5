package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second, Token: "secret"}, logger.NewNop())
	require.NoError(t, err)
	return c
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, logger.NewNop())
	assert.Error(t, err)
}

func TestListTenants(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tenants/", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "10", r.URL.Query().Get("page_size"))
		assert.Equal(t, "acme", r.URL.Query().Get("search"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		writeBody(w, http.StatusOK, `{"success":true,"data":[{"tenant_id":"t1","store_name":"Acme","created_at":"2024-01-02T03:04:05"}],"meta":{"total_items":11}}`)
	})

	page, err := c.ListTenants(context.Background(), model.ListParams{Page: 2, PageSize: 10, Search: "acme"})

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Acme", page.Items[0].StoreName)
	assert.Equal(t, 11, page.Meta.TotalItems)
	assert.Equal(t, 2024, page.Items[0].CreatedAt.Year())
}

func TestListSkipsEmptySearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["search"]
		assert.False(t, ok)
		writeBody(w, http.StatusOK, `{"success":true,"data":null,"meta":{"total_items":0}}`)
	})

	page, err := c.ListFAQLinks(context.Background(), "t1", model.ListParams{Page: 1, PageSize: 10})

	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestCreateFAQLinkSendsJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/faqs/create-faq-link/", r.URL.Path)
		assert.Equal(t, "t1", r.URL.Query().Get("tenant_id"))
		assert.Equal(t, "application/json;charset=UTF-8", r.Header.Get("Content-Type"))

		var in model.FAQLinkInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Shipping", in.Name)

		writeBody(w, http.StatusOK, `{"success":true,"message":"FAQ link created"}`)
	})

	ack, err := c.CreateFAQLink(context.Background(), "t1", model.FAQLinkInput{Name: "Shipping", URL: "https://acme.example.com/shipping"})

	require.NoError(t, err)
	assert.True(t, ack.Success)
	assert.Equal(t, "FAQ link created", ack.Message)
}

func TestUpdateTenantUsesPatch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/tenants/t1", r.URL.Path)
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"store_name": "New"}, body)
		writeBody(w, http.StatusOK, `{"success":true}`)
	})

	_, err := c.UpdateTenant(context.Background(), "t1", map[string]any{"store_name": "New"})
	require.NoError(t, err)
}

func TestBusinessFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"success false", http.StatusOK, `{"success":false,"message":"Tenant already exists"}`, "Tenant already exists"},
		{"error status with message", http.StatusBadRequest, `{"success":false,"message":"Invalid URL"}`, "Invalid URL"},
		{"error status with detail", http.StatusUnprocessableEntity, `{"detail":"store_name is required"}`, "store_name is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeBody(w, tt.status, tt.body)
			})

			_, err := c.CreateTenant(context.Background(), model.TenantInput{StoreName: "Acme"})

			require.Error(t, err)
			assert.True(t, IsBusiness(err))
			assert.Equal(t, tt.want, MessageOf(err, "fallback"))
		})
	}
}

func TestTransportFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusBadGateway, `<html>bad gateway</html>`)
	})

	_, err := c.DeleteTenant(context.Background(), "t1")

	require.Error(t, err)
	assert.False(t, IsBusiness(err))
	assert.Equal(t, "Failed to delete tenant", MessageOf(err, "Failed to delete tenant"))

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "delete_tenant", apiErr.Operation)
}

func TestUnreachableServer(t *testing.T) {
	c, err := New(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, logger.NewNop())
	require.NoError(t, err)

	_, err = c.ListProducts(context.Background(), "t1", model.ListParams{Page: 1, PageSize: 64})

	require.Error(t, err)
	assert.False(t, IsBusiness(err))
}

func TestCreateMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "s-1", r.URL.Query().Get("session_id"))
		var req model.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, model.ChatRequest{UserQuery: "hi", TenantID: "t1"}, req)
		writeBody(w, http.StatusOK, `{"success":true,"data":{"session_id":"s-1","message_id":"m-9","response":"hello","products":[{"product_id":"p1","name":"Boot","price":49.9}]}}`)
	})

	reply, err := c.CreateMessage(context.Background(), model.ChatRequest{UserQuery: "hi", TenantID: "t1"}, "s-1")

	require.NoError(t, err)
	assert.Equal(t, "s-1", reply.SessionID)
	assert.Equal(t, "m-9", reply.MessageID)
	require.Len(t, reply.Products, 1)
	assert.Equal(t, model.Price("49.9"), reply.Products[0].Price)
}

func TestCreateMessageWithoutSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		writeBody(w, http.StatusOK, `{"success":true,"data":{"session_id":"new","response":"hello"}}`)
	})

	reply, err := c.CreateMessage(context.Background(), model.ChatRequest{UserQuery: "hi", TenantID: "t1"}, "")

	require.NoError(t, err)
	assert.Equal(t, "new", reply.SessionID)
}

func TestSearchFAQs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/faqs/search", r.URL.Path)
		assert.Equal(t, "returns", r.URL.Query().Get("user_query"))
		assert.Equal(t, "t1", r.URL.Query().Get("tenant_id"))
		writeBody(w, http.StatusOK, `{"success":true,"data":[{"id":"f1","question":"Returns?","answer":"30 days","relevance_score":0.92}]}`)
	})

	faqs, err := c.SearchFAQs(context.Background(), "t1", "returns")

	require.NoError(t, err)
	require.Len(t, faqs, 1)
	assert.InDelta(t, 0.92, faqs[0].RelevanceScore, 1e-9)
}

func TestPing(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page_size"))
		writeBody(w, http.StatusOK, `{"success":true,"data":[],"meta":{"total_items":0}}`)
	})

	assert.NoError(t, c.Ping(context.Background()))
}
