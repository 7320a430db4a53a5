package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/capitalize-ai/bot-console/internal/model"
)

// ListSessions handles GET /chat/sessions
func (c *Client) ListSessions(ctx context.Context, tenantID string, page, pageSize int) (*model.Page[model.Session], error) {
	env, err := c.do(ctx, request{
		operation: "list_sessions",
		method:    http.MethodGet,
		path:      "/chat/sessions",
		query:     listQuery(model.ListParams{Page: page, PageSize: pageSize}, map[string]string{"tenant_id": tenantID}),
	})
	if err != nil {
		return nil, err
	}
	return decodePage[model.Session]("list_sessions", env)
}

// SessionMessages handles GET /chat/sessions/{id}/messages
func (c *Client) SessionMessages(ctx context.Context, sessionID string, page, pageSize int) (*model.Page[model.SessionMessage], error) {
	env, err := c.do(ctx, request{
		operation: "session_messages",
		method:    http.MethodGet,
		path:      "/chat/sessions/" + url.PathEscape(sessionID) + "/messages",
		query:     listQuery(model.ListParams{Page: page, PageSize: pageSize}, nil),
	})
	if err != nil {
		return nil, err
	}
	return decodePage[model.SessionMessage]("session_messages", env)
}

// CreateMessage handles POST /chat. An empty sessionID starts a new session.
func (c *Client) CreateMessage(ctx context.Context, req model.ChatRequest, sessionID string) (*model.ChatReply, error) {
	q := url.Values{}
	if sessionID != "" {
		q.Set("session_id", sessionID)
	}
	env, err := c.do(ctx, request{
		operation: "create_message",
		method:    http.MethodPost,
		path:      "/chat",
		query:     q,
		body:      req,
	})
	if err != nil {
		return nil, err
	}
	var reply model.ChatReply
	if err := decodeData("create_message", env, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}
