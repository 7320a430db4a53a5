package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/bot-console/internal/middleware"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/pkg/logger"
)

type recordedInput struct {
	kind, tenantID, a, b string
}

type fakeInput struct {
	mu     sync.Mutex
	inputs []recordedInput
}

func (f *fakeInput) add(in recordedInput) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()
}

func (f *fakeInput) TypeSearch(tenantID, list, text string) error {
	f.add(recordedInput{"type", tenantID, list, text})
	return nil
}

func (f *fakeInput) SubmitSearch(tenantID, list, text string) error {
	f.add(recordedInput{"submit", tenantID, list, text})
	return nil
}

func (f *fakeInput) SelectConversation(tenantID, conversationID string) error {
	if conversationID == "missing" {
		return errors.New("conversation not found")
	}
	f.add(recordedInput{"select", tenantID, conversationID, ""})
	return nil
}

func (f *fakeInput) all() []recordedInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedInput(nil), f.inputs...)
}

type hubEnv struct {
	hub    *Hub
	events chan model.Event
	input  *fakeInput
	url    string
}

func newHubEnv(t *testing.T) *hubEnv {
	t.Helper()
	return newGrantedHubEnv(t, nil)
}

// newGrantedHubEnv serves the hub as an operator holding grants, the way the
// auth middleware stores them.
func newGrantedHubEnv(t *testing.T, grants []string) *hubEnv {
	t.Helper()
	input := &fakeInput{}
	hub := NewHub(input, logger.NewNop())
	events := make(chan model.Event, 8)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx, events)
	t.Cleanup(cancel)

	handler := NewHandler(hub, []string{"http://localhost:3000"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if grants != nil {
			r = r.WithContext(context.WithValue(r.Context(), middleware.TenantsKey, grants))
		}
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return &hubEnv{hub: hub, events: events, input: input, url: "ws" + strings.TrimPrefix(srv.URL, "http")}
}

func (e *hubEnv) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	before := e.hub.Count()
	conn, _, err := websocket.DefaultDialer.Dial(e.url+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return e.hub.Count() == before+1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) model.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var e model.Event
	require.NoError(t, conn.ReadJSON(&e))
	return e
}

func TestHubFiltersByTenant(t *testing.T) {
	env := newHubEnv(t)
	scoped := env.dial(t, "?tenant_id=t1")
	global := env.dial(t, "")

	env.events <- model.Event{Type: model.EventMessageConfirmed, TenantID: "t2"}
	env.events <- model.Event{Type: model.EventInvalidated}
	env.events <- model.Event{Type: model.EventMessageConfirmed, TenantID: "t1"}

	assert.Equal(t, model.EventInvalidated, readEvent(t, scoped).Type)
	e := readEvent(t, scoped)
	assert.Equal(t, model.EventMessageConfirmed, e.Type)
	assert.Equal(t, "t1", e.TenantID)

	assert.Equal(t, "t2", readEvent(t, global).TenantID)
	assert.Equal(t, model.EventInvalidated, readEvent(t, global).Type)
	assert.Equal(t, "t1", readEvent(t, global).TenantID)
}

func TestHubDispatchesInput(t *testing.T) {
	env := newHubEnv(t)
	conn := env.dial(t, "?tenant_id=t1")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "search.type", "data": map[string]string{"list": "products", "text": "boo"}}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "search.submit", "data": map[string]string{"list": "products", "text": "boots"}}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "conversation.select", "data": map[string]string{"conversation_id": "S1"}}))

	require.Eventually(t, func() bool { return len(env.input.all()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []recordedInput{
		{"type", "t1", "products", "boo"},
		{"submit", "t1", "products", "boots"},
		{"select", "t1", "S1", ""},
	}, env.input.all())
}

func TestHubRepliesWithErrors(t *testing.T) {
	env := newHubEnv(t)
	conn := env.dial(t, "?tenant_id=t1")

	tests := []struct {
		msg  string
		code string
	}{
		{`not json`, "bad_message"},
		{`{"type":"orders.refresh"}`, "unknown_type"},
		{`{"type":"conversation.select","data":{"conversation_id":"missing"}}`, "rejected"},
	}

	for _, tt := range tests {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.msg)))
		e := readEvent(t, conn)
		assert.Equal(t, model.EventType("error"), e.Type)
		raw, err := json.Marshal(e.Data)
		require.NoError(t, err)
		var errEvent model.ErrorEvent
		require.NoError(t, json.Unmarshal(raw, &errEvent))
		assert.Equal(t, tt.code, errEvent.Code, tt.msg)
	}
}

func TestUnscopedClientCannotSendInput(t *testing.T) {
	env := newHubEnv(t)
	conn := env.dial(t, "")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "search.type", "data": map[string]string{"list": "products", "text": "x"}}))

	e := readEvent(t, conn)
	assert.Equal(t, model.EventType("error"), e.Type)
	assert.Empty(t, env.input.all())
}

func TestHubDropsClosedClients(t *testing.T) {
	env := newHubEnv(t)
	conn := env.dial(t, "?tenant_id=t1")

	conn.Close()

	require.Eventually(t, func() bool { return env.hub.Count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000", "https://*"})

	for origin, want := range map[string]bool{
		"":                        true,
		"http://localhost:3000":   true,
		"https://admin.acme.com":  true,
		"http://evil.example.com": false,
	} {
		req := httptest.NewRequest("GET", "/ws", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		assert.Equal(t, want, check(req), origin)
	}
}

func TestHandlerRejectsBadTenant(t *testing.T) {
	env := newHubEnv(t)

	_, resp, err := websocket.DefaultDialer.Dial(env.url+"?tenant_id="+strings.Repeat("x", 65), nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestScopedOperatorMustNameTenant(t *testing.T) {
	env := newGrantedHubEnv(t, []string{"t1"})

	for query, want := range map[string]int{
		"":              http.StatusForbidden,
		"?tenant_id=t2": http.StatusForbidden,
	} {
		_, resp, err := websocket.DefaultDialer.Dial(env.url+query, nil)
		require.Error(t, err, query)
		require.NotNil(t, resp, query)
		assert.Equal(t, want, resp.StatusCode, query)
	}
	assert.Zero(t, env.hub.Count())
}

func TestScopedOperatorOnlySeesGrantedTenant(t *testing.T) {
	env := newGrantedHubEnv(t, []string{"t1"})
	conn := env.dial(t, "?tenant_id=t1")

	env.events <- model.Event{Type: model.EventMessageConfirmed, TenantID: "t2", Data: "t2 chat"}
	env.events <- model.Event{Type: model.EventMessageConfirmed, TenantID: "t1", Data: "t1 chat"}

	e := readEvent(t, conn)
	assert.Equal(t, "t1", e.TenantID)
	assert.Equal(t, "t1 chat", e.Data)
}

func TestDispatchRefusesClientWithoutTenant(t *testing.T) {
	input := &fakeInput{}
	hub := NewHub(input, logger.NewNop())

	errEvent := hub.dispatch(&Client{hub: hub}, []byte(`{"type":"search.type","data":{"list":"products","text":"x"}}`))

	require.NotNil(t, errEvent)
	assert.Equal(t, "no_tenant", errEvent.Code)
	assert.Empty(t, input.all())
}
