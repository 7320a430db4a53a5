package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/bot-console/internal/apiclient"
	"github.com/capitalize-ai/bot-console/internal/model"
)

type createCall struct {
	req       model.ChatRequest
	sessionID string
}

// fakeAPI answers CreateMessage from a queue of replies and serves a fixed
// session history.
type fakeAPI struct {
	mu       sync.Mutex
	calls    []createCall
	replies  []func() (*model.ChatReply, error)
	gate     chan struct{}
	history  map[string][]model.SessionMessage
	pages    []int
	histErr  error
	histGate chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{history: make(map[string][]model.SessionMessage)}
}

func (f *fakeAPI) reply(sessionID, messageID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, func() (*model.ChatReply, error) {
		return &model.ChatReply{SessionID: sessionID, MessageID: messageID, Response: text}, nil
	})
}

func (f *fakeAPI) failWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, func() (*model.ChatReply, error) { return nil, err })
}

func (f *fakeAPI) CreateMessage(_ context.Context, req model.ChatRequest, sessionID string) (*model.ChatReply, error) {
	f.mu.Lock()
	f.calls = append(f.calls, createCall{req: req, sessionID: sessionID})
	gate := f.gate
	var next func() (*model.ChatReply, error)
	if len(f.replies) > 0 {
		next = f.replies[0]
		f.replies = f.replies[1:]
	}
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if next == nil {
		return nil, errors.New("no reply queued")
	}
	return next()
}

func (f *fakeAPI) SessionMessages(_ context.Context, sessionID string, page, pageSize int) (*model.Page[model.SessionMessage], error) {
	f.mu.Lock()
	f.pages = append(f.pages, page)
	all := f.history[sessionID]
	err := f.histErr
	gate := f.histGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	start := (page - 1) * pageSize
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return &model.Page[model.SessionMessage]{
		Items: append([]model.SessionMessage{}, all[start:end]...),
		Meta:  model.Meta{TotalItems: len(all)},
	}, nil
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type eventLog struct {
	mu     sync.Mutex
	events []model.Event
}

func (l *eventLog) Publish(e model.Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) types() []model.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func (l *eventLog) find(t model.EventType) (model.Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e.Type == t {
			return e, true
		}
	}
	return model.Event{}, false
}

func newTestReconciler(api API, pub *eventLog) *Reconciler {
	opts := Options{TenantID: "t1", HistoryPageSize: 2}
	if pub != nil {
		opts.Publisher = pub
	}
	return NewReconciler(api, opts)
}

func wait(t *testing.T, s *Send) (*model.ChatReply, error) {
	t.Helper()
	require.NotNil(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.Wait(ctx)
}

func pairs(n int) []model.SessionMessage {
	out := make([]model.SessionMessage, n)
	for i := range out {
		out[i] = model.SessionMessage{
			ID:        fmt.Sprintf("pair-%d", i),
			UserQuery: fmt.Sprintf("question %d", i),
			Response:  fmt.Sprintf("answer %d", i),
		}
	}
	return out
}

func TestCreateConversationWithoutText(t *testing.T) {
	pub := &eventLog{}
	r := newTestReconciler(newFakeAPI(), pub)

	conv, send := r.CreateConversation(context.Background(), "  ")

	assert.Nil(t, send)
	assert.True(t, strings.HasPrefix(conv.ID, TempConversationPrefix))
	assert.Equal(t, model.DefaultConversationName, conv.Name)
	assert.Equal(t, "t1", conv.TenantID)
	assert.Equal(t, conv.ID, r.ActiveID())
	assert.Len(t, r.List(), 1)
	assert.Equal(t, []model.EventType{model.EventConversationCreated}, pub.types())
}

func TestNewConversationsGoFirst(t *testing.T) {
	r := newTestReconciler(newFakeAPI(), nil)

	first, _ := r.CreateConversation(context.Background(), "")
	second, _ := r.CreateConversation(context.Background(), "")

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestFirstSendMigratesConversationToSession(t *testing.T) {
	api := newFakeAPI()
	api.reply("S1", "m1", "We ship worldwide.")
	pub := &eventLog{}
	r := newTestReconciler(api, pub)

	conv, send := r.CreateConversation(context.Background(), "Do you ship to Canada and Mexico?")

	assert.Equal(t, "Do you ship to...", conv.Name)
	require.Len(t, conv.Messages, 1)
	assert.True(t, strings.HasPrefix(conv.Messages[0].ID, model.TempMessagePrefix))

	reply, err := wait(t, send)
	require.NoError(t, err)
	assert.Equal(t, "S1", reply.SessionID)

	_, ok := r.Get(conv.ID)
	assert.False(t, ok, "temporary id is gone after confirmation")

	got, ok := r.Get("S1")
	require.True(t, ok)
	assert.Equal(t, "S1", got.SessionID)
	assert.Equal(t, "S1", r.ActiveID())
	assert.False(t, got.Sending)
	assert.Equal(t, "We ship worldwide.", got.LastMessage)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, model.Message{ID: "m1", Type: model.MessageOutgoing, Text: "Do you ship to Canada and Mexico?", Timestamp: got.Messages[0].Timestamp}, got.Messages[0])
	assert.Equal(t, "m1:response", got.Messages[1].ID)
	assert.Equal(t, model.MessageIncoming, got.Messages[1].Type)

	assert.Equal(t, "S1", send.Conversation().ID)

	confirmed, ok := pub.find(model.EventConversationConfirmed)
	require.True(t, ok)
	assert.Equal(t, conv.ID, confirmed.PreviousID)
	assert.Equal(t, "S1", confirmed.ConversationID)
	assert.Equal(t, "t1", confirmed.TenantID)

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.calls, 1)
	assert.Empty(t, api.calls[0].sessionID)
	assert.Equal(t, model.ChatRequest{UserQuery: "Do you ship to Canada and Mexico?", TenantID: "t1"}, api.calls[0].req)
}

func TestFollowUpUsesSession(t *testing.T) {
	api := newFakeAPI()
	api.reply("S1", "m1", "a1")
	api.reply("S1", "m2", "a2")
	r := newTestReconciler(api, nil)

	_, send := r.CreateConversation(context.Background(), "q1")
	_, err := wait(t, send)
	require.NoError(t, err)

	send, err = r.SendMessage(context.Background(), "S1", "q2", "")
	require.NoError(t, err)
	_, err = wait(t, send)
	require.NoError(t, err)

	got, _ := r.Get("S1")
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "q1", got.Name)
	assert.Equal(t, []string{"m1", "m1:response", "m2", "m2:response"}, messageIDs(got))

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, "S1", api.calls[1].sessionID)
}

func messageIDs(c model.Conversation) []string {
	out := make([]string, len(c.Messages))
	for i, m := range c.Messages {
		out[i] = m.ID
	}
	return out
}

func TestSendFailureReplacesOptimisticMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message", &apiclient.Error{Kind: apiclient.KindBusiness, Status: 400, Message: "Tenant index not ready"}, "Tenant index not ready"},
		{"transport failure", errors.New("connection reset"), SendFailedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.reply("S1", "m1", "a1")
			api.failWith(tt.err)
			pub := &eventLog{}
			r := newTestReconciler(api, pub)

			_, send := r.CreateConversation(context.Background(), "q1")
			_, err := wait(t, send)
			require.NoError(t, err)
			before, _ := r.Get("S1")

			send, err = r.SendMessage(context.Background(), "S1", "q2", "")
			require.NoError(t, err)
			_, err = wait(t, send)
			require.Error(t, err)

			after, _ := r.Get("S1")
			assert.Len(t, after.Messages, len(before.Messages)+1)
			last := after.Messages[len(after.Messages)-1]
			assert.Equal(t, model.MessageError, last.Type)
			assert.Equal(t, tt.want, last.Text)
			assert.True(t, strings.HasPrefix(last.ID, "err-"))
			for _, m := range after.Messages {
				assert.False(t, strings.HasPrefix(m.ID, model.TempMessagePrefix))
			}
			assert.False(t, after.Sending)

			_, ok := pub.find(model.EventMessageFailed)
			assert.True(t, ok)
		})
	}
}

func TestFailedFirstSendKeepsConversation(t *testing.T) {
	api := newFakeAPI()
	api.failWith(errors.New("down"))
	r := newTestReconciler(api, nil)

	conv, send := r.CreateConversation(context.Background(), "hello")
	_, err := wait(t, send)
	require.Error(t, err)

	got, ok := r.Get(conv.ID)
	require.True(t, ok)
	assert.False(t, got.Confirmed())
	require.Len(t, got.Messages, 1)
	assert.Equal(t, model.MessageError, got.Messages[0].Type)
}

func TestSendRejectsEmptyText(t *testing.T) {
	r := newTestReconciler(newFakeAPI(), nil)
	conv, _ := r.CreateConversation(context.Background(), "")

	_, err := r.SendMessage(context.Background(), conv.ID, " \n ", "")

	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestSendUnknownConversation(t *testing.T) {
	r := newTestReconciler(newFakeAPI(), nil)

	_, err := r.SendMessage(context.Background(), "missing", "hi", "")

	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestOneSendInFlightPerConversation(t *testing.T) {
	api := newFakeAPI()
	api.gate = make(chan struct{})
	api.reply("S1", "m1", "a1")
	r := newTestReconciler(api, nil)

	conv, send := r.CreateConversation(context.Background(), "q1")
	got, _ := r.Get(conv.ID)
	assert.True(t, got.Sending)

	_, err := r.SendMessage(context.Background(), conv.ID, "q2", "")
	assert.ErrorIs(t, err, ErrSendInFlight)

	close(api.gate)
	_, err = wait(t, send)
	require.NoError(t, err)
	assert.Equal(t, 1, api.callCount())
}

func TestCallerCancellationDoesNotAbortSend(t *testing.T) {
	api := newFakeAPI()
	api.gate = make(chan struct{})
	api.reply("S1", "m1", "a1")
	r := newTestReconciler(api, nil)

	ctx, cancel := context.WithCancel(context.Background())
	_, send := r.CreateConversation(ctx, "q1")
	cancel()

	waitCtx, stop := context.WithCancel(context.Background())
	stop()
	_, err := send.Wait(waitCtx)
	assert.ErrorIs(t, err, context.Canceled)

	close(api.gate)
	_, err = wait(t, send)
	require.NoError(t, err)
	_, ok := r.Get("S1")
	assert.True(t, ok)
}

func TestDiscardDropsLateReply(t *testing.T) {
	api := newFakeAPI()
	api.gate = make(chan struct{})
	api.reply("S1", "m1", "a1")
	pub := &eventLog{}
	r := newTestReconciler(api, pub)

	conv, send := r.CreateConversation(context.Background(), "q1")
	require.NoError(t, r.DiscardConversation(conv.ID))
	assert.Empty(t, r.ActiveID())

	close(api.gate)
	_, err := wait(t, send)

	assert.ErrorIs(t, err, ErrConversationDiscarded)
	assert.Empty(t, r.List())
	_, ok := pub.find(model.EventConversationConfirmed)
	assert.False(t, ok)
	assert.ErrorIs(t, r.DiscardConversation(conv.ID), ErrConversationNotFound)
}

func TestSelectConversation(t *testing.T) {
	pub := &eventLog{}
	r := newTestReconciler(newFakeAPI(), pub)
	first, _ := r.CreateConversation(context.Background(), "")
	r.CreateConversation(context.Background(), "")

	require.NoError(t, r.SelectConversation(first.ID))
	assert.Equal(t, first.ID, r.ActiveID())
	active, ok := r.Active()
	require.True(t, ok)
	assert.Equal(t, first.ID, active.ID)

	selected, ok := pub.find(model.EventConversationSelected)
	require.True(t, ok)
	assert.Equal(t, first.ID, selected.ConversationID)

	assert.ErrorIs(t, r.SelectConversation("nope"), ErrConversationNotFound)
	assert.Equal(t, first.ID, r.ActiveID())
}

func TestLoadMessagesAdoptsSession(t *testing.T) {
	api := newFakeAPI()
	api.history["S9"] = pairs(5)
	r := newTestReconciler(api, nil)

	conv, err := r.LoadMessages(context.Background(), "S9")

	require.NoError(t, err)
	assert.Equal(t, "S9", conv.ID)
	assert.Equal(t, "S9", conv.SessionID)
	assert.True(t, conv.Loaded)
	assert.Equal(t, "question 0", conv.Name)
	assert.Equal(t, "answer 4", conv.LastMessage)
	require.Len(t, conv.Messages, 10)
	assert.Equal(t, "pair-0", conv.Messages[0].ID)
	assert.Equal(t, model.MessageOutgoing, conv.Messages[0].Type)
	assert.Equal(t, "pair-0:response", conv.Messages[1].ID)
	assert.Equal(t, model.MessageIncoming, conv.Messages[1].Type)

	api.mu.Lock()
	assert.Equal(t, []int{1, 2, 3}, api.pages)
	api.mu.Unlock()

	_, ok := r.Get("S9")
	assert.True(t, ok)
}

func TestLoadMessagesReplacesExistingList(t *testing.T) {
	api := newFakeAPI()
	api.reply("S1", "m1", "a1")
	api.history["S1"] = pairs(2)
	r := newTestReconciler(api, nil)
	_, send := r.CreateConversation(context.Background(), "q1")
	_, err := wait(t, send)
	require.NoError(t, err)

	conv, err := r.LoadMessages(context.Background(), "S1")

	require.NoError(t, err)
	assert.Equal(t, []string{"pair-0", "pair-0:response", "pair-1", "pair-1:response"}, messageIDs(conv))
	assert.Equal(t, "q1", conv.Name)
	assert.Len(t, r.List(), 1)
}

func TestLoadMessagesFailureLeavesStateAlone(t *testing.T) {
	api := newFakeAPI()
	api.histErr = errors.New("boom")
	r := newTestReconciler(api, nil)

	_, err := r.LoadMessages(context.Background(), "S1")

	assert.Error(t, err)
	assert.Empty(t, r.List())
}

func TestListReturnsCopies(t *testing.T) {
	r := newTestReconciler(newFakeAPI(), nil)
	r.CreateConversation(context.Background(), "")

	list := r.List()
	list[0].Name = "mutated"

	assert.Equal(t, model.DefaultConversationName, r.List()[0].Name)
}

func TestTrackSession(t *testing.T) {
	api := newFakeAPI()
	pub := &eventLog{}
	r := newTestReconciler(api, pub)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	conv, err := r.TrackSession(model.Session{SessionID: "S1", Title: "Shipping times", CreatedAt: model.Timestamp{Time: created}})

	require.NoError(t, err)
	assert.Equal(t, "S1", conv.ID)
	assert.True(t, conv.Confirmed())
	assert.False(t, conv.Loaded)
	assert.Equal(t, "Shipping times", conv.Name)
	assert.Equal(t, created, conv.CreatedAt)
	assert.Empty(t, r.ActiveID())
	assert.Equal(t, []model.EventType{model.EventConversationCreated}, pub.types())

	again, err := r.TrackSession(model.Session{SessionID: "S1", Title: "other"})
	require.NoError(t, err)
	assert.Equal(t, "Shipping times", again.Name)
	assert.Len(t, r.List(), 1)
	assert.Len(t, pub.types(), 1)

	_, err = r.TrackSession(model.Session{})
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestTrackSessionKeepsConfirmedConversation(t *testing.T) {
	api := newFakeAPI()
	api.reply("S1", "m1", "a1")
	r := newTestReconciler(api, nil)
	_, send := r.CreateConversation(context.Background(), "q1")
	_, err := wait(t, send)
	require.NoError(t, err)

	conv, err := r.TrackSession(model.Session{SessionID: "S1"})

	require.NoError(t, err)
	assert.True(t, conv.Loaded)
	assert.Len(t, conv.Messages, 2)
	assert.Len(t, r.List(), 1)
}

func TestLoadMessagesNamesTrackedSession(t *testing.T) {
	api := newFakeAPI()
	api.history["S1"] = pairs(1)
	r := newTestReconciler(api, nil)
	_, err := r.TrackSession(model.Session{SessionID: "S1"})
	require.NoError(t, err)

	conv, err := r.LoadMessages(context.Background(), "S1")

	require.NoError(t, err)
	assert.Equal(t, "question 0", conv.Name)
	assert.True(t, conv.Loaded)
}
