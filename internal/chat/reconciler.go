// Package chat keeps console conversations consistent across optimistic
// sends, server confirmations, failures and history loads.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/bot-console/internal/apiclient"
	"github.com/capitalize-ai/bot-console/internal/events"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/pkg/logger"
	"github.com/capitalize-ai/bot-console/pkg/metrics"
)

// TempConversationPrefix marks conversations the server has not confirmed.
const TempConversationPrefix = "tmp-conv-"

// SendFailedMessage is the error message text used when the server gives none.
const SendFailedMessage = "Failed to send message. Please try again."

var (
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrConversationDiscarded = errors.New("conversation was discarded before the reply arrived")
	ErrSendInFlight          = errors.New("a message is already being sent in this conversation")
	ErrEmptyMessage          = errors.New("message text is empty")
)

// API is the part of the remote chatbot API the reconciler talks to.
type API interface {
	CreateMessage(ctx context.Context, req model.ChatRequest, sessionID string) (*model.ChatReply, error)
	SessionMessages(ctx context.Context, sessionID string, page, pageSize int) (*model.Page[model.SessionMessage], error)
}

// Options configure a Reconciler.
type Options struct {
	TenantID        string
	HistoryPageSize int
	Publisher       events.Publisher
	Logger          *logger.Logger
}

// Reconciler owns the conversation list of one tenant. Every mutation
// replaces the list under a single lock.
type Reconciler struct {
	api       API
	tenantID  string
	pageSize  int
	publisher events.Publisher
	logger    *logger.Logger
	now       func() time.Time

	mu            sync.Mutex
	conversations []model.Conversation
	activeID      string
}

// NewReconciler creates an empty reconciler for a tenant.
func NewReconciler(api API, opts Options) *Reconciler {
	if opts.HistoryPageSize <= 0 {
		opts.HistoryPageSize = 50
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Reconciler{
		api:       api,
		tenantID:  opts.TenantID,
		pageSize:  opts.HistoryPageSize,
		publisher: opts.Publisher,
		logger:    log.Component("chat").WithTenant(opts.TenantID),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// TenantID returns the tenant the reconciler serves.
func (r *Reconciler) TenantID() string {
	return r.tenantID
}

// update applies fn to the conversation list under the lock.
func (r *Reconciler) update(fn func([]model.Conversation) []model.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversations = fn(r.conversations)
}

func indexOf(convs []model.Conversation, id string) int {
	for i := range convs {
		if convs[i].ID == id {
			return i
		}
	}
	return -1
}

func replaceAt(convs []model.Conversation, i int, c model.Conversation) []model.Conversation {
	out := make([]model.Conversation, len(convs))
	copy(out, convs)
	out[i] = c
	return out
}

// CreateConversation inserts a pending conversation at the head of the list
// and makes it active. A non-blank text is sent right away with no session;
// the returned Send is nil otherwise.
func (r *Reconciler) CreateConversation(ctx context.Context, text string) (model.Conversation, *Send) {
	now := r.now()
	conv := model.Conversation{
		ID:        TempConversationPrefix + uuid.NewString(),
		TenantID:  r.tenantID,
		Name:      model.DefaultConversationName,
		Messages:  []model.Message{},
		CreatedAt: now,
		UpdatedAt: now,
		Loaded:    true,
	}

	r.update(func(convs []model.Conversation) []model.Conversation {
		r.activeID = conv.ID
		return append([]model.Conversation{conv}, convs...)
	})

	r.publish(model.Event{Type: model.EventConversationCreated, ConversationID: conv.ID, Data: conv})
	r.logger.Debug("conversation created", zap.String("conversation_id", conv.ID))

	if strings.TrimSpace(text) == "" {
		return conv.Clone(), nil
	}

	send, snapshot, err := r.send(ctx, conv.ID, text, "")
	if err != nil {
		r.logger.Warn("initial send rejected", zap.String("conversation_id", conv.ID), zap.Error(err))
		return conv.Clone(), nil
	}
	return snapshot, send
}

// SendMessage appends an optimistic outgoing message and sends it in the
// background. An empty sessionID falls back to the conversation's session.
// In-flight sends are not cancelled with ctx.
func (r *Reconciler) SendMessage(ctx context.Context, conversationID, text, sessionID string) (*Send, error) {
	send, _, err := r.send(ctx, conversationID, text, sessionID)
	return send, err
}

// send also returns the conversation as it stood with the optimistic message.
func (r *Reconciler) send(ctx context.Context, conversationID, text, sessionID string) (*Send, model.Conversation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, model.Conversation{}, ErrEmptyMessage
	}

	now := r.now()
	optimistic := model.Message{
		ID:        model.TempMessagePrefix + uuid.NewString(),
		Type:      model.MessageOutgoing,
		Text:      text,
		Timestamp: now,
	}

	var (
		errSend  error
		snapshot model.Conversation
	)
	r.update(func(convs []model.Conversation) []model.Conversation {
		i := indexOf(convs, conversationID)
		if i < 0 {
			errSend = ErrConversationNotFound
			return convs
		}
		conv := convs[i].Clone()
		if conv.Sending {
			errSend = ErrSendInFlight
			return convs
		}
		if sessionID == "" {
			sessionID = conv.SessionID
		}
		if conv.Name == model.DefaultConversationName && len(conv.Messages) == 0 {
			conv.Name = model.ConversationName(text)
		}
		conv.Messages = append(conv.Messages, optimistic)
		conv.Sending = true
		conv.UpdatedAt = now
		snapshot = conv.Clone()
		return replaceAt(convs, i, conv)
	})
	if errSend != nil {
		return nil, model.Conversation{}, errSend
	}

	r.publish(model.Event{Type: model.EventMessageOptimistic, ConversationID: conversationID, Data: optimistic})

	send := &Send{
		ConversationID: conversationID,
		MessageID:      optimistic.ID,
		SessionID:      sessionID,
		done:           make(chan struct{}),
	}
	go r.deliver(context.WithoutCancel(ctx), send, text)
	return send, snapshot, nil
}

func (r *Reconciler) deliver(ctx context.Context, send *Send, text string) {
	defer close(send.done)

	start := time.Now()
	reply, err := r.api.CreateMessage(ctx, model.ChatRequest{UserQuery: text, TenantID: r.tenantID}, send.SessionID)
	if err != nil {
		r.fail(send, err)
		r.logger.Warn("send failed",
			zap.String("conversation_id", send.ConversationID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	r.confirm(send, reply)
}

func (r *Reconciler) confirm(send *Send, reply *model.ChatReply) {
	now := r.now()
	ts := reply.Timestamp.Time
	if ts.IsZero() {
		ts = now
	}
	messageID := reply.MessageID
	if messageID == "" {
		messageID = uuid.NewString()
	}

	var (
		found    bool
		migrated bool
		prevID   string
		result   model.Conversation
	)
	r.update(func(convs []model.Conversation) []model.Conversation {
		i := indexOf(convs, send.ConversationID)
		if i < 0 {
			return convs
		}
		found = true
		conv := convs[i].Clone()

		var outgoing model.Message
		kept := make([]model.Message, 0, len(conv.Messages)+1)
		for _, m := range conv.Messages {
			if m.ID == send.MessageID {
				outgoing = m
				continue
			}
			kept = append(kept, m)
		}
		if outgoing.ID == "" {
			outgoing = model.Message{Type: model.MessageOutgoing, Text: reply.UserQuery, Timestamp: now}
		}
		outgoing.ID = messageID
		incoming := model.Message{
			ID:        model.ResponseMessageID(messageID),
			Type:      model.MessageIncoming,
			Text:      reply.Response,
			Timestamp: ts,
			Products:  append([]model.ProductSummary(nil), reply.Products...),
		}
		conv.Messages = append(kept, outgoing, incoming)

		if conv.SessionID == "" && reply.SessionID != "" {
			conv.SessionID = reply.SessionID
		}
		if strings.HasPrefix(conv.ID, TempConversationPrefix) && reply.SessionID != "" {
			prevID = conv.ID
			conv.ID = reply.SessionID
			migrated = true
			if r.activeID == prevID {
				r.activeID = conv.ID
			}
		}
		conv.LastMessage = reply.Response
		conv.UpdatedAt = now
		conv.Sending = false
		result = conv.Clone()
		return replaceAt(convs, i, conv)
	})

	send.reply = reply
	if !found {
		send.err = ErrConversationDiscarded
		metrics.ChatSendsTotal.WithLabelValues("dropped").Inc()
		r.logger.Warn("dropping reply for discarded conversation",
			zap.String("conversation_id", send.ConversationID),
			zap.String("session_id", reply.SessionID),
		)
		return
	}
	send.conversation = result
	metrics.ChatSendsTotal.WithLabelValues("success").Inc()

	if migrated {
		metrics.SessionMigrations.Inc()
		r.publish(model.Event{
			Type:           model.EventConversationConfirmed,
			ConversationID: result.ID,
			PreviousID:     prevID,
			Data:           result,
		})
		r.logger.Info("conversation confirmed",
			zap.String("previous_id", prevID),
			zap.String("session_id", result.SessionID),
		)
	}
	r.publish(model.Event{
		Type:           model.EventMessageConfirmed,
		ConversationID: result.ID,
		Data:           result.Messages[len(result.Messages)-2:],
	})
}

func (r *Reconciler) fail(send *Send, cause error) {
	errMsg := model.Message{
		ID:        "err-" + uuid.NewString(),
		Type:      model.MessageError,
		Text:      apiclient.MessageOf(cause, SendFailedMessage),
		Timestamp: r.now(),
	}

	var (
		found  bool
		result model.Conversation
	)
	r.update(func(convs []model.Conversation) []model.Conversation {
		i := indexOf(convs, send.ConversationID)
		if i < 0 {
			return convs
		}
		found = true
		conv := convs[i].Clone()
		kept := make([]model.Message, 0, len(conv.Messages)+1)
		for _, m := range conv.Messages {
			if strings.HasPrefix(m.ID, model.TempMessagePrefix) {
				continue
			}
			kept = append(kept, m)
		}
		conv.Messages = append(kept, errMsg)
		conv.Sending = false
		conv.UpdatedAt = errMsg.Timestamp
		result = conv.Clone()
		return replaceAt(convs, i, conv)
	})

	send.err = cause
	if !found {
		metrics.ChatSendsTotal.WithLabelValues("dropped").Inc()
		return
	}
	send.conversation = result
	metrics.ChatSendsTotal.WithLabelValues("failure").Inc()
	r.publish(model.Event{Type: model.EventMessageFailed, ConversationID: result.ID, Data: errMsg})
}

// LoadMessages replaces a conversation's messages with the full server
// history of sessionID. A conversation is adopted when none holds the session.
func (r *Reconciler) LoadMessages(ctx context.Context, sessionID string) (model.Conversation, error) {
	if sessionID == "" {
		return model.Conversation{}, fmt.Errorf("load messages: %w", ErrConversationNotFound)
	}

	var pairs []model.SessionMessage
	for page := 1; ; page++ {
		res, err := r.api.SessionMessages(ctx, sessionID, page, r.pageSize)
		if err != nil {
			return model.Conversation{}, fmt.Errorf("load messages for %s: %w", sessionID, err)
		}
		pairs = append(pairs, res.Items...)
		if len(res.Items) == 0 || len(pairs) >= res.Meta.TotalItems {
			break
		}
	}

	history := make([]model.Message, 0, len(pairs)*2)
	for _, p := range pairs {
		q, a := p.Expand()
		history = append(history, q, a)
	}

	now := r.now()
	var (
		result  model.Conversation
		adopted bool
	)
	r.update(func(convs []model.Conversation) []model.Conversation {
		i := -1
		for j := range convs {
			if convs[j].SessionID == sessionID || convs[j].ID == sessionID {
				i = j
				break
			}
		}
		var conv model.Conversation
		if i < 0 {
			adopted = true
			conv = model.Conversation{
				ID:        sessionID,
				TenantID:  r.tenantID,
				SessionID: sessionID,
				Name:      model.DefaultConversationName,
				CreatedAt: now,
			}
			if len(pairs) > 0 {
				conv.Name = model.ConversationName(pairs[0].UserQuery)
				if ts := pairs[0].CreatedAt.Time; !ts.IsZero() {
					conv.CreatedAt = ts
				}
			}
		} else {
			conv = convs[i].Clone()
			if conv.Name == model.DefaultConversationName && len(pairs) > 0 {
				conv.Name = model.ConversationName(pairs[0].UserQuery)
			}
		}

		msgs := make([]model.Message, 0, len(history)+1)
		for _, m := range history {
			msgs = append(msgs, m.Clone())
		}
		if conv.Sending {
			for _, m := range conv.Messages {
				if strings.HasPrefix(m.ID, model.TempMessagePrefix) {
					msgs = append(msgs, m)
				}
			}
		}
		conv.Messages = msgs
		conv.Loaded = true
		if n := len(pairs); n > 0 {
			conv.LastMessage = pairs[n-1].Response
		}
		conv.UpdatedAt = now
		result = conv.Clone()

		if adopted {
			return append(append([]model.Conversation(nil), convs...), conv)
		}
		return replaceAt(convs, i, conv)
	})

	r.publish(model.Event{Type: model.EventConversationLoaded, ConversationID: result.ID, Data: result})
	r.logger.Debug("history loaded",
		zap.String("session_id", sessionID),
		zap.Int("pairs", len(pairs)),
		zap.Bool("adopted", adopted),
	)
	return result, nil
}

// TrackSession lists a server session as a confirmed conversation whose
// history is not loaded yet. The conversation already holding the session is
// returned unchanged.
func (r *Reconciler) TrackSession(s model.Session) (model.Conversation, error) {
	if s.SessionID == "" {
		return model.Conversation{}, fmt.Errorf("track session: %w", ErrConversationNotFound)
	}

	now := r.now()
	var (
		result model.Conversation
		added  bool
	)
	r.update(func(convs []model.Conversation) []model.Conversation {
		for j := range convs {
			if convs[j].SessionID == s.SessionID || convs[j].ID == s.SessionID {
				result = convs[j].Clone()
				return convs
			}
		}
		added = true
		conv := model.Conversation{
			ID:        s.SessionID,
			TenantID:  r.tenantID,
			SessionID: s.SessionID,
			Name:      model.DefaultConversationName,
			Messages:  []model.Message{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if s.Title != "" {
			conv.Name = model.ConversationName(s.Title)
		}
		if ts := s.CreatedAt.Time; !ts.IsZero() {
			conv.CreatedAt = ts
		}
		if ts := s.UpdatedAt.Time; !ts.IsZero() {
			conv.UpdatedAt = ts
		}
		result = conv.Clone()
		return append(append([]model.Conversation(nil), convs...), conv)
	})

	if added {
		r.publish(model.Event{Type: model.EventConversationCreated, ConversationID: result.ID, Data: result})
	}
	return result, nil
}

// SelectConversation makes id the active conversation. It performs no I/O;
// history loading reacts to the published event.
func (r *Reconciler) SelectConversation(id string) error {
	var ok bool
	r.update(func(convs []model.Conversation) []model.Conversation {
		if indexOf(convs, id) >= 0 {
			ok = true
			r.activeID = id
		}
		return convs
	})
	if !ok {
		return ErrConversationNotFound
	}
	r.publish(model.Event{Type: model.EventConversationSelected, ConversationID: id})
	return nil
}

// DiscardConversation removes a conversation. Replies still in flight for it
// are dropped when they arrive.
func (r *Reconciler) DiscardConversation(id string) error {
	var ok bool
	r.update(func(convs []model.Conversation) []model.Conversation {
		i := indexOf(convs, id)
		if i < 0 {
			return convs
		}
		ok = true
		if r.activeID == id {
			r.activeID = ""
		}
		out := make([]model.Conversation, 0, len(convs)-1)
		out = append(out, convs[:i]...)
		return append(out, convs[i+1:]...)
	})
	if !ok {
		return ErrConversationNotFound
	}
	r.publish(model.Event{Type: model.EventConversationDiscarded, ConversationID: id})
	return nil
}

// List returns a snapshot of all conversations, newest first.
func (r *Reconciler) List() []model.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Conversation, len(r.conversations))
	for i, c := range r.conversations {
		out[i] = c.Clone()
	}
	return out
}

// Get returns a snapshot of one conversation.
func (r *Reconciler) Get(id string) (model.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := indexOf(r.conversations, id); i >= 0 {
		return r.conversations[i].Clone(), true
	}
	return model.Conversation{}, false
}

// ActiveID returns the id of the selected conversation, or "".
func (r *Reconciler) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// Active returns the selected conversation.
func (r *Reconciler) Active() (model.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := indexOf(r.conversations, r.activeID); i >= 0 {
		return r.conversations[i].Clone(), true
	}
	return model.Conversation{}, false
}

func (r *Reconciler) publish(e model.Event) {
	if r.publisher == nil {
		return
	}
	e.TenantID = r.tenantID
	r.publisher.Publish(e)
}
