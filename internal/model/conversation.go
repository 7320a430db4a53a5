package model

import (
	"strings"
	"time"
)

// DefaultConversationName is used until the first user message names a
// conversation.
const DefaultConversationName = "New Conversation"

// Conversation is the console-side aggregate for one chat thread. ID is a
// temporary token until the server confirms a session, after which it equals
// SessionID.
type Conversation struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	SessionID   string    `json:"session_id,omitempty"`
	Name        string    `json:"name"`
	Messages    []Message `json:"messages"`
	LastMessage string    `json:"last_message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Loaded is set once the server history replaced the message list.
	Loaded bool `json:"loaded"`
	// Sending is true while a send is in flight.
	Sending bool `json:"sending"`
}

// Confirmed reports whether the server assigned a session.
func (c Conversation) Confirmed() bool {
	return c.SessionID != ""
}

// ShortSessionID abbreviates the session id for display.
func (c Conversation) ShortSessionID() string {
	if len(c.SessionID) <= 8 {
		return c.SessionID
	}
	return c.SessionID[:8] + "..."
}

// Clone returns a deep copy safe to hand outside the owning lock.
func (c Conversation) Clone() Conversation {
	out := c
	if c.Messages != nil {
		out.Messages = make([]Message, len(c.Messages))
		for i, m := range c.Messages {
			out.Messages[i] = m.Clone()
		}
	}
	return out
}

// ConversationName derives a display name from the first user message: its
// first four words, with an ellipsis when truncated.
func ConversationName(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return DefaultConversationName
	}
	if len(words) <= 4 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:4], " ") + "..."
}

// Session is a server-tracked chat conversation.
type Session struct {
	SessionID    string    `json:"session_id"`
	TenantID     string    `json:"tenant_id,omitempty"`
	Title        string    `json:"title,omitempty"`
	MessageCount int       `json:"message_count,omitempty"`
	CreatedAt    Timestamp `json:"created_at"`
	UpdatedAt    Timestamp `json:"updated_at"`
}
