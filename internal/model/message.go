package model

import (
	"time"
)

// MessageType classifies a chat message.
type MessageType string

const (
	// MessageOutgoing is authored by the operator.
	MessageOutgoing MessageType = "outgoing"
	// MessageIncoming is the bot's reply.
	MessageIncoming MessageType = "incoming"
	// MessageError is a synthetic placeholder for a failed send.
	MessageError MessageType = "error"
)

// TempMessagePrefix marks optimistic messages not yet confirmed.
const TempMessagePrefix = "tmp-"

// Message is one entry in a conversation.
type Message struct {
	ID        string           `json:"id"`
	Type      MessageType      `json:"type"`
	Text      string           `json:"text"`
	Timestamp time.Time        `json:"timestamp"`
	Products  []ProductSummary `json:"products,omitempty"`
}

// Clone returns a deep copy.
func (m Message) Clone() Message {
	out := m
	if m.Products != nil {
		out.Products = append([]ProductSummary(nil), m.Products...)
	}
	return out
}

// ProductSummary is a product reference attached to a bot reply.
type ProductSummary struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
	Price     Price  `json:"price,omitempty"`
	Category  string `json:"category,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Thumbnail returns the summary's display image.
func (p ProductSummary) Thumbnail() string {
	return Thumbnail(p.ImageURL)
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	UserQuery string `json:"user_query"`
	TenantID  string `json:"tenant_id"`
}

// ChatReply is the server's answer to a chat message.
type ChatReply struct {
	SessionID string           `json:"session_id"`
	MessageID string           `json:"message_id,omitempty"`
	UserQuery string           `json:"user_query,omitempty"`
	Response  string           `json:"response"`
	Products  []ProductSummary `json:"products,omitempty"`
	Timestamp Timestamp        `json:"timestamp"`
}

// SessionMessage is one stored query/response pair of a session.
type SessionMessage struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id,omitempty"`
	UserQuery string           `json:"user_query"`
	Response  string           `json:"response"`
	Products  []ProductSummary `json:"products,omitempty"`
	CreatedAt Timestamp        `json:"created_at"`
}

// ResponseMessageID derives the id of the incoming half of a stored pair.
func ResponseMessageID(pairID string) string {
	return pairID + ":response"
}

// Expand turns a stored pair into its outgoing and incoming messages.
func (sm SessionMessage) Expand() (Message, Message) {
	ts := sm.CreatedAt.Time
	query := Message{
		ID:        sm.ID,
		Type:      MessageOutgoing,
		Text:      sm.UserQuery,
		Timestamp: ts,
	}
	reply := Message{
		ID:        ResponseMessageID(sm.ID),
		Type:      MessageIncoming,
		Text:      sm.Response,
		Timestamp: ts,
		Products:  append([]ProductSummary(nil), sm.Products...),
	}
	return query, reply
}
