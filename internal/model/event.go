package model

import (
	"time"
)

// EventType names a console event.
type EventType string

const (
	EventConversationCreated   EventType = "conversation.created"
	EventConversationSelected  EventType = "conversation.selected"
	EventConversationConfirmed EventType = "conversation.confirmed"
	EventConversationLoaded    EventType = "conversation.loaded"
	EventConversationDiscarded EventType = "conversation.discarded"
	EventMessageOptimistic     EventType = "message.optimistic"
	EventMessageConfirmed      EventType = "message.confirmed"
	EventMessageFailed         EventType = "message.failed"
	EventNotification          EventType = "notification"
	EventInvalidated           EventType = "invalidated"
	EventSearchApplied         EventType = "search.applied"
)

// Event is a state change pushed to console subscribers.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	TenantID       string    `json:"tenant_id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	PreviousID     string    `json:"previous_id,omitempty"`
	Data           any       `json:"data,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Sequence       uint64    `json:"sequence,omitempty"`
}

// NotificationLevel is the severity of a toast.
type NotificationLevel string

const (
	LevelSuccess NotificationLevel = "success"
	LevelError   NotificationLevel = "error"
	LevelInfo    NotificationLevel = "info"
)

// Notification is a transient message shown to the operator.
type Notification struct {
	ID        string            `json:"id"`
	Level     NotificationLevel `json:"level"`
	Message   string            `json:"message"`
	TenantID  string            `json:"tenant_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// ErrorEvent is sent on streams when something fails.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HeartbeatEvent keeps idle streams open.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// SearchApplied reports a debounced search reaching a list.
type SearchApplied struct {
	List   string `json:"list"`
	Search string `json:"search"`
}

// Invalidated reports a resource tag whose cached reads were dropped.
type Invalidated struct {
	Tag string `json:"tag"`
}
