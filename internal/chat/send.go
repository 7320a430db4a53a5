package chat

import (
	"context"

	"github.com/capitalize-ai/bot-console/internal/model"
)

// Send is a chat message on its way to the server.
type Send struct {
	// ConversationID is the conversation id when the send was issued.
	ConversationID string
	// MessageID is the temporary id of the optimistic message.
	MessageID string
	// SessionID is the session the message was sent under, empty for a new one.
	SessionID string

	done         chan struct{}
	reply        *model.ChatReply
	err          error
	conversation model.Conversation
}

// Done is closed once the send has been reconciled.
func (s *Send) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the send is reconciled or ctx ends. Giving up on Wait
// does not cancel the send.
func (s *Send) Wait(ctx context.Context) (*model.ChatReply, error) {
	select {
	case <-s.done:
		return s.reply, s.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Conversation returns the conversation as it stood right after
// reconciliation. Only valid once Done is closed.
func (s *Send) Conversation() model.Conversation {
	<-s.done
	return s.conversation.Clone()
}
