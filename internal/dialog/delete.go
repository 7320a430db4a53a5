package dialog

import (
	"context"
	"sync"

	"github.com/capitalize-ai/bot-console/internal/apiclient"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/notify"
)

// DeleteFunc performs the destructive call for target.
type DeleteFunc func(ctx context.Context, target string) (*model.Ack, error)

// DeleteOptions configure a DeleteFlow.
type DeleteOptions struct {
	TenantID string
	Delete   DeleteFunc
	Notifier notify.Notifier
	Messages Messages
}

// DeleteFlow guards a destructive call behind an explicit confirmation.
type DeleteFlow struct {
	mu      sync.Mutex
	opts    DeleteOptions
	pending string
	open    bool
}

// NewDeleteFlow creates a closed confirmation dialog.
func NewDeleteFlow(opts DeleteOptions) *DeleteFlow {
	return &DeleteFlow{opts: opts}
}

// Request opens the confirmation dialog for target.
func (f *DeleteFlow) Request(target string) {
	f.mu.Lock()
	f.pending = target
	f.open = true
	f.mu.Unlock()
}

// Cancel closes the dialog without deleting.
func (f *DeleteFlow) Cancel() {
	f.mu.Lock()
	f.pending = ""
	f.open = false
	f.mu.Unlock()
}

// Pending returns the target awaiting confirmation, if any.
func (f *DeleteFlow) Pending() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending, f.open
}

// Confirm fires the delete for target. It is rejected without a call unless
// target is the one currently awaiting confirmation.
func (f *DeleteFlow) Confirm(ctx context.Context, target string) Outcome {
	f.mu.Lock()
	if !f.open || f.pending != target {
		f.mu.Unlock()
		return Outcome{Status: StatusRejected, Message: "delete was not requested for " + target}
	}
	f.open = false
	f.pending = ""
	f.mu.Unlock()

	res, err := f.opts.Delete(ctx, target)
	if err != nil {
		msg := apiclient.MessageOf(err, f.opts.Messages.Failure)
		f.opts.Notifier.Error(f.opts.TenantID, msg)
		return Outcome{Status: StatusFailed, Message: msg}
	}

	msg := f.opts.Messages.Success
	if res != nil && res.Message != "" {
		msg = res.Message
	}
	f.opts.Notifier.Success(f.opts.TenantID, msg)
	return Outcome{Status: StatusSucceeded, Message: msg}
}
