package dialog

import (
	"context"
	"sync"

	"github.com/capitalize-ai/bot-console/internal/apiclient"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/notify"
)

// UpdateFunc submits the changed fields of an entity.
type UpdateFunc func(ctx context.Context, changes map[string]any) (*model.Ack, error)

// UpdateOptions configure an UpdateFlow.
type UpdateOptions struct {
	TenantID string
	Submit   UpdateFunc
	Notifier notify.Notifier
	Messages Messages
}

// UpdateFlow is an edit dialog that sends only fields differing from the
// last saved snapshot.
type UpdateFlow struct {
	mu       sync.Mutex
	opts     UpdateOptions
	snapshot map[string]any
	form     map[string]any
	loaded   bool
	open     bool
}

// NewUpdateFlow creates a closed dialog with an empty snapshot.
func NewUpdateFlow(opts UpdateOptions) *UpdateFlow {
	return &UpdateFlow{
		opts:     opts,
		snapshot: map[string]any{},
		form:     map[string]any{},
	}
}

// Load replaces the saved snapshot, typically with freshly fetched data.
func (f *UpdateFlow) Load(snapshot map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = copyFields(snapshot)
	f.loaded = true
	if !f.open {
		f.form = copyFields(snapshot)
	}
}

// Loaded reports whether a snapshot has been loaded.
func (f *UpdateFlow) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

// Open shows the dialog with the form initialised from the snapshot.
func (f *UpdateFlow) Open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	f.form = copyFields(f.snapshot)
}

// Close hides the dialog.
func (f *UpdateFlow) Close() {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
}

// IsOpen reports whether the dialog is shown.
func (f *UpdateFlow) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Set edits one form field.
func (f *UpdateFlow) Set(field string, value any) {
	f.mu.Lock()
	f.form[field] = value
	f.mu.Unlock()
}

// SetForm replaces the whole form.
func (f *UpdateFlow) SetForm(form map[string]any) {
	f.mu.Lock()
	f.form = copyFields(form)
	f.mu.Unlock()
}

// Form returns a copy of the form.
func (f *UpdateFlow) Form() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyFields(f.form)
}

// Snapshot returns a copy of the last saved values.
func (f *UpdateFlow) Snapshot() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyFields(f.snapshot)
}

// Submit sends the diff between the form and the snapshot. An empty diff
// raises a notification instead of a call.
func (f *UpdateFlow) Submit(ctx context.Context) Outcome {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return closedOutcome
	}
	changes := ComputeDiff(f.snapshot, f.form)
	f.mu.Unlock()

	if len(changes) == 0 {
		f.opts.Notifier.Error(f.opts.TenantID, NoChangesMessage)
		return Outcome{Status: StatusNoChanges, Message: NoChangesMessage}
	}

	res, err := f.opts.Submit(ctx, changes)
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

	f.mu.Lock()
	f.open = false
	for k, v := range changes {
		f.snapshot[k] = v
	}
	f.mu.Unlock()

	return Outcome{Status: StatusSucceeded, Message: msg}
}
