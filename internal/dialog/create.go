package dialog

import (
	"context"
	"reflect"
	"sync"

	"github.com/capitalize-ai/bot-console/internal/apiclient"
	"github.com/capitalize-ai/bot-console/internal/model"
	"github.com/capitalize-ai/bot-console/internal/notify"
)

// CreateFunc submits a create form.
type CreateFunc[F any] func(ctx context.Context, form F) (*model.Ack, error)

// CreateOptions configure a CreateFlow.
type CreateOptions[F any] struct {
	TenantID string
	Defaults F
	Submit   CreateFunc[F]
	Notifier notify.Notifier
	Messages Messages
	// KeepOpenOnSuccess leaves the dialog open with the form populated
	// after a successful submission.
	KeepOpenOnSuccess bool
}

// CreateFlow is a create dialog: it opens on empty defaults and closes after
// a successful submission.
type CreateFlow[F any] struct {
	mu   sync.Mutex
	opts CreateOptions[F]
	open bool
	busy bool
	form F
}

// NewCreateFlow creates a closed dialog.
func NewCreateFlow[F any](opts CreateOptions[F]) *CreateFlow[F] {
	return &CreateFlow[F]{opts: opts, form: opts.Defaults}
}

// Open shows the dialog with the form reset to defaults.
func (f *CreateFlow[F]) Open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	f.form = f.opts.Defaults
}

// Close hides the dialog without submitting.
func (f *CreateFlow[F]) Close() {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
}

// IsOpen reports whether the dialog is shown.
func (f *CreateFlow[F]) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

// Busy reports whether a submission is in flight.
func (f *CreateFlow[F]) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.busy
}

// SetForm replaces the form contents.
func (f *CreateFlow[F]) SetForm(form F) {
	f.mu.Lock()
	f.form = form
	f.mu.Unlock()
}

// Form returns the form contents.
func (f *CreateFlow[F]) Form() F {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

// Submit validates and sends the form of an open dialog. Failures become
// notifications and leave the dialog as it was.
func (f *CreateFlow[F]) Submit(ctx context.Context) Outcome {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return closedOutcome
	}
	if f.busy {
		f.mu.Unlock()
		return Outcome{Status: StatusRejected, Message: "submission already in progress"}
	}
	form := f.form
	f.busy = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.busy = false
		f.mu.Unlock()
	}()

	if isStruct(form) {
		if err := validate.Struct(form); err != nil {
			msg := validationMessage(err)
			f.opts.Notifier.Error(f.opts.TenantID, msg)
			return Outcome{Status: StatusInvalid, Message: msg}
		}
	}

	res, err := f.opts.Submit(ctx, form)
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

	if !f.opts.KeepOpenOnSuccess {
		f.mu.Lock()
		f.form = f.opts.Defaults
		f.open = false
		f.mu.Unlock()
	}
	return Outcome{Status: StatusSucceeded, Message: msg}
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}
