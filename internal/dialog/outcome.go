package dialog

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Status is the result class of a dialog submission.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusNoChanges Status = "no_changes"
	StatusInvalid   Status = "invalid"
	StatusRejected  Status = "rejected"
)

// Outcome is what a flow reports back instead of an error.
type Outcome struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the submission reached the server and succeeded.
func (o Outcome) OK() bool {
	return o.Status == StatusSucceeded
}

// Messages are the fallback texts a flow shows when the server sends none.
type Messages struct {
	Success string
	Failure string
}

// NoChangesMessage is shown when an update has nothing to send.
const NoChangesMessage = "No changes detected."

var closedOutcome = Outcome{Status: StatusRejected, Message: "dialog is not open"}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationMessage turns validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "url":
			parts = append(parts, fe.Field()+" must be a valid URL")
		default:
			parts = append(parts, fe.Field()+" is invalid ("+fe.Tag()+")")
		}
	}
	return strings.Join(parts, "; ")
}
