package apiclient

import (
	"errors"
	"fmt"
)

// Kind classifies a remote API failure.
type Kind int

const (
	// KindTransport covers network failures and unreadable responses.
	KindTransport Kind = iota
	// KindBusiness is a server-reported failure carrying a message.
	KindBusiness
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindBusiness:
		return "business"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method that fails.
type Error struct {
	Kind      Kind
	Operation string
	Status    int
	Message   string
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("%s: %s failure (status %d): %s", e.Operation, e.Kind, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s failure: %s", e.Operation, e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s failure: %v", e.Operation, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s failure (status %d)", e.Operation, e.Kind, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MessageOf returns the server-provided message of err, or fallback when the
// failure carries none.
func MessageOf(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// IsBusiness reports whether err is a server-reported failure.
func IsBusiness(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindBusiness
}
