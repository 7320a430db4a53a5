package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxMessageLength bounds the text of one chat message.
const MaxMessageLength = 4000

// ValidateMessageText validates a chat message.
func ValidateMessageText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("message cannot be empty")
	}
	if len(text) > MaxMessageLength {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateTenantID validates a tenant ID.
func ValidateTenantID(id string) error {
	if len(id) == 0 {
		return errors.New("tenant ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("tenant ID exceeds maximum length")
	}
	return nil
}

// ValidateResourceID validates an id taken from the request path.
func ValidateResourceID(kind, id string) error {
	if id == "" {
		return errors.New(kind + " ID cannot be empty")
	}
	if len(id) > 128 {
		return errors.New(kind + " ID exceeds maximum length")
	}
	if strings.ContainsAny(id, "/?#") {
		return errors.New("invalid " + kind + " ID format")
	}
	return nil
}

// ValidateSearch validates free-text search input.
func ValidateSearch(search string) error {
	if len(search) > 256 {
		return errors.New("search exceeds maximum length")
	}
	if !utf8.ValidString(search) {
		return errors.New("search must be valid UTF-8")
	}
	return nil
}
