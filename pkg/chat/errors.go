package chat

import (
	"errors"
	"fmt"
	"strings"
)

// Provider error taxonomy. Errors returned by Dispatcher.Chat wrap one of these
// sentinels, or are a *PayloadError or *StatusError, or are the transport's
// own error.
var (
	ErrUnauthorized   = errors.New("invalid API key")
	ErrForbidden      = errors.New("insufficient permissions")
	ErrModelNotFound  = errors.New("model not found, check model name")
	ErrRateLimited    = errors.New("rate limit exceeded, retry later")
	ErrProviderServer = errors.New("provider service error, retry later")
	ErrEmptyResponse  = errors.New("no completions returned")
)

// Precondition failures.
var (
	ErrNoMessages    = errors.New("no messages to send")
	ErrMissingAPIKey = errors.New("missing API key")
	ErrUnknownMode   = errors.New("unknown provider mode")
)

// PayloadError is an error object the provider embedded in its response body.
type PayloadError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *PayloadError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return "API error: " + msg
}

// StatusError is a non-2xx answer with no mapped meaning. Its message is the
// provider's own body.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, body)
}

// statusSentinel maps an HTTP status to the taxonomy, or returns nil when the
// status has no mapped meaning.
func statusSentinel(status int) error {
	switch {
	case status == 401:
		return ErrUnauthorized
	case status == 403:
		return ErrForbidden
	case status == 404:
		return ErrModelNotFound
	case status == 429:
		return ErrRateLimited
	case status >= 500:
		return ErrProviderServer
	}
	return nil
}
