package chat

import (
	"context"

	"github.com/papercomputeco/chatcbt/pkg/llm"
)

// Provider is the capability the Dispatcher sends requests through. There is
// one implementation per provider mode.
//
// SendChat performs exactly one call and returns whatever the provider
// answered, including non-2xx statuses, as a Result. An error is returned only
// when no answer was obtained (transport failure, undecodable 2xx body).
// Interpreting statuses and embedded errors is left to the Dispatcher.
type Provider interface {
	// Name is a stable identifier like "openrouter".
	Name() string

	SendChat(ctx context.Context, apiKey string, req *llm.ChatRequest) (*Result, error)
}

// Result is a provider's raw answer to a single chat request.
type Result struct {
	StatusCode int

	// Response is the decoded body, or nil when the body was not a chat
	// completion document.
	Response *llm.ChatResponse

	// Body is the raw response body.
	Body []byte
}
