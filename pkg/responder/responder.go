// Package responder runs a chat or summary request against a journal
// document: it validates settings, turns the document into messages, calls
// the dispatcher and appends the reply back to the document.
package responder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatcbt/pkg/chat"
	"github.com/papercomputeco/chatcbt/pkg/journal"
	"github.com/papercomputeco/chatcbt/pkg/secrets"
	"github.com/papercomputeco/chatcbt/pkg/settings"
)

// ErrEmptyDocument is returned when the document holds nothing but whitespace.
var ErrEmptyDocument = errors.New("first, share how you are feeling in a note")

// Indicator shows progress while a request is in flight.
type Indicator interface {
	// Start shows text and returns a function that hides it again.
	Start(text string) (stop func())
}

type nopIndicator struct{}

func (nopIndicator) Start(string) func() { return func() {} }

// Options selects what kind of response is requested.
type Options struct {
	IsSummary bool

	// CustomPrompt, when set, is sent as the last user message.
	CustomPrompt string
}

// Outcome describes a completed response.
type Outcome struct {
	RequestID string
	Reply     string

	// Appended is the text written to the document; empty when the provider
	// returned an empty reply.
	Appended string
}

// Responder answers journal documents.
type Responder struct {
	dispatcher *chat.Dispatcher
	settings   *settings.Settings
	decrypter  secrets.Decrypter
	indicator  Indicator
	logger     *zap.Logger
}

// Option configures a Responder.
type Option func(*Responder)

// WithIndicator shows progress through ind.
func WithIndicator(ind Indicator) Option {
	return func(r *Responder) {
		r.indicator = ind
	}
}

// New creates a Responder. The settings are read, never modified.
func New(dispatcher *chat.Dispatcher, s *settings.Settings, decrypter secrets.Decrypter, logger *zap.Logger, opts ...Option) *Responder {
	r := &Responder{
		dispatcher: dispatcher,
		settings:   s,
		decrypter:  decrypter,
		indicator:  nopIndicator{},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AssistantName returns the configured assistant header name.
func (r *Responder) AssistantName() string { return r.settings.AssistantName }

// CurrentModel returns the model that will be used, resolving the default.
func (r *Responder) CurrentModel() string {
	if r.settings.OpenRouterModel != "" {
		return r.settings.OpenRouterModel
	}
	return chat.DefaultModel
}

// Respond reads doc, requests a reply and appends it to doc.
func (r *Responder) Respond(ctx context.Context, doc Document, opts Options) (*Outcome, error) {
	s := r.settings
	outcome := &Outcome{RequestID: uuid.NewString()}
	logger := r.logger.With(
		zap.String("request_id", outcome.RequestID),
		zap.String("document", doc.Name()),
		zap.Bool("summary", opts.IsSummary),
	)

	if !s.Mode.Valid() {
		return nil, fmt.Errorf("%w %q: update the mode in the chatcbt settings", chat.ErrUnknownMode, s.Mode)
	}
	if s.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("%w: set an OpenRouter API key in the chatcbt settings", chat.ErrMissingAPIKey)
	}

	text, err := doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyDocument
	}

	messages := journal.BuildMessages(text, s.AssistantName)
	logger.Debug("parsed document", zap.Int("turns", len(messages)))

	apiKey, err := r.decrypter.Decrypt(s.OpenRouterAPIKey)
	if err != nil {
		return nil, fmt.Errorf("could not decrypt API key: %w", err)
	}

	stop := r.indicator.Start(fmt.Sprintf("Asking %s...\n\n_mode: %s_\n\n_model: %s_",
		s.AssistantName, s.Mode, r.CurrentModel()))

	reply, err := r.dispatcher.Chat(ctx, chat.Input{
		APIKey:      apiKey,
		Messages:    messages,
		IsSummary:   opts.IsSummary,
		Mode:        s.Mode,
		Model:       s.OpenRouterModel,
		Language:    s.Language,
		Prompt:      s.Prompt,
		AdHocPrompt: opts.CustomPrompt,
	})
	stop()
	if err != nil {
		return nil, err
	}
	outcome.Reply = reply

	if reply == "" {
		logger.Warn("provider returned an empty reply, nothing appended")
		return outcome, nil
	}

	if opts.IsSummary {
		outcome.Appended = journal.BuildSummaryAppend(reply)
	} else {
		outcome.Appended = journal.ReplyAppend(text, reply, s.AssistantName)
	}

	if err := doc.Append(ctx, outcome.Appended); err != nil {
		return nil, err
	}
	logger.Info("reply appended", zap.Int("appended_length", len(outcome.Appended)))

	return outcome, nil
}
