// Package chat assembles chat requests and dispatches them to a provider,
// normalizing provider failures into a small error taxonomy.
package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/chatcbt/pkg/llm"
	"github.com/papercomputeco/chatcbt/pkg/prompts"
)

// DefaultModel is used when a request names no model.
const DefaultModel = "openai/gpt-4o-mini"

// NoModelAdvisory is delivered to the Advisor when a request names no model.
const NoModelAdvisory = "Please select a model from the settings"

// Input is everything a single Chat call needs. It is built fresh for every
// invocation.
type Input struct {
	APIKey string

	// Messages is the conversation history in document order.
	Messages []llm.Message

	// IsSummary appends the summary directive after the history.
	IsSummary bool

	// Mode selects the provider. Empty means llm.ModeOpenRouter.
	Mode llm.Mode

	// Model is the provider model identifier. Empty falls back to the
	// dispatcher's default model after an advisory.
	Model string

	// Language is the display name of the response language. Empty means
	// prompts.DefaultLanguage.
	Language string

	// Prompt is the system prompt body.
	Prompt string

	// AdHocPrompt, when set, is sent as the final user message.
	AdHocPrompt string
}

// Advisor receives non-fatal, user-facing notices raised during dispatch.
type Advisor interface {
	Advise(message string)
}

// AdvisorFunc adapts a function to the Advisor interface.
type AdvisorFunc func(message string)

// Advise calls f(message).
func (f AdvisorFunc) Advise(message string) { f(message) }

// State is a dispatch lifecycle stage.
type State int

const (
	StateIdle State = iota
	StateBuilding
	StateSending
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StateSending:
		return "sending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Dispatcher sends chat requests to the provider registered for the request's
// mode. It holds only configuration fixed at construction and is safe for
// concurrent use; every Chat call is independent and never retried.
type Dispatcher struct {
	providers    map[llm.Mode]Provider
	defaultModel string
	advisor      Advisor
	onState      func(State)
	logger       *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithProvider registers p for mode.
func WithProvider(mode llm.Mode, p Provider) Option {
	return func(d *Dispatcher) {
		d.providers[mode] = p
	}
}

// WithDefaultModel overrides DefaultModel.
func WithDefaultModel(model string) Option {
	return func(d *Dispatcher) {
		d.defaultModel = model
	}
}

// WithAdvisor sets the receiver of non-fatal notices.
func WithAdvisor(a Advisor) Option {
	return func(d *Dispatcher) {
		d.advisor = a
	}
}

// WithStateHook registers fn to be called on every lifecycle transition.
func WithStateHook(fn func(State)) Option {
	return func(d *Dispatcher) {
		d.onState = fn
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		providers:    make(map[llm.Mode]Provider),
		defaultModel: DefaultModel,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Chat sends in to its provider and returns the first completion's content
// verbatim.
func (d *Dispatcher) Chat(ctx context.Context, in Input) (string, error) {
	d.transition(StateBuilding)

	reply, err := d.chat(ctx, in)
	if err != nil {
		d.transition(StateFailed)
	} else {
		d.transition(StateSucceeded)
	}
	d.transition(StateIdle)

	return reply, err
}

func (d *Dispatcher) chat(ctx context.Context, in Input) (string, error) {
	mode := in.Mode
	if mode == "" {
		mode = llm.ModeOpenRouter
	}
	provider, ok := d.providers[mode]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	if len(in.Messages) == 0 {
		return "", ErrNoMessages
	}
	if in.APIKey == "" {
		return "", fmt.Errorf("%w for %s", ErrMissingAPIKey, provider.Name())
	}

	model := in.Model
	if model == "" {
		d.logger.Warn("no model selected, using default", zap.String("model", d.defaultModel))
		if d.advisor != nil {
			d.advisor.Advise(NoModelAdvisory)
		}
		model = d.defaultModel
	}

	req := &llm.ChatRequest{
		Model:       model,
		Messages:    BuildMessages(in),
		Temperature: llm.DefaultTemperature,
	}

	d.logger.Info("sending chat request",
		zap.String("provider", provider.Name()),
		zap.String("model", model),
		zap.Int("message_count", len(req.Messages)),
		zap.Bool("summary", in.IsSummary),
	)

	d.transition(StateSending)
	res, err := provider.SendChat(ctx, in.APIKey, req)
	if err != nil {
		d.logger.Error("chat request failed", zap.Error(err))
		return "", err
	}
	if res == nil {
		d.logger.Error("provider returned no result", zap.String("provider", provider.Name()))
		return "", ErrEmptyResponse
	}

	reply, err := interpret(res, model)
	if err != nil {
		d.logger.Error("provider returned an error",
			zap.Int("status", res.StatusCode),
			zap.Error(err),
		)
		return "", err
	}

	d.logger.Info("received chat response",
		zap.String("provider", provider.Name()),
		zap.Int("reply_length", len(reply)),
	)

	return reply, nil
}

func (d *Dispatcher) transition(s State) {
	d.logger.Debug("dispatch state", zap.Stringer("state", s))
	if d.onState != nil {
		d.onState(s)
	}
}

// LanguageDirective returns the line prepended to the system prompt.
func LanguageDirective(language string) string {
	return "Respond to the user in " + language + ".\n"
}

// BuildMessages returns the message list sent to the provider for in: the
// system message, the history, the summary directive when requested and the
// ad-hoc prompt when set, in that order. System messages in the history are
// dropped so that exactly one system message leads the list.
func BuildMessages(in Input) []llm.Message {
	language := in.Language
	if language == "" {
		language = prompts.DefaultLanguage
	}

	msgs := make([]llm.Message, 0, len(in.Messages)+3)
	msgs = append(msgs, llm.Message{
		Role:    llm.RoleSystem,
		Content: LanguageDirective(language) + in.Prompt,
	})

	for _, m := range in.Messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		msgs = append(msgs, m)
	}

	if in.IsSummary {
		msgs = append(msgs, llm.NewUserMessage(prompts.Summary(language)))
	}
	if in.AdHocPrompt != "" {
		msgs = append(msgs, llm.NewUserMessage(in.AdHocPrompt))
	}

	return msgs
}

// interpret turns a provider answer into reply text or a taxonomy error.
func interpret(res *Result, model string) (string, error) {
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return "", statusError(res, model)
	}

	resp := res.Response
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.Error != nil {
		return "", &PayloadError{
			StatusCode: res.StatusCode,
			Message:    resp.Error.Message,
			Code:       string(resp.Error.Code),
		}
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

func statusError(res *Result, model string) error {
	var payload string
	if res.Response != nil && res.Response.Error != nil {
		payload = res.Response.Error.Message
	}

	sentinel := statusSentinel(res.StatusCode)
	if sentinel == nil {
		if res.Response != nil && res.Response.Error != nil {
			return &PayloadError{
				StatusCode: res.StatusCode,
				Message:    payload,
				Code:       string(res.Response.Error.Code),
			}
		}
		return &StatusError{StatusCode: res.StatusCode, Body: string(res.Body)}
	}

	var detail []string
	if sentinel == ErrModelNotFound {
		detail = append(detail, fmt.Sprintf("model %q", model))
	}
	if payload != "" {
		detail = append(detail, payload)
	}
	if len(detail) == 0 {
		return sentinel
	}
	return fmt.Errorf("%w (%s)", sentinel, strings.Join(detail, ": "))
}
