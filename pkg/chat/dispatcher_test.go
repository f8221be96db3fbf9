package chat_test

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatcbt/pkg/chat"
	"github.com/papercomputeco/chatcbt/pkg/llm"
	"github.com/papercomputeco/chatcbt/pkg/prompts"
)

// fakeProvider records requests and answers with a canned result.
type fakeProvider struct {
	result *chat.Result
	err    error

	calls    int
	apiKey   string
	requests []*llm.ChatRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) SendChat(_ context.Context, apiKey string, req *llm.ChatRequest) (*chat.Result, error) {
	f.calls++
	f.apiKey = apiKey
	f.requests = append(f.requests, req)
	return f.result, f.err
}

func okResult(content string) *chat.Result {
	return &chat.Result{
		StatusCode: http.StatusOK,
		Response: &llm.ChatResponse{
			Choices: []llm.Choice{{Message: llm.Message{Role: llm.RoleAssistant, Content: content}}},
		},
	}
}

var _ = Describe("Dispatcher", func() {
	var (
		ctx        context.Context
		provider   *fakeProvider
		dispatcher *chat.Dispatcher
		advisories []string
		input      chat.Input
	)

	BeforeEach(func() {
		ctx = context.Background()
		provider = &fakeProvider{result: okResult("Hello")}
		advisories = nil
		dispatcher = chat.NewDispatcher(zap.NewNop(),
			chat.WithProvider(llm.ModeOpenRouter, provider),
			chat.WithAdvisor(chat.AdvisorFunc(func(msg string) {
				advisories = append(advisories, msg)
			})),
		)
		input = chat.Input{
			APIKey:   "sk-test",
			Messages: []llm.Message{llm.NewUserMessage("I feel anxious today")},
			Mode:     llm.ModeOpenRouter,
			Model:    "anthropic/claude-3.5-sonnet",
			Language: "French",
			Prompt:   "Be kind.",
		}
	})

	Describe("request shaping", func() {
		It("places exactly one system message first", func() {
			input.Messages = []llm.Message{
				llm.NewUserMessage("one"),
				{Role: llm.RoleAssistant, Content: "two"},
				{Role: llm.RoleSystem, Content: "smuggled"},
				llm.NewUserMessage("three"),
			}

			_, err := dispatcher.Chat(ctx, input)
			Expect(err).NotTo(HaveOccurred())

			msgs := provider.requests[0].Messages
			Expect(msgs[0]).To(Equal(llm.Message{
				Role:    llm.RoleSystem,
				Content: "Respond to the user in French.\nBe kind.",
			}))

			systems := 0
			for _, m := range msgs {
				if m.Role == llm.RoleSystem {
					systems++
				}
			}
			Expect(systems).To(Equal(1))
			Expect(msgs[1:]).To(Equal([]llm.Message{
				llm.NewUserMessage("one"),
				{Role: llm.RoleAssistant, Content: "two"},
				llm.NewUserMessage("three"),
			}))
		})

		It("defaults the language to English", func() {
			input.Language = ""

			msgs := chat.BuildMessages(input)
			Expect(msgs[0].Content).To(HavePrefix("Respond to the user in English.\n"))
		})

		It("appends one summary directive after the history and before the ad-hoc prompt", func() {
			input.IsSummary = true
			input.AdHocPrompt = "Focus on work."

			_, err := dispatcher.Chat(ctx, input)
			Expect(err).NotTo(HaveOccurred())

			msgs := provider.requests[0].Messages
			Expect(msgs).To(HaveLen(4))
			Expect(msgs[1].Content).To(Equal("I feel anxious today"))
			Expect(msgs[2]).To(Equal(llm.NewUserMessage(prompts.Summary("French"))))
			Expect(msgs[3]).To(Equal(llm.NewUserMessage("Focus on work.")))
		})

		It("sends the model, temperature and key", func() {
			_, err := dispatcher.Chat(ctx, input)
			Expect(err).NotTo(HaveOccurred())

			Expect(provider.apiKey).To(Equal("sk-test"))
			Expect(provider.requests[0].Model).To(Equal("anthropic/claude-3.5-sonnet"))
			Expect(provider.requests[0].Temperature).To(Equal(0.7))
			Expect(advisories).To(BeEmpty())
		})

		It("advises and falls back to the default model when none is selected", func() {
			input.Model = ""

			reply, err := dispatcher.Chat(ctx, input)
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal("Hello"))

			Expect(advisories).To(Equal([]string{chat.NoModelAdvisory}))
			Expect(provider.requests[0].Model).To(Equal(chat.DefaultModel))
		})

		It("honours a configured default model", func() {
			d := chat.NewDispatcher(zap.NewNop(),
				chat.WithProvider(llm.ModeOpenRouter, provider),
				chat.WithDefaultModel("meta/llama"),
			)
			input.Model = ""

			_, err := d.Chat(ctx, input)
			Expect(err).NotTo(HaveOccurred())
			Expect(provider.requests[0].Model).To(Equal("meta/llama"))
		})
	})

	Describe("preconditions", func() {
		It("rejects an empty history", func() {
			input.Messages = nil

			_, err := dispatcher.Chat(ctx, input)
			Expect(err).To(MatchError(chat.ErrNoMessages))
			Expect(provider.calls).To(BeZero())
		})

		It("rejects a missing API key", func() {
			input.APIKey = ""

			_, err := dispatcher.Chat(ctx, input)
			Expect(errors.Is(err, chat.ErrMissingAPIKey)).To(BeTrue())
			Expect(provider.calls).To(BeZero())
		})

		It("rejects a mode with no provider", func() {
			input.Mode = "ollama"

			_, err := dispatcher.Chat(ctx, input)
			Expect(errors.Is(err, chat.ErrUnknownMode)).To(BeTrue())
		})

		It("treats an empty mode as openrouter", func() {
			input.Mode = ""

			_, err := dispatcher.Chat(ctx, input)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("response handling", func() {
		It("returns the first choice verbatim", func() {
			provider.result = okResult("  Hello\n")
			provider.result.Response.Choices = append(provider.result.Response.Choices,
				llm.Choice{Message: llm.Message{Content: "second"}})

			reply, err := dispatcher.Chat(ctx, input)
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal("  Hello\n"))
			Expect(provider.calls).To(Equal(1))
		})

		It("fails on an embedded error even with status 200", func() {
			provider.result = &chat.Result{
				StatusCode: http.StatusOK,
				Response:   &llm.ChatResponse{Error: &llm.APIError{Message: "boom", Code: "oops"}},
			}

			_, err := dispatcher.Chat(ctx, input)
			Expect(err).To(MatchError(ContainSubstring("boom")))

			var payloadErr *chat.PayloadError
			Expect(errors.As(err, &payloadErr)).To(BeTrue())
			Expect(payloadErr.Code).To(Equal("oops"))
		})

		It("fails when no choices are returned", func() {
			provider.result = &chat.Result{StatusCode: http.StatusOK, Response: &llm.ChatResponse{}}

			_, err := dispatcher.Chat(ctx, input)
			Expect(err).To(MatchError(chat.ErrEmptyResponse))
		})

		It("fails instead of panicking when the provider returns no result", func() {
			provider.result = nil

			_, err := dispatcher.Chat(ctx, input)
			Expect(err).To(MatchError(chat.ErrEmptyResponse))
		})

		DescribeTable("maps statuses to the taxonomy",
			func(status int, want error, text string) {
				provider.result = &chat.Result{StatusCode: status, Body: []byte("nope")}

				_, err := dispatcher.Chat(ctx, input)
				Expect(errors.Is(err, want)).To(BeTrue())
				Expect(err.Error()).To(ContainSubstring(text))
				Expect(provider.calls).To(Equal(1))
			},
			Entry("401", 401, chat.ErrUnauthorized, "invalid API key"),
			Entry("403", 403, chat.ErrForbidden, "insufficient permissions"),
			Entry("404", 404, chat.ErrModelNotFound, "anthropic/claude-3.5-sonnet"),
			Entry("429", 429, chat.ErrRateLimited, "rate limit"),
			Entry("500", 500, chat.ErrProviderServer, "provider service error"),
			Entry("503", 503, chat.ErrProviderServer, "retry later"),
		)

		It("keeps the embedded message as detail on a mapped status", func() {
			provider.result = &chat.Result{
				StatusCode: 401,
				Response:   &llm.ChatResponse{Error: &llm.APIError{Message: "No auth credentials found"}},
			}

			_, err := dispatcher.Chat(ctx, input)
			Expect(errors.Is(err, chat.ErrUnauthorized)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("No auth credentials found"))
		})

		It("reports an embedded error on an unmapped status", func() {
			provider.result = &chat.Result{
				StatusCode: 400,
				Response:   &llm.ChatResponse{Error: &llm.APIError{Message: "bad temperature"}},
			}

			_, err := dispatcher.Chat(ctx, input)
			var payloadErr *chat.PayloadError
			Expect(errors.As(err, &payloadErr)).To(BeTrue())
			Expect(payloadErr.StatusCode).To(Equal(400))
		})

		It("propagates an unmapped status with the provider's body", func() {
			provider.result = &chat.Result{StatusCode: 418, Body: []byte("I'm a teapot")}

			_, err := dispatcher.Chat(ctx, input)
			var statusErr *chat.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("I'm a teapot"))
		})

		It("propagates transport failures unchanged", func() {
			transportErr := errors.New("dial tcp: connection refused")
			provider.err = transportErr

			_, err := dispatcher.Chat(ctx, input)
			Expect(err).To(BeIdenticalTo(transportErr))
		})
	})

	Describe("lifecycle", func() {
		It("reports each state in order", func() {
			var states []chat.State
			d := chat.NewDispatcher(zap.NewNop(),
				chat.WithProvider(llm.ModeOpenRouter, provider),
				chat.WithStateHook(func(s chat.State) { states = append(states, s) }),
			)

			_, err := d.Chat(ctx, input)
			Expect(err).NotTo(HaveOccurred())
			Expect(states).To(Equal([]chat.State{
				chat.StateBuilding, chat.StateSending, chat.StateSucceeded, chat.StateIdle,
			}))

			states = nil
			provider.result = &chat.Result{StatusCode: 500}
			_, err = d.Chat(ctx, input)
			Expect(err).To(HaveOccurred())
			Expect(states).To(Equal([]chat.State{
				chat.StateBuilding, chat.StateSending, chat.StateFailed, chat.StateIdle,
			}))
		})
	})
})
