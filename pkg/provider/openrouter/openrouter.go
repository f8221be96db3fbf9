// Package openrouter implements chat.Provider for OpenRouter and other
// OpenAI-compatible chat completion endpoints.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/chatcbt/pkg/chat"
	"github.com/papercomputeco/chatcbt/pkg/llm"
)

const (
	// DefaultEndpoint is the OpenRouter chat completions URL.
	DefaultEndpoint = "https://openrouter.ai/api/v1/chat/completions"

	// Referer and Title identify chatcbt to OpenRouter for attribution.
	Referer = "https://github.com/papercomputeco/chatcbt"
	Title   = "ChatCBT"
)

// Config is the provider configuration.
type Config struct {
	// Endpoint is the chat completions URL. Empty means DefaultEndpoint.
	Endpoint string

	// HTTPClient is used for requests. If nil, a client without a timeout is
	// used; cancellation is driven by the caller's context.
	HTTPClient *http.Client
}

// Provider sends chat requests to a single configured endpoint.
type Provider struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ chat.Provider = (*Provider)(nil)

// New creates a new Provider.
func New(config Config, logger *zap.Logger) *Provider {
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Provider{
		endpoint:   endpoint,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Name implements chat.Provider.
func (p *Provider) Name() string { return string(llm.ModeOpenRouter) }

// Endpoint returns the URL requests are posted to.
func (p *Provider) Endpoint() string { return p.endpoint }

// SendChat implements chat.Provider.
func (p *Provider) SendChat(ctx context.Context, apiKey string, req *llm.ChatRequest) (*chat.Result, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	if IsOpenRouter(p.endpoint) {
		httpReq.Header.Set("HTTP-Referer", Referer)
		httpReq.Header.Set("X-Title", Title)
	}

	p.logger.Debug("posting chat request",
		zap.String("url", p.endpoint),
		zap.Int("body_size", len(reqBody)),
	)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	res := &chat.Result{
		StatusCode: httpResp.StatusCode,
		Body:       body,
	}

	var resp llm.ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		if httpResp.StatusCode >= http.StatusOK && httpResp.StatusCode < http.StatusMultipleChoices {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		p.logger.Debug("non-JSON error body", zap.Int("status", httpResp.StatusCode))
		return res, nil
	}
	res.Response = &resp

	return res, nil
}

// IsOpenRouter reports whether endpoint is hosted by OpenRouter.
func IsOpenRouter(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "openrouter.ai" || strings.HasSuffix(host, ".openrouter.ai")
}
