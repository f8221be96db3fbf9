// Package server exposes chatcbt over HTTP so that editors can request
// replies for a journal they hold in memory and append the result themselves.
package server

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatcbt/pkg/chat"
	"github.com/papercomputeco/chatcbt/pkg/llm"
	"github.com/papercomputeco/chatcbt/pkg/mcpserver"
	"github.com/papercomputeco/chatcbt/pkg/responder"
)

// Server is a stateless HTTP front for a Responder. Every request carries the
// whole journal; nothing is stored between requests.
type Server struct {
	config    Config
	responder mcpserver.Responder
	logger    *zap.Logger
	server    *fiber.App
}

// ChatRequest is the body of POST /api/chat and POST /api/summarize.
type ChatRequest struct {
	Document     string `json:"document"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

// ChatResponse is returned on success. Append is the exact text to append to
// the caller's document.
type ChatResponse struct {
	RequestID string `json:"request_id"`
	Reply     string `json:"reply"`
	Append    string `json:"append"`
}

// New creates a new Server.
func New(config Config, r mcpserver.Responder, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		responder: r,
		logger:    logger,
		server:    app,
	}

	s.routes(app)

	if config.EnableMCP {
		app.All("/mcp", adaptor.HTTPHandler(mcpserver.NewHTTPHandler(mcpserver.New(r, logger))))
	}

	return s
}

func (s *Server) routes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	app.Post("/api/chat", s.handleChat)
	app.Post("/api/summarize", s.handleSummarize)
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting chatcbt server",
		zap.String("listen", s.config.ListenAddr),
		zap.Bool("mcp", s.config.EnableMCP),
	)

	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener starts the server on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	return s.server.Listener(ln)
}

// Shutdown stops the server, waiting up to timeout for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.server.ShutdownWithTimeout(timeout)
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	return s.respond(c, false)
}

func (s *Server) handleSummarize(c *fiber.Ctx) error {
	return s.respond(c, true)
}

func (s *Server) respond(c *fiber.Ctx, isSummary bool) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		s.logger.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	doc := responder.NewMemoryDocument("http", req.Document)
	outcome, err := s.responder.Respond(c.UserContext(), doc, responder.Options{
		IsSummary:    isSummary,
		CustomPrompt: strings.TrimSpace(req.CustomPrompt),
	})
	if err != nil {
		s.logger.Error("failed to respond", zap.Error(err))
		return c.Status(statusFor(err)).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	return c.JSON(ChatResponse{
		RequestID: outcome.RequestID,
		Reply:     outcome.Reply,
		Append:    outcome.Appended,
	})
}

// statusFor maps a responder error to the status returned to the editor.
func statusFor(err error) int {
	switch {
	case errors.Is(err, responder.ErrEmptyDocument),
		errors.Is(err, chat.ErrNoMessages):
		return fiber.StatusBadRequest
	case errors.Is(err, chat.ErrMissingAPIKey),
		errors.Is(err, chat.ErrUnknownMode):
		return fiber.StatusPreconditionFailed
	case errors.Is(err, chat.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusBadGateway
}
