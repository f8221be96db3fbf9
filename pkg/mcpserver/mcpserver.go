// Package mcpserver exposes chat and summarize as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatcbt/pkg/responder"
)

// Version is reported to MCP clients.
const Version = "v0.1.0"

var errNoDocument = errors.New("either path or document is required")

// Responder answers a journal document.
type Responder interface {
	Respond(ctx context.Context, doc responder.Document, opts responder.Options) (*responder.Outcome, error)
}

// ChatArgs are the arguments of the chat tool.
type ChatArgs struct {
	Path         string `json:"path,omitempty" jsonschema:"path to a journal file; the reply is appended to it"`
	Document     string `json:"document,omitempty" jsonschema:"journal text, used when path is empty; nothing is written"`
	CustomPrompt string `json:"custom_prompt,omitempty" jsonschema:"optional extra instruction sent after the journal"`
}

// SummarizeArgs are the arguments of the summarize tool.
type SummarizeArgs struct {
	Path     string `json:"path,omitempty" jsonschema:"path to a journal file; the summary is appended to it"`
	Document string `json:"document,omitempty" jsonschema:"journal text, used when path is empty; nothing is written"`
}

// Output is the structured result of both tools.
type Output struct {
	RequestID string `json:"request_id"`
	Reply     string `json:"reply"`
	Appended  string `json:"appended"`
}

// New returns an MCP server with the chat and summarize tools registered.
func New(r Responder, logger *zap.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "chatcbt", Version: Version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "chat",
		Description: "Reply to a CBT journal as a supportive assistant",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args ChatArgs) (*mcp.CallToolResult, Output, error) {
		return respond(ctx, r, logger, args.Path, args.Document, responder.Options{CustomPrompt: args.CustomPrompt})
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "summarize",
		Description: "Summarize a CBT journal as a table of thoughts, distortions and reframes",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args SummarizeArgs) (*mcp.CallToolResult, Output, error) {
		return respond(ctx, r, logger, args.Path, args.Document, responder.Options{IsSummary: true})
	})

	return server
}

// NewHTTPHandler serves server over the streamable HTTP transport.
func NewHTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
}

// RunStdio serves server on stdin/stdout until ctx is done or the client
// disconnects.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func respond(ctx context.Context, r Responder, logger *zap.Logger, path, text string, opts responder.Options) (*mcp.CallToolResult, Output, error) {
	var doc responder.Document
	switch {
	case path != "":
		doc = responder.NewFileDocument(path)
	case text != "":
		doc = responder.NewMemoryDocument("mcp", text)
	default:
		return nil, Output{}, errNoDocument
	}

	outcome, err := r.Respond(ctx, doc, opts)
	if err != nil {
		logger.Error("mcp tool call failed", zap.String("document", doc.Name()), zap.Error(err))
		return nil, Output{}, err
	}

	return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: outcome.Reply}},
		}, Output{
			RequestID: outcome.RequestID,
			Reply:     outcome.Reply,
			Appended:  outcome.Appended,
		}, nil
}
