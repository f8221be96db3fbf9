package mcpcmder

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatcbt/cmd/chatcbt/wiring"
	"github.com/papercomputeco/chatcbt/pkg/mcpserver"
)

const mcpLongDesc string = `Serve the chat and summarize tools over MCP on stdin/stdout.

Add chatcbt to an MCP client's server list to let it reply to or
summarize journal files. Logs and notices go to stderr.

Examples:
  chatcbt mcp
  chatcbt mcp --settings ~/.config/chatcbt/settings.toml`

const mcpShortDesc string = "Serve MCP tools on stdio"

type mcpCommander struct {
	flags wiring.Flags
}

func NewMCPCmd() *cobra.Command {
	cmder := &mcpCommander{}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmder.flags.Register(cmd)

	return cmd
}

func (c *mcpCommander) run(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := c.flags.Logger()
	defer logger.Sync()

	// stdout carries the protocol.
	console := c.flags.Console(cmd.ErrOrStderr())
	app, err := wiring.Build(&c.flags, logger, console, nil)
	if err != nil {
		return err
	}

	logger.Info("serving MCP on stdio")
	return mcpserver.RunStdio(ctx, mcpserver.New(app.Responder, logger))
}
