package servecmder

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatcbt/cmd/chatcbt/wiring"
	"github.com/papercomputeco/chatcbt/server"
)

const serveLongDesc string = `Serve chatcbt over HTTP.

Editors post the whole journal to /api/chat or /api/summarize and
append the returned text themselves. Nothing is stored between
requests. With --mcp the chat and summarize tools are also served
over the MCP streamable HTTP transport at /mcp.

Examples:
  chatcbt serve
  chatcbt serve --listen 127.0.0.1:7000 --mcp`

const serveShortDesc string = "Serve chatcbt over HTTP"

const shutdownTimeout = 5 * time.Second

type serveCommander struct {
	flags      wiring.Flags
	listenAddr string
	enableMCP  bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmder.flags.Register(cmd)
	cmd.Flags().StringVarP(&cmder.listenAddr, "listen", "l", "127.0.0.1:6070", "Address to listen on")
	cmd.Flags().BoolVar(&cmder.enableMCP, "mcp", false, "Also serve MCP tools at /mcp")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := c.flags.Logger()
	defer logger.Sync()

	console := c.flags.Console(cmd.ErrOrStderr())
	app, err := wiring.Build(&c.flags, logger, console, nil)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		ListenAddr: c.listenAddr,
		EnableMCP:  c.enableMCP,
	}, app.Responder, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down chatcbt server")
	if err := srv.Shutdown(shutdownTimeout); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
