package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/chatcbt/cmd/chatcbt/chat"
	configcmder "github.com/papercomputeco/chatcbt/cmd/chatcbt/config"
	mcpcmder "github.com/papercomputeco/chatcbt/cmd/chatcbt/mcp"
	servecmder "github.com/papercomputeco/chatcbt/cmd/chatcbt/serve"
	watchcmder "github.com/papercomputeco/chatcbt/cmd/chatcbt/watch"
	"github.com/papercomputeco/chatcbt/pkg/mcpserver"
	"github.com/papercomputeco/chatcbt/pkg/ui"
)

const rootLongDesc string = `chatcbt is a cognitive behavioral therapy journaling companion.

Write how you feel in a markdown file. Separate turns with a line of
three or more hyphens and chatcbt will reply as a supportive CBT
assistant, or summarize the conversation into negative thoughts,
cognitive distortions and reframed thoughts.`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "chatcbt",
		Short:         "CBT journaling companion",
		Long:          rootLongDesc,
		Version:       mcpserver.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(chatcmder.NewSummarizeCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(mcpcmder.NewMCPCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())

	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		ui.NewConsole(os.Stderr, false).Error(err)
		os.Exit(1)
	}
}
