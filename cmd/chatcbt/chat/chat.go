package chatcmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatcbt/cmd/chatcbt/wiring"
	"github.com/papercomputeco/chatcbt/pkg/responder"
)

const chatLongDesc string = `Reply to a journal file.

Reads the journal, splits it into turns on lines of three or more
hyphens, sends the conversation to the configured model and appends
the reply to the file as a new turn headed by the assistant name.

Examples:
  chatcbt chat ~/notes/2026-10-17.md
  chatcbt chat --prompt "Help me find evidence against this thought" today.md
  chatcbt chat --custom gratitude today.md`

const chatShortDesc string = "Reply to a journal file"

const summarizeLongDesc string = `Summarize a journal file.

Sends the conversation with a summary directive and appends the
resulting table of negative thoughts, cognitive distortions and
reframed thoughts to the file.

Examples:
  chatcbt summarize ~/notes/2026-10-17.md`

const summarizeShortDesc string = "Summarize a journal file"

type chatCommander struct {
	flags wiring.Flags

	isSummary    bool
	prompt       string
	customPrompt string
	quiet        bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat <file>",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmder.flags.Register(cmd)
	cmd.Flags().StringVarP(&cmder.prompt, "prompt", "p", "", "Extra instruction sent after the journal")
	cmd.Flags().StringVarP(&cmder.customPrompt, "custom", "c", "", "ID or name of a saved custom prompt to send after the journal")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Do not print the reply")

	return cmd
}

func NewSummarizeCmd() *cobra.Command {
	cmder := &chatCommander{isSummary: true}

	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: summarizeShortDesc,
		Long:  summarizeLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmder.flags.Register(cmd)
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Do not print the summary")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := c.flags.Logger()
	defer logger.Sync()

	console := c.flags.Console(cmd.OutOrStdout())
	indicator := console.Indicator()
	indicator.OnInterrupt = cancel

	app, err := wiring.Build(&c.flags, logger, indicator, indicator)
	if err != nil {
		return err
	}

	opts := responder.Options{IsSummary: c.isSummary, CustomPrompt: c.prompt}
	if c.customPrompt != "" {
		p, ok := app.Settings.FindCustomPrompt(c.customPrompt)
		if !ok {
			return fmt.Errorf("no custom prompt with id or name %q", c.customPrompt)
		}
		opts.CustomPrompt = p.Prompt
	}

	outcome, err := app.Responder.Respond(ctx, responder.NewFileDocument(path), opts)
	if err != nil {
		return err
	}

	if !c.quiet && outcome.Reply != "" {
		console.Markdown(outcome.Reply)
	}
	return nil
}
