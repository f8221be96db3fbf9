package watchcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatcbt/cmd/chatcbt/wiring"
	"github.com/papercomputeco/chatcbt/pkg/journal"
	"github.com/papercomputeco/chatcbt/pkg/responder"
	"github.com/papercomputeco/chatcbt/pkg/ui"
)

const watchLongDesc string = `Watch a journal file and reply when a turn is finished.

Whenever the file is saved ending with a line of three or more hyphens
after your own entry, the conversation is sent to the configured model
and the reply is appended. Saves that end on a reply are ignored, so
the command never answers itself.

Examples:
  chatcbt watch ~/notes/2026-10-17.md
  chatcbt watch --debounce 2s today.md`

const watchShortDesc string = "Reply to a journal file each time a turn is finished"

type watchCommander struct {
	flags    wiring.Flags
	debounce time.Duration

	// ready is closed once the watcher is registered.
	ready chan struct{}
}

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmder.flags.Register(cmd)
	cmd.Flags().DurationVar(&cmder.debounce, "debounce", 500*time.Millisecond, "Quiet period after a save before the file is checked")

	return cmd
}

func (c *watchCommander) run(ctx context.Context, cmd *cobra.Command, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("could not watch %s: %w", path, err)
	}

	logger := c.flags.Logger()
	defer logger.Sync()

	console := c.flags.Console(cmd.OutOrStdout())
	indicator := console.Indicator()
	app, err := wiring.Build(&c.flags, logger, indicator, indicator)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often save by renaming a temp file over the original, which
	// drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("could not watch %s: %w", filepath.Dir(path), err)
	}
	if c.ready != nil {
		close(c.ready)
	}

	console.Notice(fmt.Sprintf("Watching %s, end an entry with --- to get a reply.", path))
	logger.Info("watching journal", zap.String("path", path), zap.Duration("debounce", c.debounce))

	w := newJournalWatcher(path, app.Responder, console, indicator, logger)
	w.check(ctx)

	return w.loop(ctx, watcher, c.debounce)
}

type journalWatcher struct {
	path      string
	doc       responder.Document
	responder *responder.Responder
	console   *ui.Console
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func newJournalWatcher(path string, r *responder.Responder, console *ui.Console, indicator *ui.Spinner, logger *zap.Logger) *journalWatcher {
	w := &journalWatcher{
		path:      path,
		doc:       responder.NewFileDocument(path),
		responder: r,
		console:   console,
		logger:    logger,
	}
	indicator.OnInterrupt = w.interrupt
	return w
}

// interrupt cancels the request in flight, if any. Watching continues.
func (w *journalWatcher) interrupt() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
}

func (w *journalWatcher) loop(ctx context.Context, watcher *fsnotify.Watcher, debounce time.Duration) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.check(ctx)
		}
	}
}

// check replies when the journal is waiting for one. Failures are shown and
// watching continues.
func (w *journalWatcher) check(ctx context.Context) {
	text, err := w.doc.Read(ctx)
	if err != nil {
		w.logger.Warn("could not read journal", zap.String("path", w.path), zap.Error(err))
		return
	}
	if !journal.AwaitingReply(text, w.responder.AssistantName()) {
		return
	}

	reqCtx, cancel := context.WithCancel(ctx)
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.cancel = nil
		w.mu.Unlock()
		cancel()
	}()

	outcome, err := w.responder.Respond(reqCtx, w.doc, responder.Options{})
	if err != nil {
		switch {
		case ctx.Err() != nil:
		case reqCtx.Err() != nil:
			w.console.Notice("Request cancelled, still watching.")
		default:
			w.console.Error(err)
		}
		return
	}
	if outcome.Reply != "" {
		w.console.Markdown(outcome.Reply)
	}
}
