// Package wiring builds the chatcbt object graph shared by every command:
// settings, secrets codec, provider, dispatcher and responder.
package wiring

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatcbt/pkg/chat"
	"github.com/papercomputeco/chatcbt/pkg/llm"
	"github.com/papercomputeco/chatcbt/pkg/logger"
	"github.com/papercomputeco/chatcbt/pkg/provider/openrouter"
	"github.com/papercomputeco/chatcbt/pkg/responder"
	"github.com/papercomputeco/chatcbt/pkg/secrets"
	"github.com/papercomputeco/chatcbt/pkg/settings"
	"github.com/papercomputeco/chatcbt/pkg/ui"
)

// Flags are the options every command accepts.
type Flags struct {
	SettingsPath string
	Debug        bool
	NoColor      bool
}

// Register adds the common flags to cmd.
func (f *Flags) Register(cmd *cobra.Command) {
	f.register(cmd.Flags())
}

func (f *Flags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.SettingsPath, "settings", "", "Path to settings file (default: $CHATCBT_SETTINGS or the user config dir)")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&f.NoColor, "no-color", false, "Disable colored output")
}

// RegisterPersistent adds the common flags to cmd and its subcommands.
func (f *Flags) RegisterPersistent(cmd *cobra.Command) {
	f.register(cmd.PersistentFlags())
}

// Logger returns the command logger.
func (f *Flags) Logger() *zap.Logger {
	return logger.NewLogger(f.Debug)
}

// Store resolves the settings file.
func (f *Flags) Store(logger *zap.Logger) (*settings.Store, error) {
	path := f.SettingsPath
	if path == "" {
		var err error
		path, err = settings.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return settings.NewStore(path, logger), nil
}

// Console returns a console for w, interactive only when w is a terminal.
func (f *Flags) Console(w io.Writer) *ui.Console {
	if file, ok := w.(*os.File); ok {
		return ui.NewConsole(file, f.NoColor)
	}
	return ui.NewPlainConsole(w)
}

// App is the wired application.
type App struct {
	Settings  *settings.Settings
	Store     *settings.Store
	Codec     secrets.Codec
	Responder *responder.Responder
	Logger    *zap.Logger
}

// Build loads settings and wires the responder. Advisories go to advisor and
// progress to indicator; either may be nil. Pass a ui.Spinner as both so
// advisories print above the animation.
func Build(f *Flags, logger *zap.Logger, advisor chat.Advisor, indicator responder.Indicator) (*App, error) {
	settings.LoadDotEnv(logger)

	store, err := f.Store(logger)
	if err != nil {
		return nil, err
	}

	s, err := store.Load()
	if err != nil {
		return nil, err
	}
	s.ApplyEnv()

	codec := secrets.ForPassphrase(os.Getenv(settings.EnvPassphrase))

	provider := openrouter.New(openrouter.Config{Endpoint: s.Endpoint}, logger)

	dispatcherOpts := []chat.Option{chat.WithProvider(llm.ModeOpenRouter, provider)}
	if advisor != nil {
		dispatcherOpts = append(dispatcherOpts, chat.WithAdvisor(advisor))
	}
	dispatcher := chat.NewDispatcher(logger, dispatcherOpts...)

	var responderOpts []responder.Option
	if indicator != nil {
		responderOpts = append(responderOpts, responder.WithIndicator(indicator))
	}

	return &App{
		Settings:  s,
		Store:     store,
		Codec:     codec,
		Responder: responder.New(dispatcher, s, codec, logger, responderOpts...),
		Logger:    logger,
	}, nil
}
