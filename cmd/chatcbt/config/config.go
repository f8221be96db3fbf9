package configcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/chatcbt/cmd/chatcbt/wiring"
	"github.com/papercomputeco/chatcbt/pkg/chat"
	"github.com/papercomputeco/chatcbt/pkg/llm"
	"github.com/papercomputeco/chatcbt/pkg/prompts"
	"github.com/papercomputeco/chatcbt/pkg/secrets"
	"github.com/papercomputeco/chatcbt/pkg/settings"
)

const configLongDesc string = `Show and change chatcbt settings.

Settings live in a TOML file under the user config directory, or at
$CHATCBT_SETTINGS. Environment overrides such as OPENROUTER_API_KEY
are applied when a command runs and are never written back.

Examples:
  chatcbt config show
  chatcbt config set-key sk-or-v1-...
  chatcbt config set model anthropic/claude-3.5-sonnet
  chatcbt config add-prompt Gratitude "List three things that went well today."`

const configShortDesc string = "Show and change settings"

// fields maps the names accepted by "config set" to their setters.
var fields = map[string]func(s *settings.Settings, value string) error{
	"model": func(s *settings.Settings, value string) error {
		s.OpenRouterModel = value
		return nil
	},
	"language": func(s *settings.Settings, value string) error {
		if !prompts.IsKnownLanguage(value) {
			return fmt.Errorf("unknown language %q", value)
		}
		s.Language = value
		return nil
	},
	"assistant-name": func(s *settings.Settings, value string) error {
		s.AssistantName = value
		return nil
	},
	"prompt": func(s *settings.Settings, value string) error {
		s.Prompt = value
		return nil
	},
	"endpoint": func(s *settings.Settings, value string) error {
		s.Endpoint = value
		return nil
	},
	"mode": func(s *settings.Settings, value string) error {
		mode := llm.Mode(value)
		if !mode.Valid() {
			return fmt.Errorf("%w %q", chat.ErrUnknownMode, value)
		}
		s.Mode = mode
		return nil
	},
}

type configCommander struct {
	flags wiring.Flags
}

func NewConfigCmd() *cobra.Command {
	cmder := &configCommander{}

	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}
	cmder.flags.RegisterPersistent(cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.show(cmd.OutOrStdout())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := cmder.flags.Store(cmder.flags.Logger())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-key <api-key>",
		Short: "Store the OpenRouter API key, encrypted when CHATCBT_PASSPHRASE is set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.setKey(cmd.OutOrStdout(), args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <field> <value>",
		Short: "Set one of: " + strings.Join(fieldNames(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmder.set(args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add-prompt <name> <prompt>",
		Short: "Save a custom prompt for chat --custom",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.addPrompt(cmd.OutOrStdout(), args[0], args[1])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove-prompt <id-or-name>",
		Short: "Delete a saved custom prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return cmder.removePrompt(args[0])
		},
	})

	return cmd
}

func fieldNames() []string {
	return []string{"model", "language", "assistant-name", "prompt", "endpoint", "mode"}
}

// update loads the settings file, applies fn and saves the result.
func (c *configCommander) update(fn func(s *settings.Settings) error) error {
	logger := c.flags.Logger()
	defer logger.Sync()

	store, err := c.flags.Store(logger)
	if err != nil {
		return err
	}
	s, err := store.Load()
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	return store.Save(s)
}

func (c *configCommander) show(w io.Writer) error {
	logger := c.flags.Logger()
	defer logger.Sync()

	store, err := c.flags.Store(logger)
	if err != nil {
		return err
	}
	s, err := store.Load()
	if err != nil {
		return err
	}

	model := s.OpenRouterModel
	if model == "" {
		model = chat.DefaultModel + " (default)"
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = "(default)"
	}

	fmt.Fprintf(w, "settings:       %s\n", store.Path())
	fmt.Fprintf(w, "mode:           %s\n", s.Mode)
	fmt.Fprintf(w, "api key:        %s\n", maskKey(s.OpenRouterAPIKey))
	fmt.Fprintf(w, "model:          %s\n", model)
	fmt.Fprintf(w, "language:       %s\n", s.Language)
	fmt.Fprintf(w, "assistant name: %s\n", s.AssistantName)
	fmt.Fprintf(w, "endpoint:       %s\n", endpoint)
	if s.Prompt == prompts.DefaultSystem {
		fmt.Fprintln(w, "system prompt:  (default)")
	} else {
		fmt.Fprintln(w, "system prompt:  (custom)")
	}

	if len(s.CustomPrompts) > 0 {
		fmt.Fprintln(w, "custom prompts:")
		for _, p := range s.CustomPrompts {
			fmt.Fprintf(w, "  %s  %s\n", p.ID, p.Name)
		}
	}
	return nil
}

// maskKey hides all but the last four characters of a plaintext key.
func maskKey(key string) string {
	switch {
	case key == "":
		return "(not set)"
	case secrets.IsEncrypted(key):
		return "(encrypted)"
	case len(key) <= 8:
		return strings.Repeat("*", len(key))
	default:
		return strings.Repeat("*", 8) + key[len(key)-4:]
	}
}

func (c *configCommander) setKey(w io.Writer, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key must not be empty")
	}

	codec := secrets.ForPassphrase(os.Getenv(settings.EnvPassphrase))
	stored, err := codec.Encrypt(key)
	if err != nil {
		return err
	}

	if err := c.update(func(s *settings.Settings) error {
		s.OpenRouterAPIKey = stored
		return nil
	}); err != nil {
		return err
	}

	if secrets.IsEncrypted(stored) {
		fmt.Fprintln(w, "API key saved (encrypted)")
	} else {
		fmt.Fprintln(w, "API key saved")
	}
	return nil
}

func (c *configCommander) set(field, value string) error {
	setter, ok := fields[field]
	if !ok {
		return fmt.Errorf("unknown field %q, expected one of: %s", field, strings.Join(fieldNames(), ", "))
	}
	return c.update(func(s *settings.Settings) error {
		return setter(s, strings.TrimSpace(value))
	})
}

func (c *configCommander) addPrompt(w io.Writer, name, prompt string) error {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(prompt) == "" {
		return errors.New("custom prompt name and text must not be empty")
	}

	p := settings.CustomPrompt{ID: uuid.NewString(), Name: name, Prompt: prompt}
	if err := c.update(func(s *settings.Settings) error {
		if _, exists := s.FindCustomPrompt(name); exists {
			return fmt.Errorf("a custom prompt named %q already exists", name)
		}
		s.CustomPrompts = append(s.CustomPrompts, p)
		return nil
	}); err != nil {
		return err
	}

	fmt.Fprintln(w, p.ID)
	return nil
}

func (c *configCommander) removePrompt(idOrName string) error {
	return c.update(func(s *settings.Settings) error {
		p, ok := s.FindCustomPrompt(idOrName)
		if !ok {
			return fmt.Errorf("no custom prompt with id or name %q", idOrName)
		}
		kept := s.CustomPrompts[:0]
		for _, existing := range s.CustomPrompts {
			if existing.ID != p.ID {
				kept = append(kept, existing)
			}
		}
		s.CustomPrompts = kept
		return nil
	})
}
