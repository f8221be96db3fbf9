// Package settings loads, migrates and saves the chatcbt settings file.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatcbt/pkg/llm"
	"github.com/papercomputeco/chatcbt/pkg/prompts"
)

// DefaultAssistantName is the header name used for assistant replies.
const DefaultAssistantName = "ChatCBT"

// Environment variables that override the settings file.
const (
	EnvSettingsPath = "CHATCBT_SETTINGS"
	EnvAPIKey       = "OPENROUTER_API_KEY"
	EnvModel        = "CHATCBT_MODEL"
	EnvEndpoint     = "CHATCBT_ENDPOINT"
	EnvPassphrase   = "CHATCBT_PASSPHRASE"
)

// CustomPrompt is a named prompt that can be sent as an ad-hoc user message.
type CustomPrompt struct {
	ID     string `toml:"id"`
	Name   string `toml:"name"`
	Prompt string `toml:"prompt"`
}

// Settings is the persisted user configuration.
type Settings struct {
	// OpenRouterAPIKey is the stored key, possibly sealed by pkg/secrets.
	OpenRouterAPIKey string   `toml:"openrouter_api_key"`
	Mode             llm.Mode `toml:"mode"`
	Language         string   `toml:"language"`
	Prompt           string   `toml:"prompt"`
	OpenRouterModel  string   `toml:"openrouter_model"`
	AssistantName    string   `toml:"assistant_name"`

	// Endpoint overrides the provider URL; empty means the provider default.
	Endpoint string `toml:"endpoint,omitempty"`

	CustomPrompts []CustomPrompt `toml:"custom_prompts"`
}

// legacy holds keys written by releases that supported several providers.
type legacy struct {
	OpenAIAPIKey   string `toml:"openai_api_key"`
	DeepseekAPIKey string `toml:"deepseek_api_key"`
	OpenAIModel    string `toml:"openai_model"`
	DeepseekModel  string `toml:"deepseek_model"`
	OllamaModel    string `toml:"ollama_model"`
}

// Defaults returns the settings used when no file exists.
func Defaults() *Settings {
	return &Settings{
		Mode:          llm.ModeOpenRouter,
		Language:      prompts.DefaultLanguage,
		Prompt:        prompts.DefaultSystem,
		AssistantName: DefaultAssistantName,
	}
}

// Normalize trims the assistant name and fills blank fields with defaults.
func (s *Settings) Normalize() {
	s.AssistantName = strings.TrimSpace(s.AssistantName)
	if s.AssistantName == "" {
		s.AssistantName = DefaultAssistantName
	}
	s.OpenRouterModel = strings.TrimSpace(s.OpenRouterModel)
	if s.Language == "" {
		s.Language = prompts.DefaultLanguage
	}
	if s.Mode == "" {
		s.Mode = llm.ModeOpenRouter
	}
}

// FindCustomPrompt looks a custom prompt up by ID, then by case-insensitive name.
func (s *Settings) FindCustomPrompt(idOrName string) (CustomPrompt, bool) {
	for _, p := range s.CustomPrompts {
		if p.ID == idOrName {
			return p, true
		}
	}
	for _, p := range s.CustomPrompts {
		if strings.EqualFold(p.Name, idOrName) {
			return p, true
		}
	}
	return CustomPrompt{}, false
}

// ApplyEnv overrides settings from the environment. Overrides are never saved.
func (s *Settings) ApplyEnv() {
	if v := os.Getenv(EnvAPIKey); v != "" {
		s.OpenRouterAPIKey = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		s.OpenRouterModel = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		s.Endpoint = v
	}
}

// LoadDotEnv loads a .env file from the working directory when present.
func LoadDotEnv(logger *zap.Logger) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", zap.Error(err))
	}
}

// DefaultPath returns the settings path: $CHATCBT_SETTINGS when set, otherwise
// settings.toml under the user config directory.
func DefaultPath() (string, error) {
	if p := os.Getenv(EnvSettingsPath); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve config directory: %w", err)
	}
	return filepath.Join(dir, "chatcbt", "settings.toml"), nil
}

// Store reads and writes a settings file.
type Store struct {
	path   string
	logger *zap.Logger
}

// NewStore creates a Store for the file at path.
func NewStore(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the settings file path.
func (s *Store) Path() string { return s.path }

// Load reads the settings file, applying defaults and migrating legacy keys.
// Migrated settings are written back. A missing file yields the defaults.
func (s *Store) Load() (*Settings, error) {
	settings := Defaults()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no settings file, using defaults", zap.String("path", s.path))
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read settings %s: %w", s.path, err)
	}

	if _, err := toml.Decode(string(data), settings); err != nil {
		return nil, fmt.Errorf("could not parse settings %s: %w", s.path, err)
	}

	var old legacy
	if _, err := toml.Decode(string(data), &old); err != nil {
		return nil, fmt.Errorf("could not parse settings %s: %w", s.path, err)
	}

	if !prompts.IsKnownLanguage(settings.Language) && settings.Language != "" {
		s.logger.Warn("unknown response language", zap.String("language", settings.Language))
	}

	if migrate(settings, old) {
		s.logger.Info("migrated legacy settings", zap.String("path", s.path))
		if err := s.Save(settings); err != nil {
			return nil, err
		}
	}

	settings.Normalize()
	return settings, nil
}

// Save writes settings to the file, creating its directory.
func (s *Store) Save(settings *Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("could not create settings directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("could not open settings %s: %w", s.path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(settings); err != nil {
		return fmt.Errorf("could not write settings %s: %w", s.path, err)
	}
	return nil
}

// migrate moves legacy provider settings onto OpenRouter. It reports whether
// anything changed.
func migrate(s *Settings, old legacy) bool {
	changed := false

	if s.Mode != llm.ModeOpenRouter {
		s.Mode = llm.ModeOpenRouter
		changed = true
	}

	if s.OpenRouterAPIKey == "" {
		switch {
		case old.OpenAIAPIKey != "":
			s.OpenRouterAPIKey = old.OpenAIAPIKey
			changed = true
		case old.DeepseekAPIKey != "":
			s.OpenRouterAPIKey = old.DeepseekAPIKey
			changed = true
		}
	}

	if s.OpenRouterModel == "" && old.OpenAIModel != "" {
		if strings.Contains(old.OpenAIModel, "/") {
			s.OpenRouterModel = old.OpenAIModel
		} else {
			s.OpenRouterModel = "openai/" + old.OpenAIModel
		}
		changed = true
	}

	return changed
}
