// ABOUTME: Configuration loading and parsing for converse sessions
// ABOUTME: Supports YAML and TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/2389/converse/internal/conversation"
	"github.com/2389/converse/internal/intent"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// Config represents the complete converse configuration
type Config struct {
	Conversation ConversationConfig  `yaml:"conversation" toml:"conversation"`
	Intents      []intent.Definition `yaml:"intents" toml:"intents"`
	IntentFiles  []string            `yaml:"intent_files" toml:"intent_files"`
	Logging      LoggingConfig       `yaml:"logging" toml:"logging"`
}

// ConversationConfig holds per-session options
type ConversationConfig struct {
	ConfidenceThreshold   float64        `yaml:"confidence_threshold" toml:"confidence_threshold"`
	MaxAlternativeIntents int            `yaml:"max_alternative_intents" toml:"max_alternative_intents"`
	EnableSentiment       bool           `yaml:"enable_sentiment" toml:"enable_sentiment"`
	BuiltinIntents        bool           `yaml:"builtin_intents" toml:"builtin_intents"`
	MaxHistorySize        int            `yaml:"max_history_size" toml:"max_history_size"`
	AutoEndConversation   bool           `yaml:"auto_end_conversation" toml:"auto_end_conversation"`
	InitialState          map[string]any `yaml:"initial_state" toml:"initial_state"`
	AdditionalContext     map[string]any `yaml:"additional_context" toml:"additional_context"`

	InactivityTimeout time.Duration `yaml:"-" toml:"-"`

	// Raw string value for unmarshaling
	InactivityTimeoutRaw string `yaml:"inactivity_timeout" toml:"inactivity_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	opts := conversation.DefaultOptions()
	return &Config{
		Conversation: ConversationConfig{
			ConfidenceThreshold:   opts.ConfidenceThreshold,
			MaxAlternativeIntents: opts.MaxAlternativeIntents,
			EnableSentiment:       opts.EnableSentiment,
			BuiltinIntents:        true,
			MaxHistorySize:        opts.MaxHistorySize,
			AutoEndConversation:   opts.AutoEndConversation,
			InactivityTimeout:     opts.InactivityTimeout,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// The format follows the extension (.yaml, .yml, .toml). Keys absent from the
// file keep their Default values. Environment variables in the format
// ${VAR_NAME} are expanded. Intent files listed under intent_files are
// resolved relative to the config file and appended to Intents.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := decode(path, expandEnvVars(string(data)), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	baseDir := filepath.Dir(path)
	for _, f := range cfg.IntentFiles {
		if !filepath.IsAbs(f) {
			f = filepath.Join(baseDir, f)
		}
		defs, err := LoadIntentFile(f)
		if err != nil {
			return nil, err
		}
		cfg.Intents = append(cfg.Intents, defs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

type intentFile struct {
	Intents []intent.Definition `yaml:"intents" toml:"intents"`
}

// LoadIntentFile reads a standalone intent catalog: a YAML or TOML file with a
// top-level intents list.
func LoadIntentFile(path string) ([]intent.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading intent file: %w", err)
	}

	var f intentFile
	if err := decode(path, expandEnvVars(string(data)), &f); err != nil {
		return nil, fmt.Errorf("parsing intent file %s: %w", path, err)
	}
	for i, def := range f.Intents {
		if strings.TrimSpace(def.Name) == "" {
			return nil, fmt.Errorf("intent file %s: intents[%d]: name is required", path, i)
		}
	}
	return f.Intents, nil
}

func decode(path, content string, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal([]byte(content), v)
	case ".toml":
		_, err := toml.Decode(content, v)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarRe.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all configuration fields are valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	conv := c.Conversation
	if conv.ConfidenceThreshold < 0 || conv.ConfidenceThreshold > 1 {
		return fmt.Errorf("conversation.confidence_threshold must be between 0 and 1, got %v", conv.ConfidenceThreshold)
	}
	if conv.MaxAlternativeIntents < 0 {
		return fmt.Errorf("conversation.max_alternative_intents must not be negative")
	}
	if conv.MaxHistorySize < 0 {
		return fmt.Errorf("conversation.max_history_size must not be negative")
	}
	if conv.InactivityTimeout < 0 {
		return fmt.Errorf("conversation.inactivity_timeout must not be negative")
	}

	for i, def := range c.Intents {
		if strings.TrimSpace(def.Name) == "" {
			return fmt.Errorf("intents[%d].name is required", i)
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}

	return nil
}

// ConversationOptions converts the configuration into session options.
func (c *Config) ConversationOptions() conversation.Options {
	conv := c.Conversation
	return conversation.Options{
		ConfidenceThreshold:   conv.ConfidenceThreshold,
		MaxAlternativeIntents: conv.MaxAlternativeIntents,
		EnableSentiment:       conv.EnableSentiment,
		CustomIntents:         c.Intents,
		BuiltinIntents:        conv.BuiltinIntents,
		MaxHistorySize:        conv.MaxHistorySize,
		AutoEndConversation:   conv.AutoEndConversation,
		InactivityTimeout:     conv.InactivityTimeout,
		InitialState:          conv.InitialState,
		AdditionalContext:     conv.AdditionalContext,
	}
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Conversation.InactivityTimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Conversation.InactivityTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing inactivity_timeout %q: %w", cfg.Conversation.InactivityTimeoutRaw, err)
		}
		cfg.Conversation.InactivityTimeout = d
	}
	return nil
}
