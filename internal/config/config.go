// Package config provides configuration for the chat relay.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultEnvFile is loaded when present; a missing file is not an error.
const DefaultEnvFile = ".env"

// Config holds the service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Completion provider
	Provider        string
	ProviderBaseURL string
	ProviderAPIKey  string
	Model           string
	FallbackModel   string
	Temperature     float64
	MaxTokens       int
	LLMTimeout      time.Duration

	// Sessions
	DefaultSessionID string
	SessionCapacity  int
	SessionTTL       time.Duration

	// Admission
	MaxAttachments  int
	MaxMessageChars int
	PolicyFile      string

	// Event log (empty disables it)
	DatabaseURL string

	// WebSocket settings
	WSPingInterval   time.Duration
	WSWriteTimeout   time.Duration
	WSReadTimeout    time.Duration
	WSMaxMessageSize int64

	// Logging
	LogLevel  string
	LogFormat string
}

var defaults = map[string]any{
	"HTTP_PORT":           8000,
	"LLM_PROVIDER":        "openai",
	"LLM_BASE_URL":        "https://api.groq.com/openai",
	"GROQ_API_KEY":        "",
	"LLM_MODEL":           "llama-3.3-70b-versatile",
	"FALLBACK_MODEL":      "mixtral-8x7b-32768",
	"LLM_TEMPERATURE":     0.9,
	"LLM_MAX_TOKENS":      1200,
	"LLM_TIMEOUT_MS":      60000,
	"DEFAULT_SESSION_ID":  "default",
	"SESSION_CAPACITY":    0,
	"SESSION_TTL_MS":      0,
	"MAX_ATTACHMENTS":     10,
	"MAX_MESSAGE_CHARS":   32000,
	"POLICY_FILE":         "",
	"DATABASE_URL":        "file:arrifai.db?cache=shared&mode=rwc",
	"WS_PING_INTERVAL_MS": 30000,
	"WS_WRITE_TIMEOUT_MS": 10000,
	"WS_READ_TIMEOUT_MS":  60000,
	"WS_MAX_MESSAGE_SIZE": 65536,
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "text",
}

// Load reads envFile (if it exists) into the process environment and then
// builds the configuration from environment variables.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	cfg := &Config{
		HTTPPort:         v.GetInt("HTTP_PORT"),
		Provider:         v.GetString("LLM_PROVIDER"),
		ProviderBaseURL:  v.GetString("LLM_BASE_URL"),
		ProviderAPIKey:   v.GetString("GROQ_API_KEY"),
		Model:            v.GetString("LLM_MODEL"),
		FallbackModel:    v.GetString("FALLBACK_MODEL"),
		Temperature:      v.GetFloat64("LLM_TEMPERATURE"),
		MaxTokens:        v.GetInt("LLM_MAX_TOKENS"),
		LLMTimeout:       millis(v, "LLM_TIMEOUT_MS"),
		DefaultSessionID: v.GetString("DEFAULT_SESSION_ID"),
		SessionCapacity:  v.GetInt("SESSION_CAPACITY"),
		SessionTTL:       millis(v, "SESSION_TTL_MS"),
		MaxAttachments:   v.GetInt("MAX_ATTACHMENTS"),
		MaxMessageChars:  v.GetInt("MAX_MESSAGE_CHARS"),
		PolicyFile:       v.GetString("POLICY_FILE"),
		DatabaseURL:      v.GetString("DATABASE_URL"),
		WSPingInterval:   millis(v, "WS_PING_INTERVAL_MS"),
		WSWriteTimeout:   millis(v, "WS_WRITE_TIMEOUT_MS"),
		WSReadTimeout:    millis(v, "WS_READ_TIMEOUT_MS"),
		WSMaxMessageSize: v.GetInt64("WS_MAX_MESSAGE_SIZE"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		LogFormat:        v.GetString("LOG_FORMAT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT out of range: %d", c.HTTPPort))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("LLM_MODEL is required"))
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, fmt.Errorf("LLM_TEMPERATURE out of range: %v", c.Temperature))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("LLM_MAX_TOKENS must be positive: %d", c.MaxTokens))
	}
	if c.LLMTimeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT_MS must be positive"))
	}
	if c.SessionCapacity < 0 {
		errs = append(errs, fmt.Errorf("SESSION_CAPACITY must not be negative: %d", c.SessionCapacity))
	}
	if c.SessionTTL < 0 {
		errs = append(errs, errors.New("SESSION_TTL_MS must not be negative"))
	}
	if c.DefaultSessionID == "" {
		errs = append(errs, errors.New("DEFAULT_SESSION_ID must not be empty"))
	}
	switch c.Provider {
	case "openai", "langchain", "mock":
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.Provider))
	}
	return errors.Join(errs...)
}

func millis(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt64(key)) * time.Millisecond
}
