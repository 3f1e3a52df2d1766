package llm

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/xiaot623/arrifai/internal/config"
)

const (
	// EnvMode is the environment variable name for mode selection.
	EnvMode = "ARRIFAI_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewLLMClient creates a client for cfg.Provider. ARRIFAI_MODE=MOCK forces
// the mock regardless of the configured provider.
func NewLLMClient(cfg *config.Config) (LLMClient, error) {
	if os.Getenv(EnvMode) == ModeMock {
		slog.Info("ARRIFAI_MODE=MOCK detected, using mock LLM client")
		return NewMockClient(), nil
	}

	if cfg.Provider != "mock" && cfg.ProviderAPIKey == "" {
		slog.Warn("GROQ_API_KEY is not set; provider calls will fail", "provider", cfg.Provider)
	}

	switch cfg.Provider {
	case "openai", "":
		return NewClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.LLMTimeout), nil
	case "langchain":
		client, err := NewLangChainClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.Model, cfg.LLMTimeout)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
