package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Model)
	assert.Equal(t, "mixtral-8x7b-32768", cfg.FallbackModel)
	assert.InDelta(t, 0.9, cfg.Temperature, 1e-9)
	assert.Equal(t, 1200, cfg.MaxTokens)
	assert.Equal(t, 60*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "default", cfg.DefaultSessionID)
	assert.Zero(t, cfg.SessionCapacity)
	assert.Zero(t, cfg.SessionTTL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("SESSION_CAPACITY", "5")
	t.Setenv("SESSION_TTL_MS", "1500")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.HTTPPort)
	assert.Equal(t, "mock", cfg.Provider)
	assert.Equal(t, 5, cfg.SessionCapacity)
	assert.Equal(t, 1500*time.Millisecond, cfg.SessionTTL)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("GROQ_API_KEY=from-file\n"), 0o600))

	// Registered so the variable is restored after the test.
	t.Setenv("GROQ_API_KEY", "")
	require.NoError(t, os.Unsetenv("GROQ_API_KEY"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.ProviderAPIKey)
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		HTTPPort:         8000,
		Provider:         "openai",
		Model:            "m",
		Temperature:      0.9,
		MaxTokens:        1200,
		LLMTimeout:       time.Second,
		DefaultSessionID: "default",
	}
	require.NoError(t, cfg.Validate())

	bad := *cfg
	bad.Provider = "carrier-pigeon"
	bad.SessionCapacity = -1
	bad.Temperature = 3
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_PROVIDER")
	assert.Contains(t, err.Error(), "SESSION_CAPACITY")
	assert.Contains(t, err.Error(), "LLM_TEMPERATURE")
}
