// Package testutil holds helpers shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/xiaot623/arrifai/internal/config"
	"github.com/xiaot623/arrifai/internal/repository"
)

// NewTestSQLiteStore opens an in-memory event log closed at test cleanup.
func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// NewTestConfig returns a valid configuration using the mock provider.
func NewTestConfig() *config.Config {
	return &config.Config{
		HTTPPort:         8000,
		Provider:         "mock",
		Model:            "llama-3.3-70b-versatile",
		FallbackModel:    "mixtral-8x7b-32768",
		Temperature:      0.9,
		MaxTokens:        1200,
		LLMTimeout:       2 * time.Second,
		DefaultSessionID: "default",
		MaxAttachments:   10,
		MaxMessageChars:  32000,
		WSPingInterval:   time.Second,
		WSWriteTimeout:   time.Second,
		WSReadTimeout:    5 * time.Second,
		WSMaxMessageSize: 65536,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}
