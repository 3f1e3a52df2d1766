package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xiaot623/arrifai/internal/config"
)

func TestMockClientEchoesLastUserMessage(t *testing.T) {
	m := NewMockClient()
	resp, err := m.CreateChatCompletion(context.Background(), &ChatCompletionRequest{
		Model: "m",
		Messages: []ChatMessage{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: "first"},
			{Role: "assistant", Content: "ok"},
			{Role: "user", Content: "second"},
		},
	})
	if err != nil {
		t.Fatalf("CreateChatCompletion failed: %v", err)
	}
	if !strings.Contains(resp.FirstContent(), `"second"`) {
		t.Fatalf("unexpected content: %q", resp.FirstContent())
	}
	if m.Calls() != 1 {
		t.Fatalf("expected 1 call, got %d", m.Calls())
	}
}

func TestMockClientForcedError(t *testing.T) {
	boom := errors.New("boom")
	m := &MockClient{Err: boom}
	if _, err := m.CreateChatCompletion(context.Background(), &ChatCompletionRequest{}); !errors.Is(err, boom) {
		t.Fatalf("expected forced error, got %v", err)
	}
}

func TestMockClientDelayHonorsContext(t *testing.T) {
	m := &MockClient{Delay: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := m.CreateChatCompletion(ctx, &ChatCompletionRequest{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewLLMClient(t *testing.T) {
	t.Setenv(EnvMode, "")

	c, err := NewLLMClient(&config.Config{Provider: "openai", ProviderBaseURL: "http://x", LLMTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewLLMClient failed: %v", err)
	}
	if _, ok := c.(*Client); !ok {
		t.Fatalf("expected *Client, got %T", c)
	}

	c, err = NewLLMClient(&config.Config{Provider: "langchain", ProviderBaseURL: "http://x", ProviderAPIKey: "k", Model: "m", LLMTimeout: time.Second})
	if err != nil {
		t.Fatalf("NewLLMClient failed: %v", err)
	}
	if _, ok := c.(*LangChainClient); !ok {
		t.Fatalf("expected *LangChainClient, got %T", c)
	}

	if _, err := NewLLMClient(&config.Config{Provider: "smoke-signals"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestNewLLMClientMockMode(t *testing.T) {
	t.Setenv(EnvMode, ModeMock)

	c, err := NewLLMClient(&config.Config{Provider: "openai"})
	if err != nil {
		t.Fatalf("NewLLMClient failed: %v", err)
	}
	if _, ok := c.(*MockClient); !ok {
		t.Fatalf("expected *MockClient, got %T", c)
	}
}
