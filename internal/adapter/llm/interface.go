// Package llm provides an abstraction for chat completion providers.
package llm

import "context"

// LLMClient defines the interface for completion provider operations.
type LLMClient interface {
	// CreateChatCompletion sends a chat completion request (non-streaming).
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)

	// ListModels retrieves the list of available models.
	ListModels(ctx context.Context) ([]Model, error)
}

// Ensure the implementations satisfy LLMClient.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*LangChainClient)(nil)
	_ LLMClient = (*MockClient)(nil)
)
