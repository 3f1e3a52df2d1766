package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

var statusCodePattern = regexp.MustCompile(`status code: (\d{3})`)

// LangChainClient implements LLMClient on top of langchaingo's OpenAI model.
type LangChainClient struct {
	model string
	llm   *openai.LLM
}

// NewLangChainClient creates a client. baseURL follows NewClient and has /v1
// appended for langchaingo.
func NewLangChainClient(baseURL, apiKey, model string, timeout time.Duration) (*LangChainClient, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(strings.TrimSuffix(baseURL, "/")+"/v1"),
		openai.WithModel(model),
		openai.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create langchain model: %w", err)
	}
	return &LangChainClient{model: model, llm: llm}, nil
}

// CreateChatCompletion sends the transcript through langchaingo.
func (c *LangChainClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	content := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	opts := []llms.CallOption{llms.WithModel(model)}
	if req.Temperature != nil {
		opts = append(opts, llms.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens != nil {
		opts = append(opts, llms.WithMaxTokens(*req.MaxTokens))
	}

	resp, err := c.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return nil, wrapLangChainError(err)
	}

	out := &ChatCompletionResponse{
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   model,
	}
	for i, choice := range resp.Choices {
		out.Choices = append(out.Choices, Choice{
			Index:        i,
			Message:      &ChatMessage{Role: "assistant", Content: choice.Content},
			FinishReason: choice.StopReason,
		})
		if i == 0 {
			out.Usage = usageFromGenerationInfo(choice.GenerationInfo)
		}
	}
	return out, nil
}

// ListModels reports the configured model; langchaingo has no listing API.
func (c *LangChainClient) ListModels(ctx context.Context) ([]Model, error) {
	return []Model{{ID: c.model, Object: "model", OwnedBy: "langchain"}}, nil
}

func chatMessageType(role string) llms.ChatMessageType {
	switch role {
	case "system":
		return llms.ChatMessageTypeSystem
	case "assistant":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func usageFromGenerationInfo(info map[string]any) *Usage {
	if info == nil {
		return nil
	}
	u := &Usage{
		PromptTokens:     intFromAny(info["PromptTokens"]),
		CompletionTokens: intFromAny(info["CompletionTokens"]),
		TotalTokens:      intFromAny(info["TotalTokens"]),
	}
	if u.TotalTokens == 0 && u.PromptTokens == 0 && u.CompletionTokens == 0 {
		return nil
	}
	return u
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// wrapLangChainError turns langchaingo's status errors into *StatusError so
// callers can classify them like errors from Client.
func wrapLangChainError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	m := statusCodePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("langchain completion failed: %w", err)
	}
	code, _ := strconv.Atoi(m[1])
	return &StatusError{StatusCode: code, Message: err.Error()}
}
