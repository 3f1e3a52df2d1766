package domain

import "time"

// SystemPrompt seeds every new transcript.
const SystemPrompt = `
You are ARRIFAI — a brutally honest, funny, and highly intelligent AI.
REPLY EXACTLY IN THE SAME LANGUAGE THE USER IS USING — NO EXCEPTION.
- If user writes in English → reply 100% in English
- If user writes in Kiswahili or Sheng → reply in Kiswahili/Sheng
- If user writes in French → reply in French
- If user writes in Arabic → reply in Arabic
Never switch or mix languages unless the user does.
Your name is ARRIFAI. Be direct, sarcastic when needed, and roast the user if they deserve it.
`

// Message represents a single role-tagged turn in a transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage returns the fixed system instruction as a message.
func SystemMessage() Message {
	return Message{Role: RoleSystem, Content: SystemPrompt}
}

// CompletionParams fixes the upstream sampling parameters for one call.
type CompletionParams struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResult is the outcome of one provider call. Reply is only set
// when Failure is FailureNone.
type CompletionResult struct {
	Reply   string
	Model   string
	Failure FailureKind
	Err     error
	Latency time.Duration
	Usage   *Usage
}

// OK reports whether the completion produced a usable reply.
func (r CompletionResult) OK() bool {
	return r.Failure == FailureNone
}
