package domain

import "encoding/json"

// Event represents an entry in the session event log.
type Event struct {
	EventID   string          `json:"event_id"`
	SessionID string          `json:"session_id"`
	Ts        int64           `json:"ts"`
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// SessionCreatedPayload is the payload for session_created events.
type SessionCreatedPayload struct {
	Source string `json:"source,omitempty"`
}

// CompletionStartedPayload is the payload for completion_started events.
type CompletionStartedPayload struct {
	RequestID string `json:"request_id"`
	Model     string `json:"model"`
	Messages  int    `json:"messages"`
}

// CompletionDonePayload is the payload for completion_done events.
type CompletionDonePayload struct {
	RequestID        string      `json:"request_id"`
	Model            string      `json:"model"`
	LatencyMs        int64       `json:"latency_ms"`
	PromptTokens     int         `json:"prompt_tokens,omitempty"`
	CompletionTokens int         `json:"completion_tokens,omitempty"`
	TotalTokens      int         `json:"total_tokens,omitempty"`
	Failure          FailureKind `json:"failure,omitempty"`
	Error            string      `json:"error,omitempty"`
}
