// Package policy evaluates chat admission rules written in Rego.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/rego"
)

// Input is the document the admission policy sees as `input`.
type Input struct {
	SessionID       string   `json:"session_id"`
	MessageLength   int      `json:"message_length"`
	AttachmentCount int      `json:"attachment_count"`
	ContentTypes    []string `json:"content_types"`
	MaxAttachments  int      `json:"max_attachments"`
	MaxMessageChars int      `json:"max_message_chars"`
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allow   bool
	Reasons []string
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.chat_admission.result"),
		rego.Module("chat_admission.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy module from path, or uses DefaultPolicy
// when path is empty.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate checks a chat request against the policy. A policy that produces
// no result allows the request.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{Allow: true}, nil
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}

	decision := Decision{}
	decision.Allow, _ = obj["allow"].(bool)
	if reasons, ok := obj["reasons"].([]interface{}); ok {
		for _, r := range reasons {
			if s, ok := r.(string); ok {
				decision.Reasons = append(decision.Reasons, s)
			}
		}
	}
	return decision, nil
}

// DefaultPolicy is the default policy content.
const DefaultPolicy = `
package chat_admission

deny contains "message is required" if {
	input.message_length == 0
}

deny contains msg if {
	input.max_attachments > 0
	input.attachment_count > input.max_attachments
	msg := sprintf("too many attachments: %d (max %d)", [input.attachment_count, input.max_attachments])
}

deny contains msg if {
	input.max_message_chars > 0
	input.message_length > input.max_message_chars
	msg := sprintf("message too long: %d characters (max %d)", [input.message_length, input.max_message_chars])
}

result := {
	"allow": count(deny) == 0,
	"reasons": sort(deny),
}
`
