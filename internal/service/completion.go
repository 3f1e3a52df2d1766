package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/arrifai/internal/adapter/llm"
	"github.com/xiaot623/arrifai/internal/domain"
)

// Complete sends the transcript to the provider in one non-streaming call.
// It never returns an error: every failure is classified into the result.
func (s *Service) Complete(ctx context.Context, sessionID string, transcript []domain.Message, params domain.CompletionParams) (result domain.CompletionResult) {
	requestID := "cmp_" + uuid.New().String()[:8]
	start := time.Now()
	result.Model = params.Model

	if err := s.recordEvent(ctx, sessionID, domain.EventTypeCompletionStarted, domain.CompletionStartedPayload{
		RequestID: requestID,
		Model:     params.Model,
		Messages:  len(transcript),
	}); err != nil {
		slog.Warn("failed to record completion_started event", "session_id", sessionID, "error", err)
	}

	defer func() {
		if r := recover(); r != nil {
			result.Reply = ""
			result.Failure = domain.FailureUpstream
			result.Err = fmt.Errorf("provider panic: %v", r)
		}
		result.Latency = time.Since(start)
		s.completionDone(ctx, sessionID, requestID, result)
	}()

	if s.config.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.LLMTimeout)
		defer cancel()
	}

	temperature := params.Temperature
	maxTokens := params.MaxTokens
	req := &llm.ChatCompletionRequest{
		Model:       params.Model,
		Messages:    toChatMessages(transcript),
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}

	resp, err := s.llmClient.CreateChatCompletion(ctx, req)
	if err != nil {
		result.Failure = classifyFailure(ctx, err)
		result.Err = err
		return result
	}

	if resp.Usage != nil {
		result.Usage = &domain.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	if resp.Model != "" {
		result.Model = resp.Model
	}

	reply := strings.TrimSpace(resp.FirstContent())
	if reply == "" {
		result.Failure = domain.FailureEmptyReply
		result.Err = errors.New("provider returned an empty reply")
		return result
	}
	result.Reply = reply
	return result
}

func (s *Service) completionDone(ctx context.Context, sessionID, requestID string, result domain.CompletionResult) {
	outcome := "ok"
	if !result.OK() {
		outcome = string(result.Failure)
		slog.Warn("completion failed",
			"session_id", sessionID,
			"request_id", requestID,
			"failure", result.Failure,
			"error", result.Err,
			"latency_ms", result.Latency.Milliseconds(),
		)
	} else {
		slog.Debug("completion done", "session_id", sessionID, "request_id", requestID, "latency_ms", result.Latency.Milliseconds())
	}
	s.metrics.ObserveCompletion(outcome, result.Latency)

	payload := domain.CompletionDonePayload{
		RequestID: requestID,
		Model:     result.Model,
		LatencyMs: result.Latency.Milliseconds(),
		Failure:   result.Failure,
	}
	if result.Err != nil {
		payload.Error = result.Err.Error()
	}
	if result.Usage != nil {
		payload.PromptTokens = result.Usage.PromptTokens
		payload.CompletionTokens = result.Usage.CompletionTokens
		payload.TotalTokens = result.Usage.TotalTokens
	}
	// The caller may already be gone; the log entry still belongs to the session.
	if err := s.recordEvent(context.WithoutCancel(ctx), sessionID, domain.EventTypeCompletionDone, payload); err != nil {
		slog.Warn("failed to record completion_done event", "session_id", sessionID, "error", err)
	}
}

func toChatMessages(transcript []domain.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, len(transcript))
	for i, m := range transcript {
		out[i] = llm.ChatMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}

// classifyFailure maps a provider error to a failure kind. ctx is the
// context the call ran under.
func classifyFailure(ctx context.Context, err error) domain.FailureKind {
	var statusErr *llm.StatusError
	if errors.As(err, &statusErr) {
		switch code := statusErr.StatusCode; {
		case code == 401 || code == 403:
			return domain.FailureAuth
		case code == 429:
			return domain.FailureQuota
		case code == 404:
			return domain.FailureInvalidModel
		case code == 400 || code == 422:
			if mentionsModel(statusErr) {
				return domain.FailureInvalidModel
			}
			return domain.FailureBadRequest
		case code >= 500:
			return domain.FailureUpstream
		default:
			return domain.FailureBadRequest
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.FailureTimeout
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return domain.FailureCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return domain.FailureTimeout
		}
		return domain.FailureNetwork
	}
	var urlErr *url.Error
	var opErr *net.OpError
	if errors.As(err, &urlErr) || errors.As(err, &opErr) {
		return domain.FailureNetwork
	}

	return domain.FailureUpstream
}

func mentionsModel(e *llm.StatusError) bool {
	return strings.Contains(strings.ToLower(e.Code), "model") ||
		strings.Contains(strings.ToLower(e.Message), "model")
}
