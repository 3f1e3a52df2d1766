package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xiaot623/arrifai/internal/domain"
	"github.com/xiaot623/arrifai/internal/repository"
	"github.com/xiaot623/arrifai/policy"
)

var (
	// ErrEmptyMessage is returned for a blank chat message.
	ErrEmptyMessage = errors.New("message is required")
	// ErrRejected is returned when the admission policy denies a request.
	ErrRejected = errors.New("request rejected")
)

// RejectionError carries the admission policy's reasons.
type RejectionError struct {
	Reasons []string
}

func (e *RejectionError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrRejected.Error()
	}
	return fmt.Sprintf("%s: %s", ErrRejected, strings.Join(e.Reasons, "; "))
}

func (e *RejectionError) Unwrap() error {
	return ErrRejected
}

// ChatRequest is one user turn from any ingress.
type ChatRequest struct {
	SessionID   string
	Message     string
	Attachments []domain.Attachment
	// Source names the ingress (http, http-json, ws) for the event log.
	Source string
}

// ChatResult is the outcome of one chat turn. Reply is always displayable;
// on failure it holds the rendered apology.
type ChatResult struct {
	SessionID           string
	Reply               string
	Failure             domain.FailureKind
	Err                 error
	AttachmentsReceived int
	// Committed reports whether the turn was written to the transcript.
	Committed bool
}

// OK reports whether the provider produced a reply.
func (r *ChatResult) OK() bool {
	return r.Failure == domain.FailureNone
}

// Chat runs one chat turn: admission, annotation, completion, commit.
// Provider failures are reported in the result, not as an error.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (*ChatResult, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = s.config.DefaultSessionID
	}
	message := strings.TrimSpace(req.Message)

	if err := s.admit(ctx, sessionID, message, req.Attachments); err != nil {
		return nil, err
	}
	if message == "" {
		return nil, ErrEmptyMessage
	}

	content := AnnotateMessage(message, req.Attachments)

	transcript, created := s.sessions.GetOrCreate(sessionID)
	if created {
		slog.Info("session created", "session_id", sessionID, "source", req.Source)
		if err := s.recordEvent(ctx, sessionID, domain.EventTypeSessionCreated, domain.SessionCreatedPayload{Source: req.Source}); err != nil {
			slog.Warn("failed to record session_created event", "session_id", sessionID, "error", err)
		}
	}

	userTurn := domain.Message{Role: domain.RoleUser, Content: content}
	result := s.Complete(ctx, sessionID, append(transcript, userTurn), s.params())

	out := &ChatResult{
		SessionID:           sessionID,
		Failure:             result.Failure,
		Err:                 result.Err,
		AttachmentsReceived: len(req.Attachments),
		Reply:               s.RenderReply(result),
	}
	if !result.OK() {
		return out, nil
	}

	err := s.sessions.Append(sessionID, userTurn, domain.Message{Role: domain.RoleAssistant, Content: result.Reply})
	switch {
	case err == nil:
		out.Committed = true
	case errors.Is(err, repository.ErrSessionNotFound):
		slog.Warn("session removed during completion; turn dropped", "session_id", sessionID)
	default:
		return nil, fmt.Errorf("failed to commit turn: %w", err)
	}
	return out, nil
}

func (s *Service) admit(ctx context.Context, sessionID, message string, attachments []domain.Attachment) error {
	if s.policyEngine == nil {
		return nil
	}

	contentTypes := make([]string, len(attachments))
	for i, a := range attachments {
		contentTypes[i] = a.ContentType
	}
	decision, err := s.policyEngine.Evaluate(ctx, policy.Input{
		SessionID:       sessionID,
		MessageLength:   len([]rune(message)),
		AttachmentCount: len(attachments),
		ContentTypes:    contentTypes,
		MaxAttachments:  s.config.MaxAttachments,
		MaxMessageChars: s.config.MaxMessageChars,
	})
	if err != nil {
		return fmt.Errorf("failed to evaluate admission policy: %w", err)
	}
	if !decision.Allow {
		s.metrics.IncRejections()
		slog.Info("chat request rejected", "session_id", sessionID, "reasons", decision.Reasons)
		return &RejectionError{Reasons: decision.Reasons}
	}
	return nil
}
