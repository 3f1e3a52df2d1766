package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xiaot623/arrifai/internal/adapter/llm"
	"github.com/xiaot623/arrifai/internal/domain"
)

// ListSessions returns the ids of live sessions.
func (s *Service) ListSessions() []string {
	return s.sessions.List()
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	return s.sessions.Len()
}

// DeleteSession drops a session. It reports false when none existed.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) bool {
	if !s.sessions.Delete(sessionID) {
		return false
	}
	slog.Info("session deleted", "session_id", sessionID)
	if err := s.recordEvent(ctx, sessionID, domain.EventTypeSessionDeleted, struct{}{}); err != nil {
		slog.Warn("failed to record session_deleted event", "session_id", sessionID, "error", err)
	}
	return true
}

// Transcript returns a copy of the session's messages.
func (s *Service) Transcript(sessionID string) ([]domain.Message, bool) {
	return s.sessions.Get(sessionID)
}

// ListModels proxies the provider's model list.
func (s *Service) ListModels(ctx context.Context) ([]llm.Model, error) {
	models, err := s.llmClient.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return models, nil
}
