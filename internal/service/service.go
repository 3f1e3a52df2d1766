// Package service implements the chat relay: session handling, attachment
// labelling and the completion gateway.
package service

import (
	"context"
	"log/slog"

	"github.com/xiaot623/arrifai/internal/adapter/llm"
	"github.com/xiaot623/arrifai/internal/config"
	"github.com/xiaot623/arrifai/internal/domain"
	"github.com/xiaot623/arrifai/internal/metrics"
	"github.com/xiaot623/arrifai/internal/repository"
	"github.com/xiaot623/arrifai/policy"
)

// EventStore is the event log the service writes to. It is optional.
type EventStore interface {
	CreateEvent(ctx context.Context, event *domain.Event) error
	GetEvents(ctx context.Context, sessionID string, afterTs int64, types []string, limit int) ([]domain.Event, error)
}

type Service struct {
	sessions     *repository.SessionStore
	events       EventStore
	llmClient    llm.LLMClient
	config       *config.Config
	policyEngine *policy.Engine
	metrics      *metrics.Metrics
}

// New wires a service. events, policyEngine and m may be nil.
func New(cfg *config.Config, events EventStore, llmClient llm.LLMClient, policyEngine *policy.Engine, m *metrics.Metrics) *Service {
	s := &Service{
		events:       events,
		llmClient:    llmClient,
		config:       cfg,
		policyEngine: policyEngine,
		metrics:      m,
	}
	s.sessions = repository.NewSessionStore(repository.SessionStoreOptions{
		Capacity: cfg.SessionCapacity,
		TTL:      cfg.SessionTTL,
		OnEvict:  s.sessionEvicted,
	})
	m.TrackSessions(s.sessions.Len)
	return s
}

// sessionEvicted runs under the session store lock and must not call back
// into it.
func (s *Service) sessionEvicted(sessionID string, messages int) {
	s.metrics.IncEvictions()
	slog.Info("session evicted", "session_id", sessionID, "messages", messages)
	go func() {
		if err := s.recordEvent(context.Background(), sessionID, domain.EventTypeSessionEvicted, map[string]int{"messages": messages}); err != nil {
			slog.Warn("failed to record session_evicted event", "session_id", sessionID, "error", err)
		}
	}()
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

func (s *Service) params() domain.CompletionParams {
	return domain.CompletionParams{
		Model:       s.config.Model,
		Temperature: s.config.Temperature,
		MaxTokens:   s.config.MaxTokens,
	}
}
