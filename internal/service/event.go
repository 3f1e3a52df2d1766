package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/arrifai/internal/domain"
)

// ErrEventsDisabled is returned when no event log is configured.
var ErrEventsDisabled = errors.New("event log disabled")

// recordEvent records an event to the store. It is a no-op without a store.
func (s *Service) recordEvent(ctx context.Context, sessionID string, eventType domain.EventType, payload interface{}) error {
	if s.events == nil {
		return nil
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &domain.Event{
		EventID:   "evt_" + uuid.NewString(),
		SessionID: sessionID,
		Ts:        time.Now().UnixMilli(),
		Type:      eventType,
		Payload:   payloadBytes,
	}

	return s.events.CreateEvent(ctx, event)
}

// SessionEvents returns logged events for a session.
func (s *Service) SessionEvents(ctx context.Context, sessionID string, afterTs int64, types []string, limit int) ([]domain.Event, error) {
	if s.events == nil {
		return nil, ErrEventsDisabled
	}
	events, err := s.events.GetEvents(ctx, sessionID, afterTs, types, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	return events, nil
}
