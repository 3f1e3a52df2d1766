package v1

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/arrifai/internal/service"
)

// ListSessions returns the live session ids.
// GET /sessions
func (h *Handler) ListSessions(c echo.Context) error {
	sessions := h.service.ListSessions()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns a session transcript.
// GET /session/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	sessionID := c.Param("session_id")

	messages, ok := h.service.Transcript(sessionID)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"messages":   messages,
	})
}

// DeleteSession clears a session. Unknown sessions are reported, not failed.
// DELETE /session/:session_id
func (h *Handler) DeleteSession(c echo.Context) error {
	sessionID := c.Param("session_id")

	msg := fmt.Sprintf("Session %s cleared", sessionID)
	if !h.service.DeleteSession(c.Request().Context(), sessionID) {
		msg = fmt.Sprintf("Session %s not found", sessionID)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": msg})
}

// GetSessionEvents returns logged events for a session.
// GET /session/:session_id/events
func (h *Handler) GetSessionEvents(c echo.Context) error {
	ctx := c.Request().Context()
	sessionID := c.Param("session_id")

	// Parse query params
	afterTs, _ := strconv.ParseInt(c.QueryParam("after_ts"), 10, 64)
	typesStr := c.QueryParam("types")
	var types []string
	if typesStr != "" {
		types = strings.Split(typesStr, ",")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = 100
	}

	events, err := h.service.SessionEvents(ctx, sessionID, afterTs, types, limit+1)
	if err != nil {
		if errors.Is(err, service.ErrEventsDisabled) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "event log disabled"})
		}
		slog.Error("failed to get events", "session_id", sessionID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get events"})
	}

	hasMore := len(events) > limit
	if hasMore {
		events = events[:limit]
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events":   events,
		"has_more": hasMore,
	})
}
