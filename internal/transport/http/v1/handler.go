// Package v1 provides the public HTTP handlers of the chat relay.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/arrifai/internal/metrics"
	"github.com/xiaot623/arrifai/internal/service"
)

const (
	serviceName = "arrifai"
	bannerText  = "ARRIFAI AI IKO LIVE KABISA! 🔥"
)

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	metrics *metrics.Metrics
}

// NewHandler creates a new handler. m may be nil.
func NewHandler(service *service.Service, m *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		metrics: m,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Chat
	e.POST("/chat", h.Chat)
	e.POST("/chat-json", h.ChatJSON)

	// Sessions
	e.GET("/sessions", h.ListSessions)
	e.GET("/session/:session_id", h.GetSession)
	e.DELETE("/session/:session_id", h.DeleteSession)
	e.GET("/session/:session_id/events", h.GetSessionEvents)

	e.GET("/models", h.ListModels)

	e.GET("/", h.Home)
	e.GET("/health", h.Health)
	if h.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.metrics.Handler()))
	}
}

// Home returns the service banner.
func (h *Handler) Home(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": bannerText,
		"service": serviceName,
		"endpoints": map[string]string{
			"chat":          "POST /chat",
			"chat_json":     "POST /chat-json",
			"sessions":      "GET /sessions",
			"session":       "GET /session/{id}",
			"clear_session": "DELETE /session/{id}",
			"events":        "GET /session/{id}/events",
			"models":        "GET /models",
			"health":        "GET /health",
			"metrics":       "GET /metrics",
			"websocket":     "GET /ws",
		},
	})
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	cfg := h.service.Config()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"service":  serviceName,
		"model":    cfg.Model,
		"provider": cfg.Provider,
		"sessions": h.service.SessionCount(),
	})
}
