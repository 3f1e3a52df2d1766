package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ListModels proxies the provider model list.
// GET /models
func (h *Handler) ListModels(c echo.Context) error {
	models, err := h.service.ListModels(c.Request().Context())
	if err != nil {
		slog.Warn("failed to list models", "error", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "failed to list models"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"object": "list",
		"data":   models,
	})
}
