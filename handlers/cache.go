package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetCacheStatus reports which cache layer is serving reads.
func (h *Handler) GetCacheStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"mode":        h.Cache.Mode(),
		"ttl_seconds": h.Config.Cache.TTL,
	})
}

// ClearCache drops cached responses; the next read rebuilds from the seeds.
func (h *Handler) ClearCache(c echo.Context) error {
	if err := h.Cache.Clear(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "cache cleared"})
}
