package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type watchRequest struct {
	IP string `json:"ip"`
}

// GetWatchlist returns all watched IPs.
func (h *Handler) GetWatchlist(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"watchlist": h.Watchlist.List(),
	})
}

// AddWatch puts an IP on the watchlist.
func (h *Handler) AddWatch(c echo.Context) error {
	var req watchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.IP == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "IP is required"})
	}

	entry := h.Watchlist.Add(c.Request().Context(), req.IP)

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"watch":   entry,
	})
}
