package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// GetCredits returns the ranked credits standings, optionally limited by
// ?limit=.
func (h *Handler) GetCredits(c echo.Context) error {
	standings := h.Credits.GetStandings()

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit parameter"})
		}
		if limit < len(standings) {
			standings = standings[:limit]
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"standings": standings,
		"count":     len(standings),
	})
}

// GetPodCredits returns the standing for one pod pubkey.
func (h *Handler) GetPodCredits(c echo.Context) error {
	pubkey := c.Param("pubkey")

	standing, ok := h.Credits.GetStanding(pubkey)
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "no credits tracked for pubkey"})
	}

	return c.JSON(http.StatusOK, standing)
}
