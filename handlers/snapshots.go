package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// GetSnapshots returns the retained snapshot series, optionally bounded by
// ?since= and ?until= epoch-millis queries.
func (h *Handler) GetSnapshots(c echo.Context) error {
	var since int64
	until := int64(math.MaxInt64)

	if raw := c.QueryParam("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid since parameter"})
		}
		since = parsed
	}
	if raw := c.QueryParam("until"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid until parameter"})
		}
		until = parsed
	}

	snapshots := h.Snapshots.Range(since, until)

	return c.JSON(http.StatusOK, map[string]any{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// TriggerSnapshot runs one health evaluation immediately.
func (h *Handler) TriggerSnapshot(c echo.Context) error {
	h.Health.SyncNow()

	return c.JSON(http.StatusOK, map[string]any{
		"message": "snapshot triggered",
		"count":   h.Snapshots.Count(),
	})
}
