package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"pnodepulse/services"
)

type syncService interface {
	Start()
	Stop()
	SetInterval(time.Duration)
	SyncNow()
	Status() services.SyncStatus
}

type syncRequest struct {
	Action          string `json:"action"`
	Service         string `json:"service"`
	IntervalSeconds int    `json:"interval,omitempty"`
}

func (h *Handler) syncServices() map[string]syncService {
	return map[string]syncService{
		"storage": h.Storage,
		"stats":   h.Stats,
		"health":  h.Health,
	}
}

// ControlSync godoc
// @Summary Control a background sync service
// @Description Starts, stops, retunes or triggers one of the sync services
// @Tags sync
// @Accept json
// @Produce json
// @Success 200 {object} services.SyncStatus
// @Failure 400 {object} ErrorResponse
// @Router /api/sync [post]
func (h *Handler) ControlSync(c echo.Context) error {
	var req syncRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	svc, ok := h.syncServices()[req.Service]
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "unknown service: must be one of storage, stats, health",
		})
	}

	switch req.Action {
	case "start":
		svc.Start()
	case "stop":
		svc.Stop()
	case "setInterval":
		if req.IntervalSeconds <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "interval must be positive"})
		}
		svc.SetInterval(time.Duration(req.IntervalSeconds) * time.Second)
	case "syncNow":
		svc.SyncNow()
	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "unknown action: must be one of start, stop, setInterval, syncNow",
		})
	}

	return c.JSON(http.StatusOK, svc.Status())
}

// GetSyncStatus reports the status of all sync services.
func (h *Handler) GetSyncStatus(c echo.Context) error {
	statuses := make([]services.SyncStatus, 0, 3)
	for _, name := range []string{"storage", "stats", "health"} {
		statuses = append(statuses, h.syncServices()[name].Status())
	}
	return c.JSON(http.StatusOK, map[string]any{"services": statuses})
}
