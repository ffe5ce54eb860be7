package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Status      string `json:"status"`
	SeedVersion string `json:"seed_version,omitempty"`
	CacheMode   string `json:"cache_mode"`
	Timestamp   int64  `json:"timestamp"`
}

// GetHealth godoc
// @Summary Upstream health check
// @Description Probes the seed chain with get-version; 503 when no seed answers
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} healthResponse
// @Router /api/health [get]
func (h *Handler) GetHealth(c echo.Context) error {
	version, err := h.Client.GetVersion(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, healthResponse{
			Status:    "unhealthy",
			CacheMode: h.Cache.Mode(),
			Timestamp: time.Now().Unix(),
		})
	}

	return c.JSON(http.StatusOK, healthResponse{
		Status:      "healthy",
		SeedVersion: version.Version,
		CacheMode:   h.Cache.Mode(),
		Timestamp:   time.Now().Unix(),
	})
}
