package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"pnodepulse/models"
)

type seedStatsResponse struct {
	models.StatsResponse
	RAMUsagePercent float64 `json:"ram_usage_percent"`
	Healthy         bool    `json:"healthy"`
}

// GetStats godoc
// @Summary Seed statistics
// @Description Returns get-stats from the first healthy seed plus derived fields
// @Tags stats
// @Produce json
// @Success 200 {object} seedStatsResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/stats [get]
func (h *Handler) GetStats(c echo.Context) error {
	stats, err := h.Client.GetSeedStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Seed statistics unavailable: " + err.Error(),
		})
	}

	resp := seedStatsResponse{
		StatsResponse: *stats,
		Healthy:       true,
	}
	if stats.RAMTotal > 0 {
		resp.RAMUsagePercent = float64(stats.RAMUsed) / float64(stats.RAMTotal) * 100
	}
	if stats.CPUPercent > 95 || resp.RAMUsagePercent > 95 {
		resp.Healthy = false
	}

	return c.JSON(http.StatusOK, resp)
}

type networkStatsResponse struct {
	NodesReporting     int     `json:"nodes_reporting"`
	AvgCPUPercent      float64 `json:"avg_cpu_percent"`
	TotalRAMUsed       int64   `json:"total_ram_used"`
	TotalRAMAvailable  int64   `json:"total_ram_available"`
	TotalActiveStreams int     `json:"total_active_streams"`
	TotalPacketsRx     int64   `json:"total_packets_received"`
	TotalPacketsTx     int64   `json:"total_packets_sent"`
	LastUpdated        int64   `json:"last_updated"`
}

// GetNetworkStats aggregates the node stats cache across public pods.
func (h *Handler) GetNetworkStats(c echo.Context) error {
	entries := h.Stats.All()

	resp := networkStatsResponse{
		LastUpdated: time.Now().Unix(),
	}

	var cpuSum float64
	for _, e := range entries {
		resp.NodesReporting++
		cpuSum += e.CPUPercent
		resp.TotalRAMUsed += e.RAMUsed
		resp.TotalRAMAvailable += e.RAMTotal
		resp.TotalActiveStreams += e.ActiveStreams
		resp.TotalPacketsRx += e.PacketsReceived
		resp.TotalPacketsTx += e.PacketsSent
	}
	if resp.NodesReporting > 0 {
		resp.AvgCPUPercent = cpuSum / float64(resp.NodesReporting)
	}

	return c.JSON(http.StatusOK, resp)
}
