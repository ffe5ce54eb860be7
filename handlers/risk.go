package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pnodepulse/models"
	"pnodepulse/utils"
)

// GetNetworkRisk godoc
// @Summary Network risk assessment
// @Description Scores network-wide risk from inactivity and version drift
// @Tags risk
// @Produce json
// @Success 200 {object} models.RiskReport
// @Failure 503 {object} ErrorResponse
// @Router /api/network/risk [get]
func (h *Handler) GetNetworkRisk(c echo.Context) error {
	roster, stale, err := h.Cache.GetRoster(c.Request().Context())
	if err != nil {
		// Fall back to the health sync's last evaluation before giving up.
		if last, ok := h.Health.LastRisk(); ok {
			c.Response().Header().Set("X-Data-Stale", "true")
			return c.JSON(http.StatusOK, last)
		}
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "Risk assessment unavailable: " + err.Error(),
		})
	}

	if stale {
		c.Response().Header().Set("X-Data-Stale", "true")
	}

	outdated := 0
	for _, n := range roster.PNodes {
		for _, f := range n.Flags {
			if f == models.FlagOutdated {
				outdated++
				break
			}
		}
	}

	report := utils.NetworkRisk(roster.Summary.TotalKnown, roster.Summary.Active, outdated, roster.Summary.MajorityVersion)
	return c.JSON(http.StatusOK, report)
}
