package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// ExportJSON godoc
// @Summary Export the dashboard dataset as JSON
// @Tags export
// @Produce json
// @Success 200 {object} models.Roster
// @Failure 503 {object} ErrorResponse
// @Router /api/export/json [get]
func (h *Handler) ExportJSON(c echo.Context) error {
	roster, _, err := h.Cache.GetRoster(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}

	filename := fmt.Sprintf("pnodes-%s.json", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)

	return c.JSON(http.StatusOK, roster)
}

// ExportCSV godoc
// @Summary Export the pNode roster as CSV
// @Tags export
// @Produce text/csv
// @Failure 503 {object} ErrorResponse
// @Router /api/export/csv [get]
func (h *Handler) ExportCSV(c echo.Context) error {
	roster, _, err := h.Cache.GetRoster(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}

	filename := fmt.Sprintf("pnodes-%s.csv", time.Now().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Response().WriteHeader(http.StatusOK)

	w := csv.NewWriter(c.Response())
	defer w.Flush()

	header := []string{
		"address", "version", "last_seen", "status", "health_score",
		"version_status", "country", "city",
		"is_public", "storage_committed", "storage_used", "storage_usage_percent",
		"credits", "uptime_seconds",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, n := range roster.PNodes {
		row := []string{
			n.Address,
			n.Version,
			strconv.FormatInt(n.LastSeen, 10),
			n.Status,
			strconv.Itoa(n.HealthScore),
			n.VersionStatus,
			strPtr(n.Country),
			strPtr(n.City),
			boolPtr(n.IsPublic),
			int64Ptr(n.StorageCommitted),
			int64Ptr(n.StorageUsed),
			floatPtr(n.StorageUsagePercent),
			int64Ptr(n.Credits),
			int64Ptr(n.UptimeSeconds),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// CSV cells for absent enrichment stay empty rather than printing zeros.

func strPtr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func boolPtr(p *bool) string {
	if p == nil {
		return ""
	}
	return strconv.FormatBool(*p)
}

func int64Ptr(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

func floatPtr(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', 2, 64)
}
