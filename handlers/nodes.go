package handlers

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"pnodepulse/models"
)

// GetPNodes godoc
// @Summary Get the full pNode roster
// @Description Returns the network summary and every known pNode with scores and enrichment
// @Tags pnodes
// @Produce json
// @Success 200 {object} models.Roster
// @Failure 503 {object} ErrorResponse
// @Router /api/pnodes [get]
func (h *Handler) GetPNodes(c echo.Context) error {
	roster, stale, err := h.Cache.GetRoster(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "pNode roster temporarily unavailable: " + err.Error(),
		})
	}

	if stale {
		c.Response().Header().Set("X-Data-Stale", "true")
	}

	if status := c.QueryParam("status"); status != "" {
		filtered := make([]models.NodeRecord, 0, len(roster.PNodes))
		for _, n := range roster.PNodes {
			if n.Status == status {
				filtered = append(filtered, n)
			}
		}
		return c.JSON(http.StatusOK, models.Roster{Summary: roster.Summary, PNodes: filtered})
	}

	return c.JSON(http.StatusOK, roster)
}

// GetPNode godoc
// @Summary Get one pNode by address
// @Tags pnodes
// @Produce json
// @Success 200 {object} models.NodeRecord
// @Failure 404 {object} ErrorResponse
// @Router /api/pnodes/{address} [get]
func (h *Handler) GetPNode(c echo.Context) error {
	address := c.Param("address")

	roster, stale, err := h.Cache.GetRoster(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "pNode roster temporarily unavailable: " + err.Error(),
		})
	}

	if stale {
		c.Response().Header().Set("X-Data-Stale", "true")
	}

	for _, n := range roster.PNodes {
		if n.Address == address {
			return c.JSON(http.StatusOK, n)
		}
	}

	return c.JSON(http.StatusNotFound, ErrorResponse{
		Error: "pNode not found: " + address,
	})
}

type distributionEntry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

func sortedDistribution(counts map[string]int) []distributionEntry {
	entries := make([]distributionEntry, 0, len(counts))
	for k, v := range counts {
		entries = append(entries, distributionEntry{Key: k, Count: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

func (h *Handler) GetVersionDistribution(c echo.Context) error {
	roster, _, err := h.Cache.GetRoster(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"majority_version": roster.Summary.MajorityVersion,
		"distribution":     sortedDistribution(roster.Summary.VersionDistribution),
		"total_nodes":      roster.Summary.TotalKnown,
	})
}

func (h *Handler) GetCountryDistribution(c echo.Context) error {
	roster, _, err := h.Cache.GetRoster(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"distribution": sortedDistribution(roster.Summary.CountryDistribution),
		"total_nodes":  roster.Summary.TotalKnown,
	})
}

type storageOverviewResponse struct {
	NetworkStorageTotal  int64   `json:"network_storage_total"`
	AggregateStorageUsed int64   `json:"aggregate_storage_used"`
	CommittedTotal       int64   `json:"committed_total"`
	AverageUsagePercent  float64 `json:"average_usage_percent"`
	PublicNodes          int     `json:"public_nodes"`
	PrivateNodes         int     `json:"private_nodes"`
	NodesReporting       int     `json:"nodes_reporting"`
}

func (h *Handler) GetStorageOverview(c echo.Context) error {
	roster, _, err := h.Cache.GetRoster(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}

	resp := storageOverviewResponse{
		NetworkStorageTotal:  roster.Summary.NetworkStorageTotal,
		AggregateStorageUsed: roster.Summary.AggregateStorageUsed,
		PublicNodes:          roster.Summary.PublicNodes,
		PrivateNodes:         roster.Summary.PrivateNodes,
	}

	var pctSum float64
	for _, n := range roster.PNodes {
		if n.StorageCommitted == nil {
			continue
		}
		resp.NodesReporting++
		resp.CommittedTotal += *n.StorageCommitted
		if n.StorageUsagePercent != nil {
			pctSum += *n.StorageUsagePercent
		}
	}
	if resp.NodesReporting > 0 {
		resp.AverageUsagePercent = pctSum / float64(resp.NodesReporting)
	}

	return c.JSON(http.StatusOK, resp)
}
