package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetHistory godoc
// @Summary Network trend history
// @Description Bucketized health/risk trend over 1h, 24h or 30d
// @Tags history
// @Produce json
// @Success 200 {object} models.HistoryResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/history [get]
func (h *Handler) GetHistory(c echo.Context) error {
	rangeStr := c.QueryParam("range")
	if rangeStr == "" {
		rangeStr = "1h"
	}

	history, err := h.History.BuildHistory(rangeStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, history)
}
