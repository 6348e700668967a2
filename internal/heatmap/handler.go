package heatmap

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/heatmap_data", h.HeatmapData)
}

// HeatmapData serves GET /api/heatmap_data?state=&indicator_id=. Absent
// parameters are the only client error; missing data is reported inside a
// 200 response so the map client can render an empty layer.
func (h *Handler) HeatmapData(c echo.Context) error {
	state := c.QueryParam("state")
	indicatorID := c.QueryParam("indicator_id")
	if state == "" || indicatorID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing 'state' or 'indicator_id' query parameter")
	}
	fc := h.svc.HeatmapData(c.Request().Context(), state, indicatorID)
	return c.JSON(http.StatusOK, fc)
}
