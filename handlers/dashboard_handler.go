package handlers

import (
	"net/http"

	"github.com/fogna/football-stats/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(s services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: s}
}

func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, stats, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
