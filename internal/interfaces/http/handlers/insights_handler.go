package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vperelman/dealflow/internal/application/insights"
)

// InsightsHandler serves the dashboard and leaderboard views.
type InsightsHandler struct {
	insights insights.Service
}

// NewInsightsHandler constructs an InsightsHandler.
func NewInsightsHandler(svc insights.Service) *InsightsHandler {
	return &InsightsHandler{insights: svc}
}

func (h *InsightsHandler) Dashboard(c *gin.Context) {
	db, err := h.insights.Dashboard(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, db)
}

func (h *InsightsHandler) Leaderboard(c *gin.Context) {
	metric, err := insights.ParseLeaderboardMetric(c.Query("metric"))
	if err != nil {
		respondError(c, err)
		return
	}
	rows, err := h.insights.MonthLeaderboard(c.Request.Context(), metric)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, rows)
}
