package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vperelman/dealflow/internal/application/advisor"
)

// AdvisorHandler serves the AI-assisted advisory endpoints.  Every endpoint
// succeeds even with the assistant down; the payload's from_assistant flag
// tells the frontend whether it got model text or the canned default.
type AdvisorHandler struct {
	advisor advisor.Service
}

// NewAdvisorHandler constructs an AdvisorHandler.
func NewAdvisorHandler(svc advisor.Service) *AdvisorHandler {
	return &AdvisorHandler{advisor: svc}
}

func (h *AdvisorHandler) Briefing(c *gin.Context) {
	draft, err := h.advisor.DailyBriefing(c.Request.Context(), ownerID(c), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, draft)
}

func (h *AdvisorHandler) Reengagement(c *gin.Context) {
	id, ok := pathID(c, "clientID")
	if !ok {
		return
	}
	draft, err := h.advisor.ReengagementDraft(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, draft)
}

func (h *AdvisorHandler) SuggestGoal(c *gin.Context) {
	current := decimal.Zero
	if s := c.Query("current_goal"); s != "" {
		if v, err := decimal.NewFromString(s); err == nil {
			current = v
		}
	}
	suggestion, err := h.advisor.SuggestGoal(c.Request.Context(), ownerID(c), current)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, suggestion)
}

func (h *AdvisorHandler) EmailDraft(c *gin.Context) {
	id, ok := pathID(c, "dealID")
	if !ok {
		return
	}
	draft, err := h.advisor.DraftFollowUpEmail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, draft)
}
