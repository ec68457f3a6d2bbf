package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vperelman/dealflow/internal/application/agenda"
)

// AgendaHandler serves the computed agenda and its notifications.
type AgendaHandler struct {
	agenda agenda.Service
}

// NewAgendaHandler constructs an AgendaHandler.
func NewAgendaHandler(svc agenda.Service) *AgendaHandler {
	return &AgendaHandler{agenda: svc}
}

func (h *AgendaHandler) Get(c *gin.Context) {
	tr, err := h.agenda.Compute(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, tr)
}

func (h *AgendaHandler) Notifications(c *gin.Context) {
	ns, err := h.agenda.Notify(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, ns)
}
