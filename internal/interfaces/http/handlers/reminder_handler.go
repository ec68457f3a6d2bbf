package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vperelman/dealflow/internal/application/pipeline"
	"github.com/vperelman/dealflow/pkg/errors"
)

// ReminderHandler serves the /reminders resource.
type ReminderHandler struct {
	reminders pipeline.ReminderService
}

// NewReminderHandler constructs a ReminderHandler.
func NewReminderHandler(reminders pipeline.ReminderService) *ReminderHandler {
	return &ReminderHandler{reminders: reminders}
}

type createReminderRequest struct {
	Title  string `json:"title" binding:"required"`
	Notes  string `json:"notes"`
	Moment string `json:"moment" binding:"required"`
}

func (h *ReminderHandler) Create(c *gin.Context) {
	var req createReminderRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := parseMoment(req.Moment)
	if err != nil {
		respondError(c, errors.Validation("invalid moment").WithCause(err))
		return
	}

	r, err := h.reminders.Create(c.Request.Context(), pipeline.CreateReminderInput{
		OwnerID: ownerID(c),
		Title:   req.Title,
		Notes:   req.Notes,
		Moment:  *m,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, r)
}

func (h *ReminderHandler) List(c *gin.Context) {
	rs, err := h.reminders.List(c.Request.Context(), ownerID(c), parsePagination(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, rs)
}

func (h *ReminderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "reminderID")
	if !ok {
		return
	}
	r, err := h.reminders.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

func (h *ReminderHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "reminderID")
	if !ok {
		return
	}
	r, err := h.reminders.Complete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

func (h *ReminderHandler) Dismiss(c *gin.Context) {
	id, ok := pathID(c, "reminderID")
	if !ok {
		return
	}
	r, err := h.reminders.Dismiss(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

func (h *ReminderHandler) Reschedule(c *gin.Context) {
	id, ok := pathID(c, "reminderID")
	if !ok {
		return
	}
	var req struct {
		Moment string `json:"moment" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	m, err := parseMoment(req.Moment)
	if err != nil {
		respondError(c, errors.Validation("invalid moment").WithCause(err))
		return
	}

	r, err := h.reminders.Reschedule(c.Request.Context(), id, *m)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, r)
}

func (h *ReminderHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "reminderID")
	if !ok {
		return
	}
	if err := h.reminders.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
