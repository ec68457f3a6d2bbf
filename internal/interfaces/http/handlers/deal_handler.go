package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vperelman/dealflow/internal/application/pipeline"
	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// maxAudioSize caps voice memo uploads at 25 MiB.
const maxAudioSize = 25 << 20

// DealHandler serves the /deals resource.
type DealHandler struct {
	deals pipeline.DealService
}

// NewDealHandler constructs a DealHandler.
func NewDealHandler(deals pipeline.DealService) *DealHandler {
	return &DealHandler{deals: deals}
}

type createDealRequest struct {
	ClientID     string          `json:"client_id" binding:"required"`
	ContactID    string          `json:"contact_id"`
	Title        string          `json:"title" binding:"required"`
	Value        decimal.Decimal `json:"value"`
	DateSent     string          `json:"date_sent"`
	NextFollowUp string          `json:"next_follow_up"`
}

// parseMoment converts an optional wire string into a Moment.
func parseMoment(s string) (*schedule.Moment, error) {
	if s == "" {
		return nil, nil
	}
	m, err := schedule.Parse(s)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (h *DealHandler) Create(c *gin.Context) {
	var req createDealRequest
	if !bindJSON(c, &req) {
		return
	}

	in := pipeline.CreateDealInput{
		ClientID: common.ID(req.ClientID),
		OwnerID:  ownerID(c),
		Title:    req.Title,
		Value:    req.Value,
	}
	if req.ContactID != "" {
		id := common.ID(req.ContactID)
		in.ContactID = &id
	}
	if m, err := parseMoment(req.DateSent); err != nil {
		respondError(c, errors.Validation("invalid date_sent").WithCause(err))
		return
	} else if m != nil {
		in.DateSent = *m
	}
	next, err := parseMoment(req.NextFollowUp)
	if err != nil {
		respondError(c, errors.Validation("invalid next_follow_up").WithCause(err))
		return
	}
	in.NextFollowUp = next

	d, err := h.deals.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, d)
}

func (h *DealHandler) List(c *gin.Context) {
	if clientID := c.Query("client_id"); clientID != "" {
		deals, err := h.deals.ListByClient(c.Request.Context(), common.ID(clientID))
		if err != nil {
			respondError(c, err)
			return
		}
		respond(c, http.StatusOK, deals)
		return
	}

	deals, err := h.deals.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, deals)
}

func (h *DealHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "dealID")
	if !ok {
		return
	}
	d, err := h.deals.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, d)
}

type updateDealRequest struct {
	Title     *string          `json:"title"`
	Value     *decimal.Decimal `json:"value"`
	ContactID *string          `json:"contact_id"`
}

func (h *DealHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "dealID")
	if !ok {
		return
	}
	var req updateDealRequest
	if !bindJSON(c, &req) {
		return
	}

	in := pipeline.UpdateDealInput{DealID: id, Title: req.Title, Value: req.Value}
	if req.ContactID != nil {
		cid := common.ID(*req.ContactID)
		in.ContactID = &cid
	}

	d, err := h.deals.Update(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, d)
}

func (h *DealHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "dealID")
	if !ok {
		return
	}
	if err := h.deals.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type changeStatusRequest struct {
	Target       string           `json:"target" binding:"required"`
	ClosingValue *decimal.Decimal `json:"closing_value"`
	LostReason   string           `json:"lost_reason"`
}

func (h *DealHandler) ChangeStatus(c *gin.Context) {
	id, ok := pathID(c, "dealID")
	if !ok {
		return
	}
	var req changeStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	d, err := h.deals.ChangeStatus(c.Request.Context(), pipeline.ChangeStatusInput{
		DealID:       id,
		Target:       deal.Status(req.Target),
		ClosingValue: req.ClosingValue,
		LostReason:   req.LostReason,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, d)
}

// LogFollowUp accepts multipart form data so a voice memo can ride along
// with the notes.  Plain JSON bodies work too when there is no audio.
func (h *DealHandler) LogFollowUp(c *gin.Context) {
	id, ok := pathID(c, "dealID")
	if !ok {
		return
	}

	in := pipeline.LogFollowUpInput{DealID: id}

	contentType := c.ContentType()
	if contentType == "multipart/form-data" {
		if err := h.bindFollowUpForm(c, &in); err != nil {
			respondError(c, err)
			return
		}
	} else {
		var req struct {
			Notes       string `json:"notes"`
			Interaction string `json:"interaction_status"`
			Moment      string `json:"moment"`
			Next        string `json:"next_follow_up"`
		}
		if !bindJSON(c, &req) {
			return
		}
		in.Notes = req.Notes
		in.Interaction = deal.InteractionStatus(req.Interaction)
		if m, err := parseMoment(req.Moment); err != nil {
			respondError(c, errors.Validation("invalid moment").WithCause(err))
			return
		} else if m != nil {
			in.Moment = *m
		}
		next, err := parseMoment(req.Next)
		if err != nil {
			respondError(c, errors.Validation("invalid next_follow_up").WithCause(err))
			return
		}
		in.Next = next
	}

	d, err := h.deals.LogFollowUp(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, d)
}

func (h *DealHandler) bindFollowUpForm(c *gin.Context, in *pipeline.LogFollowUpInput) error {
	in.Notes = c.PostForm("notes")
	in.Interaction = deal.InteractionStatus(c.PostForm("interaction_status"))

	if m, err := parseMoment(c.PostForm("moment")); err != nil {
		return errors.Validation("invalid moment").WithCause(err)
	} else if m != nil {
		in.Moment = *m
	}
	next, err := parseMoment(c.PostForm("next_follow_up"))
	if err != nil {
		return errors.Validation("invalid next_follow_up").WithCause(err)
	}
	in.Next = next

	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil
		}
		return errors.Validation("invalid audio upload").WithCause(err)
	}
	if header.Size > maxAudioSize {
		return errors.Validation("audio attachment exceeds the size limit")
	}
	in.Audio = file
	in.AudioContentType = header.Header.Get("Content-Type")
	in.AudioSize = header.Size
	return nil
}

// AudioURL issues a short-lived download link for a follow-up's voice memo.
func (h *DealHandler) AudioURL(c *gin.Context) {
	dealID, ok := pathID(c, "dealID")
	if !ok {
		return
	}
	followUpID, ok := pathID(c, "followUpID")
	if !ok {
		return
	}

	url, err := h.deals.AudioURL(c.Request.Context(), dealID, followUpID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"url": url})
}
