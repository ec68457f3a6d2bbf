// Package deal defines the Deal aggregate: a tracked sales opportunity with
// a monetary value, a status governed by a single transition table, and an
// append-only list of logged follow-up contacts.
package deal

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Status enumeration and transition table
// ─────────────────────────────────────────────────────────────────────────────

// Status is the lifecycle state of a deal.
type Status string

const (
	// StatusSent is the initial state: the proposal has gone out and no
	// contact has been logged yet.
	StatusSent Status = "sent"

	// StatusFollowingUp means at least one follow-up has been logged or the
	// deal was reactivated; the deal may carry a next-follow-up date.
	StatusFollowingUp Status = "following_up"

	// StatusOnHold freezes the deal without deciding it.  Frozen deals carry
	// no next-follow-up date and reject new follow-ups until reactivated.
	StatusOnHold Status = "on_hold"

	// StatusWon is terminal; entering it requires a non-negative closing value.
	StatusWon Status = "won"

	// StatusLost is terminal; entering it requires a lost reason.
	StatusLost Status = "lost"
)

// IsValid reports whether s is a known status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusSent, StatusFollowingUp, StatusOnHold, StatusWon, StatusLost:
		return true
	}
	return false
}

// IsTerminal reports whether s is a decided outcome.
func (s Status) IsTerminal() bool {
	return s == StatusWon || s == StatusLost
}

// IsFrozen reports whether s rejects new follow-ups and clears scheduling.
// ON_HOLD behaves like the terminal states for scheduling purposes.
func (s Status) IsFrozen() bool {
	return s == StatusOnHold || s.IsTerminal()
}

// IsOpen reports whether the deal is an active pipeline candidate for the
// task classifier (SENT or FOLLOWING_UP).
func (s Status) IsOpen() bool {
	return s == StatusSent || s == StatusFollowingUp
}

// transitions is the single source of truth for legal status changes.
// Every legality check goes through CanTransition; no call site re-checks
// on its own.
var transitions = map[Status][]Status{
	StatusSent:        {StatusFollowingUp, StatusOnHold, StatusWon, StatusLost},
	StatusFollowingUp: {StatusOnHold, StatusWon, StatusLost},
	StatusOnHold:      {StatusFollowingUp},
	StatusWon:         {StatusFollowingUp},
	StatusLost:        {StatusFollowingUp},
}

// CanTransition reports whether the from → to pair is in the allowed table.
func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// InteractionStatus records the outcome of a single follow-up contact.
type InteractionStatus string

const (
	InteractionCompleted       InteractionStatus = "completed"
	InteractionRescheduled     InteractionStatus = "rescheduled"
	InteractionWaitingResponse InteractionStatus = "waiting_response"
)

// IsValid reports whether i is a known interaction status.
func (i InteractionStatus) IsValid() bool {
	switch i {
	case InteractionCompleted, InteractionRescheduled, InteractionWaitingResponse:
		return true
	}
	return false
}

// ─────────────────────────────────────────────────────────────────────────────
// FollowUp value object
// ─────────────────────────────────────────────────────────────────────────────

// FollowUp is an immutable logged contact event.  FollowUps are only ever
// appended to a deal; the core never edits or removes one.
type FollowUp struct {
	ID          common.ID         `json:"id"`
	Moment      schedule.Moment   `json:"moment"`
	Notes       string            `json:"notes"`
	Interaction InteractionStatus `json:"interaction_status"`

	// AudioRef is an opaque reference into the attachment store.  Notes may
	// be empty only when an audio attachment is present.
	AudioRef string `json:"audio_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Deal aggregate
// ─────────────────────────────────────────────────────────────────────────────

// Deal is the aggregate root for a sales opportunity.
//
// Invariant: NextFollowUp is non-nil only while Status is SENT or
// FOLLOWING_UP.  ChangeStatus and AddFollowUp are the only mutation entry
// points; both append to Log so the deal's history can be replayed.
type Deal struct {
	ID        common.ID     `json:"id"`
	ClientID  common.ID     `json:"client_id"`
	ContactID *common.ID    `json:"contact_id,omitempty"`
	OwnerID   common.UserID `json:"owner_id"`
	Title     string        `json:"title"`

	Value  decimal.Decimal `json:"value"`
	Status Status          `json:"status"`

	// DateSent is date-only: the calendar day the proposal went out.
	DateSent schedule.Moment `json:"date_sent"`

	NextFollowUp *schedule.Moment `json:"next_follow_up,omitempty"`
	FollowUps    []FollowUp       `json:"follow_ups"`

	LostReason   string           `json:"lost_reason,omitempty"`
	ClosingValue *decimal.Decimal `json:"closing_value,omitempty"`

	// Log is the ordered record of every ChangeStatus and AddFollowUp
	// applied since creation.  Replaying it from a fresh SENT deal
	// reconstructs Status and NextFollowUp deterministically.
	Log []ChangeRecord `json:"log"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDeal creates a deal in the initial SENT status with an empty follow-up
// list.
func NewDeal(clientID common.ID, ownerID common.UserID, title string, value decimal.Decimal, dateSent schedule.Moment) (*Deal, error) {
	if clientID == "" {
		return nil, errors.Validation("client id is required")
	}
	if strings.TrimSpace(title) == "" {
		return nil, errors.Validation("deal title is required")
	}
	if value.IsNegative() {
		return nil, errors.Validation("deal value must not be negative")
	}
	if dateSent.IsZero() {
		return nil, errors.Validation("date sent is required")
	}

	now := time.Now().UTC()
	return &Deal{
		ID:        common.NewID(),
		ClientID:  clientID,
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(title),
		Value:     value,
		Status:    StatusSent,
		DateSent:  schedule.DateOf(dateSent.Time()),
		FollowUps: []FollowUp{},
		Log:       []ChangeRecord{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Deal State Machine
// ─────────────────────────────────────────────────────────────────────────────

// StatusChange carries the context a transition may require.
type StatusChange struct {
	// ClosingValue is required (non-negative) when the target is WON.
	ClosingValue *decimal.Decimal

	// LostReason is required when the target is LOST.
	LostReason string
}

// ChangeStatus moves the deal to target after consulting the transition
// table.  Side effects:
//   - ON_HOLD / WON / LOST clear NextFollowUp.
//   - Reactivation back to FOLLOWING_UP leaves NextFollowUp nil; the caller
//     schedules separately, a prior value is never auto-restored.
//
// A rejected transition leaves the deal unchanged.
func (d *Deal) ChangeStatus(target Status, chg StatusChange) error {
	if !target.IsValid() {
		return errors.New(errors.ErrCodeDealInvalidTransition, "unknown status").
			WithDetail(string(target))
	}
	chg.LostReason = strings.TrimSpace(chg.LostReason)

	from := d.Status
	if err := d.applyTransition(target, chg); err != nil {
		return err
	}

	now := time.Now().UTC()
	d.Log = append(d.Log, ChangeRecord{
		Kind:         ChangeStatusChanged,
		At:           now,
		From:         from,
		Target:       target,
		ClosingValue: chg.ClosingValue,
		LostReason:   chg.LostReason,
	})
	d.UpdatedAt = now
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Follow-up Scheduler
// ─────────────────────────────────────────────────────────────────────────────

// FollowUpInput carries the parameters for logging one follow-up contact.
type FollowUpInput struct {
	Notes       string
	AudioRef    string
	Interaction InteractionStatus

	// Moment is when the contact happened, at the caller's chosen precision.
	// Zero means "now" at instant precision.
	Moment schedule.Moment

	// Next is the new next-follow-up date; nil clears the schedule.
	Next *schedule.Moment
}

// AddFollowUp appends an immutable follow-up record, replaces NextFollowUp
// with in.Next (which may be nil), and forces SENT → FOLLOWING_UP.  It has
// no other side effects: notifications and triage are recomputed by
// consumers on demand.
//
// Frozen deals (WON, LOST, ON_HOLD) reject follow-ups; a terminal deal must
// be reactivated first.
func (d *Deal) AddFollowUp(in FollowUpInput) (*FollowUp, error) {
	if strings.TrimSpace(in.Notes) == "" && in.AudioRef == "" {
		return nil, errors.New(errors.ErrCodeFollowUpEmpty,
			"a follow-up needs notes or an audio attachment")
	}
	if d.Status.IsFrozen() {
		return nil, errors.New(errors.ErrCodeDealFrozen, "deal does not accept follow-ups").
			WithDetail(string(d.Status))
	}

	interaction := in.Interaction
	if interaction == "" {
		interaction = InteractionWaitingResponse
	}
	if !interaction.IsValid() {
		return nil, errors.Validation("unknown interaction status").WithDetail(string(in.Interaction))
	}

	moment := in.Moment
	if moment.IsZero() {
		moment = schedule.Now()
	}

	now := time.Now().UTC()
	fu := FollowUp{
		ID:          common.NewID(),
		Moment:      moment,
		Notes:       strings.TrimSpace(in.Notes),
		Interaction: interaction,
		AudioRef:    in.AudioRef,
		CreatedAt:   now,
	}
	d.FollowUps = append(d.FollowUps, fu)
	d.NextFollowUp = in.Next
	if d.Status == StatusSent {
		d.Status = StatusFollowingUp
	}

	d.Log = append(d.Log, ChangeRecord{
		Kind:         ChangeFollowUpLogged,
		At:           now,
		Notes:        fu.Notes,
		AudioRef:     fu.AudioRef,
		Interaction:  interaction,
		Moment:       &moment,
		NextFollowUp: in.Next,
	})
	d.UpdatedAt = now
	return &fu, nil
}

// Validate checks the aggregate's internal consistency.  Repositories call
// it after scanning a row back out of storage.
func (d *Deal) Validate() error {
	if err := d.ID.Validate(); err != nil {
		return errors.Validation("deal id is invalid").WithCause(err)
	}
	if !d.Status.IsValid() {
		return errors.Validation("deal status is invalid").WithDetail(string(d.Status))
	}
	if d.Status.IsFrozen() && d.NextFollowUp != nil {
		return errors.Validation("frozen deal must not carry a next follow-up date")
	}
	if d.Status == StatusLost && d.LostReason == "" {
		return errors.Validation("lost deal must carry a lost reason")
	}
	return nil
}
