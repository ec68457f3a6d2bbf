package deal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/pkg/errors"
)

// ChangeKind tags one entry of a deal's mutation log.
type ChangeKind string

const (
	ChangeStatusChanged  ChangeKind = "status_changed"
	ChangeFollowUpLogged ChangeKind = "follow_up_logged"
)

// ChangeRecord is one entry of the ordered mutation log.  It captures the
// operation's parameters, not the resulting state, so that replaying the log
// exercises the same code paths as the live mutations did.
type ChangeRecord struct {
	Kind ChangeKind `json:"kind"`
	At   time.Time  `json:"at"`

	// Status change fields.
	From         Status           `json:"from,omitempty"`
	Target       Status           `json:"target,omitempty"`
	ClosingValue *decimal.Decimal `json:"closing_value,omitempty"`
	LostReason   string           `json:"lost_reason,omitempty"`

	// Follow-up fields.
	Notes        string            `json:"notes,omitempty"`
	AudioRef     string            `json:"audio_ref,omitempty"`
	Interaction  InteractionStatus `json:"interaction_status,omitempty"`
	Moment       *schedule.Moment  `json:"moment,omitempty"`
	NextFollowUp *schedule.Moment  `json:"next_follow_up,omitempty"`
}

// Replay applies an ordered change log to a fresh SENT deal and returns the
// reconstructed final status and next-follow-up date.  Replay is
// deterministic: the same log always yields the same result, and a log that
// the transition table would have rejected live is rejected here too.
func Replay(log []ChangeRecord) (Status, *schedule.Moment, error) {
	d := &Deal{
		ID:        "replay",
		Status:    StatusSent,
		FollowUps: []FollowUp{},
	}

	for _, rec := range log {
		switch rec.Kind {
		case ChangeStatusChanged:
			chg := StatusChange{ClosingValue: rec.ClosingValue, LostReason: rec.LostReason}
			if err := d.applyTransition(rec.Target, chg); err != nil {
				return "", nil, errors.Wrap(err, errors.ErrCodeValidation, "replay rejected at entry").
					WithDetail(rec.At.Format(time.RFC3339))
			}
		case ChangeFollowUpLogged:
			if d.Status == StatusSent {
				d.Status = StatusFollowingUp
			}
			d.NextFollowUp = rec.NextFollowUp
		default:
			return "", nil, errors.Validation("unknown change kind in log").WithDetail(string(rec.Kind))
		}
	}

	return d.Status, d.NextFollowUp, nil
}

// applyTransition enforces the transition table and per-target requirements
// and mutates status, closing value, lost reason, and the scheduling
// invariant.  It does not touch the log: ChangeStatus appends after a
// successful application, Replay consumes an existing log.
func (d *Deal) applyTransition(target Status, chg StatusChange) error {
	if !CanTransition(d.Status, target) {
		return errors.New(errors.ErrCodeDealInvalidTransition, "illegal status transition").
			WithDetail(string(d.Status) + " -> " + string(target))
	}
	switch target {
	case StatusWon:
		if chg.ClosingValue == nil {
			return errors.New(errors.ErrCodeDealClosingValue, "closing value is required to mark a deal won")
		}
		if chg.ClosingValue.IsNegative() {
			return errors.New(errors.ErrCodeDealClosingValue, "closing value must not be negative").
				WithDetail(chg.ClosingValue.String())
		}
		v := *chg.ClosingValue
		d.ClosingValue = &v
	case StatusLost:
		if chg.LostReason == "" {
			return errors.New(errors.ErrCodeDealLostReason, "a reason is required to mark a deal lost")
		}
		d.LostReason = chg.LostReason
	}
	d.Status = target
	if target.IsFrozen() {
		d.NextFollowUp = nil
	}
	return nil
}
