// Package reminder defines standalone reminders: dated notes that feed the
// task classifier alongside deal follow-ups but are never attached to a deal.
package reminder

import (
	"context"
	"strings"
	"time"

	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// Reminder is a free-standing scheduled item.  Completed and Dismissed are
// one-way flags; a reminder with either set is invisible to the classifier.
type Reminder struct {
	ID      common.ID     `json:"id"`
	OwnerID common.UserID `json:"owner_id"`
	Title   string        `json:"title"`
	Notes   string        `json:"notes,omitempty"`

	// Moment is when the reminder is due, at the caller's chosen precision.
	Moment schedule.Moment `json:"moment"`

	Completed bool `json:"completed"`
	Dismissed bool `json:"dismissed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a pending reminder.
func New(ownerID common.UserID, title, notes string, moment schedule.Moment) (*Reminder, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.Validation("reminder title is required")
	}
	if moment.IsZero() {
		return nil, errors.Validation("reminder moment is required")
	}

	now := time.Now().UTC()
	return &Reminder{
		ID:        common.NewID(),
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(title),
		Notes:     strings.TrimSpace(notes),
		Moment:    moment,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsPending reports whether the reminder still belongs in the triage.
func (r *Reminder) IsPending() bool {
	return !r.Completed && !r.Dismissed
}

// Complete marks the reminder done.  Completing a dismissed reminder is a
// validation error; the two flags are mutually exclusive.
func (r *Reminder) Complete() error {
	if r.Dismissed {
		return errors.Validation("a dismissed reminder cannot be completed")
	}
	r.Completed = true
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Dismiss hides the reminder without marking it done.
func (r *Reminder) Dismiss() error {
	if r.Completed {
		return errors.Validation("a completed reminder cannot be dismissed")
	}
	r.Dismissed = true
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Reschedule replaces the due moment on a pending reminder.
func (r *Reminder) Reschedule(moment schedule.Moment) error {
	if !r.IsPending() {
		return errors.Validation("only a pending reminder can be rescheduled")
	}
	if moment.IsZero() {
		return errors.Validation("reminder moment is required")
	}
	r.Moment = moment
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Repository is the persistence port for reminders.
type Repository interface {
	Create(ctx context.Context, r *Reminder) error
	FindByID(ctx context.Context, id common.ID) (*Reminder, error)
	FindAll(ctx context.Context, ownerID common.UserID, pagination *common.Pagination) ([]*Reminder, error)

	// FindPending returns reminders with neither flag set, the classifier's
	// reminder input.
	FindPending(ctx context.Context, ownerID common.UserID) ([]*Reminder, error)

	Update(ctx context.Context, r *Reminder) error
	Delete(ctx context.Context, id common.ID) error
}
