package pipeline

import (
	"context"

	"github.com/vperelman/dealflow/internal/domain/reminder"
	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// ReminderService manages standalone to-do reminders.
type ReminderService interface {
	Create(ctx context.Context, in CreateReminderInput) (*reminder.Reminder, error)
	GetByID(ctx context.Context, id common.ID) (*reminder.Reminder, error)
	List(ctx context.Context, ownerID common.UserID, p *common.Pagination) ([]*reminder.Reminder, error)
	Complete(ctx context.Context, id common.ID) (*reminder.Reminder, error)
	Dismiss(ctx context.Context, id common.ID) (*reminder.Reminder, error)
	Reschedule(ctx context.Context, id common.ID, moment schedule.Moment) (*reminder.Reminder, error)
	Delete(ctx context.Context, id common.ID) error
}

// CreateReminderInput carries the fields for a new reminder.
type CreateReminderInput struct {
	OwnerID common.UserID
	Title   string
	Notes   string
	Moment  schedule.Moment
}

type reminderService struct {
	reminders reminder.Repository
	logger    logging.Logger
}

// NewReminderService wires a ReminderService.
func NewReminderService(reminders reminder.Repository, log logging.Logger) ReminderService {
	return &reminderService{
		reminders: reminders,
		logger:    log.Named("pipeline.reminders"),
	}
}

func (s *reminderService) Create(ctx context.Context, in CreateReminderInput) (*reminder.Reminder, error) {
	r, err := reminder.New(in.OwnerID, in.Title, in.Notes, in.Moment)
	if err != nil {
		return nil, err
	}
	if err := s.reminders.Create(ctx, r); err != nil {
		return nil, err
	}
	s.logger.Info("reminder created", logging.String("reminder_id", string(r.ID)))
	return r, nil
}

func (s *reminderService) GetByID(ctx context.Context, id common.ID) (*reminder.Reminder, error) {
	return s.reminders.FindByID(ctx, id)
}

func (s *reminderService) List(ctx context.Context, ownerID common.UserID, p *common.Pagination) ([]*reminder.Reminder, error) {
	return s.reminders.FindAll(ctx, ownerID, p)
}

// mutate loads a reminder, applies fn and persists the result.
func (s *reminderService) mutate(ctx context.Context, id common.ID, fn func(*reminder.Reminder) error) (*reminder.Reminder, error) {
	r, err := s.reminders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	if err := s.reminders.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *reminderService) Complete(ctx context.Context, id common.ID) (*reminder.Reminder, error) {
	return s.mutate(ctx, id, func(r *reminder.Reminder) error { return r.Complete() })
}

func (s *reminderService) Dismiss(ctx context.Context, id common.ID) (*reminder.Reminder, error) {
	return s.mutate(ctx, id, func(r *reminder.Reminder) error { return r.Dismiss() })
}

func (s *reminderService) Reschedule(ctx context.Context, id common.ID, moment schedule.Moment) (*reminder.Reminder, error) {
	return s.mutate(ctx, id, func(r *reminder.Reminder) error { return r.Reschedule(moment) })
}

func (s *reminderService) Delete(ctx context.Context, id common.ID) error {
	return s.reminders.Delete(ctx, id)
}
