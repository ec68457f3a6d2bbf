package agenda

import (
	"context"
	"time"

	"github.com/vperelman/dealflow/internal/domain/client"
	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/internal/domain/reminder"
	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/prometheus"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// Service assembles and classifies the seller's agenda.
type Service interface {
	// Compute builds the triage for one seller.  An empty ownerID computes
	// the agenda across all sellers.
	Compute(ctx context.Context, ownerID common.UserID) (*Triage, error)

	// Notify computes the triage and derives its notifications.
	Notify(ctx context.Context, ownerID common.UserID) ([]Notification, error)
}

type service struct {
	deals     deal.Repository
	reminders reminder.Repository
	clients   client.Repository
	metrics   *prometheus.Metrics
	now       func() time.Time
	logger    logging.Logger
}

// NewService wires the agenda service.  metrics may be nil.
func NewService(
	deals deal.Repository,
	reminders reminder.Repository,
	clients client.Repository,
	metrics *prometheus.Metrics,
	log logging.Logger,
) Service {
	return &service{
		deals:     deals,
		reminders: reminders,
		clients:   clients,
		metrics:   metrics,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    log.Named("agenda"),
	}
}

func (s *service) Compute(ctx context.Context, ownerID common.UserID) (*Triage, error) {
	started := s.now()

	deals, err := s.deals.FindOpenScheduled(ctx)
	if err != nil {
		return nil, err
	}
	reminders, err := s.reminders.FindPending(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(deals)+len(reminders))
	names := map[common.ID]string{}
	for _, d := range deals {
		if ownerID != "" && d.OwnerID != ownerID {
			continue
		}
		name, ok := names[d.ClientID]
		if !ok {
			c, err := s.clients.FindByID(ctx, d.ClientID)
			if err != nil {
				// A deal whose client vanished still belongs on the agenda.
				s.logger.Warn("client lookup failed during triage",
					logging.String("client_id", string(d.ClientID)),
					logging.Err(err),
				)
			} else {
				name = c.Name
			}
			names[d.ClientID] = name
		}
		value := d.Value
		tasks = append(tasks, Task{
			Kind:       TaskDealFollowUp,
			DealID:     d.ID,
			ClientID:   d.ClientID,
			ClientName: name,
			OwnerID:    d.OwnerID,
			Title:      d.Title,
			Due:        *d.NextFollowUp,
			Value:      &value,
		})
	}
	for _, r := range reminders {
		tasks = append(tasks, Task{
			Kind:       TaskReminder,
			ReminderID: r.ID,
			OwnerID:    r.OwnerID,
			Title:      r.Title,
			Due:        r.Moment,
		})
	}

	now := s.now()
	tr := Classify(tasks, schedule.DateOf(now), now)

	if s.metrics != nil {
		risk, _ := tr.ValueAtRisk.Float64()
		s.metrics.ObserveTriage(now.Sub(started),
			len(tr.Overdue), len(tr.Today), len(tr.Upcoming), risk)
	}
	s.logger.Debug("triage computed",
		logging.Int("overdue", len(tr.Overdue)),
		logging.Int("today", len(tr.Today)),
		logging.Int("upcoming", len(tr.Upcoming)),
		logging.String("value_at_risk", tr.ValueAtRisk.String()),
	)
	return &tr, nil
}

func (s *service) Notify(ctx context.Context, ownerID common.UserID) ([]Notification, error) {
	tr, err := s.Compute(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	notifications := Notifications(*tr)
	if s.metrics != nil {
		for _, n := range notifications {
			s.metrics.NotificationsTotal.WithLabelValues(string(n.Kind)).Inc()
		}
	}
	return notifications, nil
}
