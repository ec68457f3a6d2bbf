// Package pipeline provides the application-level services for the sales
// pipeline: deals, reminders and clients.  It sits between the HTTP/CLI
// interfaces and the domain aggregates, owning persistence orchestration,
// audio attachments, event publication and cache invalidation.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vperelman/dealflow/internal/domain/client"
	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/internal/infrastructure/database/redis"
	"github.com/vperelman/dealflow/internal/infrastructure/messaging/kafka"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/prometheus"
	"github.com/vperelman/dealflow/internal/infrastructure/storage/minio"
	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// insightsCachePrefix is the key class holding memoised dashboard snapshots.
// Every deal mutation invalidates it so insights never serve a decided deal
// as still open.
const insightsCachePrefix = "insights"

// eventPublisher is the slice of the Kafka producer the services need.
type eventPublisher interface {
	PublishAsync(topic, key string, payload interface{})
}

// DealService drives the deal aggregate's lifecycle.
type DealService interface {
	Create(ctx context.Context, in CreateDealInput) (*deal.Deal, error)
	GetByID(ctx context.Context, id common.ID) (*deal.Deal, error)
	List(ctx context.Context) ([]*deal.Deal, error)
	ListByClient(ctx context.Context, clientID common.ID) ([]*deal.Deal, error)
	ChangeStatus(ctx context.Context, in ChangeStatusInput) (*deal.Deal, error)
	LogFollowUp(ctx context.Context, in LogFollowUpInput) (*deal.Deal, error)
	Update(ctx context.Context, in UpdateDealInput) (*deal.Deal, error)
	Delete(ctx context.Context, id common.ID) error
	AudioURL(ctx context.Context, dealID common.ID, followUpID common.ID) (string, error)
}

// CreateDealInput carries the fields for opening a deal.
type CreateDealInput struct {
	ClientID  common.ID
	ContactID *common.ID
	OwnerID   common.UserID
	Title     string
	Value     decimal.Decimal

	// DateSent defaults to today when zero.
	DateSent schedule.Moment

	// NextFollowUp optionally schedules the first follow-up at creation.
	NextFollowUp *schedule.Moment
}

// ChangeStatusInput carries a requested status transition.
type ChangeStatusInput struct {
	DealID       common.ID
	Target       deal.Status
	ClosingValue *decimal.Decimal
	LostReason   string
}

// LogFollowUpInput carries one follow-up contact.  Audio, when non-nil, is
// uploaded to the attachment store before the domain mutation runs.
type LogFollowUpInput struct {
	DealID      common.ID
	Notes       string
	Interaction deal.InteractionStatus
	Moment      schedule.Moment
	Next        *schedule.Moment

	Audio            io.Reader
	AudioContentType string
	AudioSize        int64
}

// UpdateDealInput edits descriptive fields only; status and schedule always
// move through ChangeStatus and LogFollowUp.
type UpdateDealInput struct {
	DealID    common.ID
	Title     *string
	Value     *decimal.Decimal
	ContactID *common.ID
}

type dealService struct {
	deals   deal.Repository
	clients client.Repository
	audio   minio.AudioStore
	cache   redis.Cache
	events  eventPublisher
	metrics *prometheus.Metrics
	logger  logging.Logger
}

// NewDealService wires a DealService.  audio, cache, events and metrics may
// be nil; the service degrades to pure persistence.
func NewDealService(
	deals deal.Repository,
	clients client.Repository,
	audio minio.AudioStore,
	cache redis.Cache,
	events eventPublisher,
	metrics *prometheus.Metrics,
	log logging.Logger,
) DealService {
	return &dealService{
		deals:   deals,
		clients: clients,
		audio:   audio,
		cache:   cache,
		events:  events,
		metrics: metrics,
		logger:  log.Named("pipeline.deals"),
	}
}

func (s *dealService) Create(ctx context.Context, in CreateDealInput) (*deal.Deal, error) {
	if _, err := s.clients.FindByID(ctx, in.ClientID); err != nil {
		return nil, err
	}

	dateSent := in.DateSent
	if dateSent.IsZero() {
		dateSent = schedule.Today()
	}

	d, err := deal.NewDeal(in.ClientID, in.OwnerID, in.Title, in.Value, dateSent)
	if err != nil {
		return nil, err
	}
	d.ContactID = in.ContactID
	d.NextFollowUp = in.NextFollowUp

	if err := s.deals.Create(ctx, d); err != nil {
		return nil, err
	}

	s.invalidateInsights(ctx)
	s.logger.Info("deal created",
		logging.String("deal_id", string(d.ID)),
		logging.String("client_id", string(d.ClientID)),
	)
	return d, nil
}

func (s *dealService) GetByID(ctx context.Context, id common.ID) (*deal.Deal, error) {
	return s.deals.FindByID(ctx, id)
}

func (s *dealService) List(ctx context.Context) ([]*deal.Deal, error) {
	return s.deals.FindAll(ctx)
}

func (s *dealService) ListByClient(ctx context.Context, clientID common.ID) ([]*deal.Deal, error) {
	return s.deals.FindByClientID(ctx, clientID)
}

func (s *dealService) ChangeStatus(ctx context.Context, in ChangeStatusInput) (*deal.Deal, error) {
	d, err := s.deals.FindByID(ctx, in.DealID)
	if err != nil {
		return nil, err
	}

	from := d.Status
	if err := d.ChangeStatus(in.Target, deal.StatusChange{
		ClosingValue: in.ClosingValue,
		LostReason:   in.LostReason,
	}); err != nil {
		return nil, err
	}

	if err := s.deals.Update(ctx, d); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.DealStatusChangesTotal.WithLabelValues(string(in.Target)).Inc()
	}
	if s.events != nil {
		s.events.PublishAsync(kafka.TopicDealStatusChanged, string(d.ID), kafka.DealStatusChangedPayload{
			DealID:       string(d.ID),
			ClientID:     string(d.ClientID),
			OwnerID:      string(d.OwnerID),
			From:         string(from),
			To:           string(d.Status),
			ClosingValue: d.ClosingValue,
			LostReason:   d.LostReason,
			ChangedAt:    d.UpdatedAt,
		})
	}
	s.invalidateInsights(ctx)

	s.logger.Info("deal status changed",
		logging.String("deal_id", string(d.ID)),
		logging.String("from", string(from)),
		logging.String("to", string(d.Status)),
	)
	return d, nil
}

func (s *dealService) LogFollowUp(ctx context.Context, in LogFollowUpInput) (*deal.Deal, error) {
	d, err := s.deals.FindByID(ctx, in.DealID)
	if err != nil {
		return nil, err
	}

	audioRef := ""
	if in.Audio != nil {
		if s.audio == nil {
			return nil, errors.New(errors.ErrCodeExternalService, "audio storage is not configured")
		}
		audioRef, err = s.audio.Upload(ctx, string(d.ID), in.AudioContentType, in.AudioSize, in.Audio)
		if err != nil {
			return nil, err
		}
	}

	fu, err := d.AddFollowUp(deal.FollowUpInput{
		Notes:       in.Notes,
		AudioRef:    audioRef,
		Interaction: in.Interaction,
		Moment:      in.Moment,
		Next:        in.Next,
	})
	if err != nil {
		s.discardAudio(ctx, audioRef)
		return nil, err
	}

	if err := s.deals.Update(ctx, d); err != nil {
		s.discardAudio(ctx, audioRef)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.FollowUpsLoggedTotal.Inc()
	}
	if s.events != nil {
		var next *time.Time
		if d.NextFollowUp != nil {
			t := d.NextFollowUp.Time()
			next = &t
		}
		s.events.PublishAsync(kafka.TopicFollowUpLogged, string(d.ID), kafka.FollowUpLoggedPayload{
			DealID:       string(d.ID),
			ClientID:     string(d.ClientID),
			OwnerID:      string(d.OwnerID),
			FollowUpID:   string(fu.ID),
			HasAudio:     fu.AudioRef != "",
			NextFollowUp: next,
			LoggedAt:     fu.CreatedAt,
		})
	}
	s.invalidateInsights(ctx)

	s.logger.Info("follow-up logged",
		logging.String("deal_id", string(d.ID)),
		logging.String("follow_up_id", string(fu.ID)),
		logging.Bool("has_audio", fu.AudioRef != ""),
	)
	return d, nil
}

func (s *dealService) Update(ctx context.Context, in UpdateDealInput) (*deal.Deal, error) {
	d, err := s.deals.FindByID(ctx, in.DealID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		if *in.Title == "" {
			return nil, errors.Validation("deal title is required")
		}
		d.Title = *in.Title
	}
	if in.Value != nil {
		if in.Value.IsNegative() {
			return nil, errors.Validation("deal value must not be negative")
		}
		d.Value = *in.Value
	}
	if in.ContactID != nil {
		d.ContactID = in.ContactID
	}
	d.UpdatedAt = time.Now().UTC()

	if err := s.deals.Update(ctx, d); err != nil {
		return nil, err
	}
	s.invalidateInsights(ctx)
	return d, nil
}

func (s *dealService) Delete(ctx context.Context, id common.ID) error {
	d, err := s.deals.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.deals.Delete(ctx, id); err != nil {
		return err
	}

	// Attachments are removed best effort after the row is gone.
	for _, fu := range d.FollowUps {
		s.discardAudio(ctx, fu.AudioRef)
	}
	s.invalidateInsights(ctx)
	return nil
}

func (s *dealService) AudioURL(ctx context.Context, dealID common.ID, followUpID common.ID) (string, error) {
	d, err := s.deals.FindByID(ctx, dealID)
	if err != nil {
		return "", err
	}
	for _, fu := range d.FollowUps {
		if fu.ID == followUpID && fu.AudioRef != "" {
			return s.audio.PresignedURL(ctx, fu.AudioRef)
		}
	}
	return "", errors.NotFound("follow-up has no audio attachment").
		WithDetail(string(followUpID))
}

func (s *dealService) discardAudio(ctx context.Context, audioRef string) {
	if audioRef == "" || s.audio == nil {
		return
	}
	if err := s.audio.Delete(ctx, audioRef); err != nil {
		s.logger.Warn("failed to remove audio attachment",
			logging.String("audio_ref", audioRef),
			logging.Err(err),
		)
	}
}

func (s *dealService) invalidateInsights(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.DeleteByPrefix(ctx, insightsCachePrefix); err != nil {
		s.logger.Warn("failed to invalidate insights cache", logging.Err(err))
	}
}
