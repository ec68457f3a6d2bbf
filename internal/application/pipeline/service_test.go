package pipeline

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vperelman/dealflow/internal/domain/client"
	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/internal/infrastructure/messaging/kafka"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

type dealServiceFixture struct {
	deals   *mockDealRepo
	clients *mockClientRepo
	audio   *mockAudioStore
	cache   *mockCache
	events  *mockPublisher
	svc     DealService
}

func newDealServiceFixture() *dealServiceFixture {
	f := &dealServiceFixture{
		deals:   &mockDealRepo{},
		clients: &mockClientRepo{},
		audio:   &mockAudioStore{},
		cache:   &mockCache{},
		events:  &mockPublisher{},
	}
	f.svc = NewDealService(f.deals, f.clients, f.audio, f.cache, f.events, nil, logging.NewNopLogger())
	return f
}

func (f *dealServiceFixture) expectInsightsInvalidation() {
	f.cache.On("DeleteByPrefix", mock.Anything, insightsCachePrefix).Return(int64(1), nil)
}

func sampleClient(t *testing.T) *client.Client {
	t.Helper()
	c, err := client.New("seller-1", "Acme GmbH")
	require.NoError(t, err)
	return c
}

func sampleOpenDeal(t *testing.T, c *client.Client) *deal.Deal {
	t.Helper()
	d, err := deal.NewDeal(c.ID, "seller-1", "CRM licences", decimal.NewFromInt(9000),
		schedule.Date(2026, 8, 10))
	require.NoError(t, err)
	return d
}

func TestDealCreateChecksClientExists(t *testing.T) {
	f := newDealServiceFixture()
	f.clients.On("FindByID", mock.Anything, common.ID("missing")).
		Return(nil, errors.New(errors.ErrCodeClientNotFound, "client not found"))

	_, err := f.svc.Create(context.Background(), CreateDealInput{
		ClientID: "missing",
		OwnerID:  "seller-1",
		Title:    "CRM licences",
		Value:    decimal.NewFromInt(9000),
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeClientNotFound))
	f.deals.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDealCreateDefaultsDateSentToToday(t *testing.T) {
	f := newDealServiceFixture()
	c := sampleClient(t)
	f.clients.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.deals.On("Create", mock.Anything, mock.AnythingOfType("*deal.Deal")).Return(nil)
	f.expectInsightsInvalidation()

	next := schedule.Date(2026, 9, 5)
	d, err := f.svc.Create(context.Background(), CreateDealInput{
		ClientID:     c.ID,
		OwnerID:      "seller-1",
		Title:        "CRM licences",
		Value:        decimal.NewFromInt(9000),
		NextFollowUp: &next,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, d.DateSent.CompareDate(schedule.Today()))
	require.NotNil(t, d.NextFollowUp)
	assert.Equal(t, 0, d.NextFollowUp.CompareDate(next))
	f.cache.AssertExpectations(t)
}

func TestDealChangeStatusPublishesAndInvalidates(t *testing.T) {
	f := newDealServiceFixture()
	c := sampleClient(t)
	d := sampleOpenDeal(t, c)
	closing := decimal.NewFromInt(8500)

	f.deals.On("FindByID", mock.Anything, d.ID).Return(d, nil)
	f.deals.On("Update", mock.Anything, d).Return(nil)
	f.expectInsightsInvalidation()
	f.events.On("PublishAsync", kafka.TopicDealStatusChanged, string(d.ID),
		mock.MatchedBy(func(p interface{}) bool {
			payload, ok := p.(kafka.DealStatusChangedPayload)
			return ok && payload.To == "won" && payload.From == "sent" &&
				payload.ClosingValue != nil && payload.ClosingValue.Equal(closing)
		})).Return()

	got, err := f.svc.ChangeStatus(context.Background(), ChangeStatusInput{
		DealID:       d.ID,
		Target:       deal.StatusWon,
		ClosingValue: &closing,
	})
	require.NoError(t, err)
	assert.Equal(t, deal.StatusWon, got.Status)
	f.events.AssertExpectations(t)
	f.cache.AssertExpectations(t)
}

func TestDealChangeStatusRejectedLeavesRepoUntouched(t *testing.T) {
	f := newDealServiceFixture()
	c := sampleClient(t)
	d := sampleOpenDeal(t, c)
	require.NoError(t, d.ChangeStatus(deal.StatusWon, deal.StatusChange{ClosingValue: &d.Value}))

	f.deals.On("FindByID", mock.Anything, d.ID).Return(d, nil)

	_, err := f.svc.ChangeStatus(context.Background(), ChangeStatusInput{
		DealID: d.ID,
		Target: deal.StatusOnHold,
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDealInvalidTransition))
	f.deals.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.events.AssertNotCalled(t, "PublishAsync", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogFollowUpUploadsAudioFirst(t *testing.T) {
	f := newDealServiceFixture()
	c := sampleClient(t)
	d := sampleOpenDeal(t, c)
	audio := strings.NewReader("voice memo bytes")

	f.deals.On("FindByID", mock.Anything, d.ID).Return(d, nil)
	f.audio.On("Upload", mock.Anything, string(d.ID), "audio/m4a", int64(16), audio).
		Return("followups/"+string(d.ID)+"/memo.audio", nil)
	f.deals.On("Update", mock.Anything, d).Return(nil)
	f.expectInsightsInvalidation()
	f.events.On("PublishAsync", kafka.TopicFollowUpLogged, string(d.ID),
		mock.MatchedBy(func(p interface{}) bool {
			payload, ok := p.(kafka.FollowUpLoggedPayload)
			return ok && payload.HasAudio && payload.NextFollowUp == nil
		})).Return()

	got, err := f.svc.LogFollowUp(context.Background(), LogFollowUpInput{
		DealID:           d.ID,
		Interaction:      deal.InteractionWaitingResponse,
		Audio:            audio,
		AudioContentType: "audio/m4a",
		AudioSize:        16,
	})
	require.NoError(t, err)
	assert.Equal(t, deal.StatusFollowingUp, got.Status)
	require.Len(t, got.FollowUps, 1)
	assert.NotEmpty(t, got.FollowUps[0].AudioRef)
	f.audio.AssertExpectations(t)
}

func TestLogFollowUpDiscardsAudioWhenRejected(t *testing.T) {
	f := newDealServiceFixture()
	c := sampleClient(t)
	d := sampleOpenDeal(t, c)
	reason := "budget cut"
	require.NoError(t, d.ChangeStatus(deal.StatusLost, deal.StatusChange{LostReason: reason}))
	audio := strings.NewReader("voice memo bytes")

	f.deals.On("FindByID", mock.Anything, d.ID).Return(d, nil)
	f.audio.On("Upload", mock.Anything, string(d.ID), "audio/m4a", int64(16), audio).
		Return("followups/x/memo.audio", nil)
	f.audio.On("Delete", mock.Anything, "followups/x/memo.audio").Return(nil)

	_, err := f.svc.LogFollowUp(context.Background(), LogFollowUpInput{
		DealID:           d.ID,
		Audio:            audio,
		AudioContentType: "audio/m4a",
		AudioSize:        16,
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDealFrozen))
	f.audio.AssertExpectations(t)
	f.deals.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDealDeleteRemovesAttachments(t *testing.T) {
	f := newDealServiceFixture()
	c := sampleClient(t)
	d := sampleOpenDeal(t, c)
	_, err := d.AddFollowUp(deal.FollowUpInput{AudioRef: "followups/x/a.audio"})
	require.NoError(t, err)

	f.deals.On("FindByID", mock.Anything, d.ID).Return(d, nil)
	f.deals.On("Delete", mock.Anything, d.ID).Return(nil)
	f.audio.On("Delete", mock.Anything, "followups/x/a.audio").Return(nil)
	f.expectInsightsInvalidation()

	require.NoError(t, f.svc.Delete(context.Background(), d.ID))
	f.audio.AssertExpectations(t)
}

func TestAudioURLUnknownFollowUp(t *testing.T) {
	f := newDealServiceFixture()
	c := sampleClient(t)
	d := sampleOpenDeal(t, c)
	f.deals.On("FindByID", mock.Anything, d.ID).Return(d, nil)

	_, err := f.svc.AudioURL(context.Background(), d.ID, common.NewID())
	assert.True(t, errors.IsNotFound(err))
}

func TestReminderCreateValidatesBeforePersisting(t *testing.T) {
	repo := &mockReminderRepo{}
	svc := NewReminderService(repo, logging.NewNopLogger())

	_, err := svc.Create(context.Background(), CreateReminderInput{})
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReminderCreatePersists(t *testing.T) {
	repo := &mockReminderRepo{}
	svc := NewReminderService(repo, logging.NewNopLogger())

	repo.On("Create", mock.Anything, mock.AnythingOfType("*reminder.Reminder")).Return(nil)
	r, err := svc.Create(context.Background(), CreateReminderInput{
		OwnerID: "seller-1",
		Title:   "Renew trade fair booth",
		Moment:  schedule.Date(2026, 10, 1),
	})
	require.NoError(t, err)
	assert.True(t, r.IsPending())
	repo.AssertExpectations(t)
}

func TestClientListClassifiesActivity(t *testing.T) {
	clients := &mockClientRepo{}
	deals := &mockDealRepo{}
	svc := NewClientService(clients, deals, logging.NewNopLogger())
	svc.(*clientService).now = func() time.Time {
		return time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
	}

	c := sampleClient(t)
	d := sampleOpenDeal(t, c)
	clients.On("FindAll", mock.Anything, common.UserID("seller-1"), (*common.Pagination)(nil)).
		Return([]*client.Client{c}, nil)
	deals.On("FindByClientID", mock.Anything, c.ID).Return([]*deal.Deal{d}, nil)

	out, err := svc.List(context.Background(), "seller-1", nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, client.ActivityActive, out[0].Activity.Level)
	// Aug 10 midnight to Aug 29 09:00 is 19.375 days, rounded up.
	assert.Equal(t, 20, out[0].Activity.DaysSince)
	require.NotNil(t, out[0].Activity.LastActivity)
}
