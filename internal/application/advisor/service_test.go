package advisor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vperelman/dealflow/internal/application/agenda"
	"github.com/vperelman/dealflow/internal/domain/client"
	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/internal/domain/schedule"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/internal/intelligence/assistant"
	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

type mockAssistant struct{ mock.Mock }

func (m *mockAssistant) Complete(ctx context.Context, req assistant.Request) (*assistant.Response, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*assistant.Response), args.Error(1)
	}
	return nil, args.Error(1)
}

type stubAgenda struct{ mock.Mock }

func (m *stubAgenda) Compute(ctx context.Context, ownerID common.UserID) (*agenda.Triage, error) {
	args := m.Called(ctx, ownerID)
	if tr := args.Get(0); tr != nil {
		return tr.(*agenda.Triage), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *stubAgenda) Notify(ctx context.Context, ownerID common.UserID) ([]agenda.Notification, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]agenda.Notification), args.Error(1)
}

type stubDealRepo struct{ mock.Mock }

func (m *stubDealRepo) Create(ctx context.Context, d *deal.Deal) error { return m.Called(ctx, d).Error(0) }
func (m *stubDealRepo) FindByID(ctx context.Context, id common.ID) (*deal.Deal, error) {
	args := m.Called(ctx, id)
	if d := args.Get(0); d != nil {
		return d.(*deal.Deal), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *stubDealRepo) FindAll(ctx context.Context) ([]*deal.Deal, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*deal.Deal), args.Error(1)
}
func (m *stubDealRepo) FindByClientID(ctx context.Context, clientID common.ID) ([]*deal.Deal, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).([]*deal.Deal), args.Error(1)
}
func (m *stubDealRepo) FindOpenScheduled(ctx context.Context) ([]*deal.Deal, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*deal.Deal), args.Error(1)
}
func (m *stubDealRepo) FindDecidedSince(ctx context.Context, since time.Time) ([]*deal.Deal, error) {
	args := m.Called(ctx, since)
	return args.Get(0).([]*deal.Deal), args.Error(1)
}
func (m *stubDealRepo) Update(ctx context.Context, d *deal.Deal) error { return m.Called(ctx, d).Error(0) }
func (m *stubDealRepo) Delete(ctx context.Context, id common.ID) error { return m.Called(ctx, id).Error(0) }

type stubClientRepo struct{ mock.Mock }

func (m *stubClientRepo) Create(ctx context.Context, c *client.Client) error {
	return m.Called(ctx, c).Error(0)
}
func (m *stubClientRepo) FindByID(ctx context.Context, id common.ID) (*client.Client, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*client.Client), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *stubClientRepo) FindAll(ctx context.Context, ownerID common.UserID, p *common.Pagination) ([]*client.Client, error) {
	args := m.Called(ctx, ownerID, p)
	return args.Get(0).([]*client.Client), args.Error(1)
}
func (m *stubClientRepo) Update(ctx context.Context, c *client.Client) error {
	return m.Called(ctx, c).Error(0)
}
func (m *stubClientRepo) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

type advisorFixture struct {
	ai      *mockAssistant
	agenda  *stubAgenda
	deals   *stubDealRepo
	clients *stubClientRepo
	svc     Service
}

func newAdvisorFixture() *advisorFixture {
	f := &advisorFixture{
		ai:      &mockAssistant{},
		agenda:  &stubAgenda{},
		deals:   &stubDealRepo{},
		clients: &stubClientRepo{},
	}
	f.svc = NewService(f.ai, f.agenda, f.deals, f.clients, nil, logging.NewNopLogger())
	return f
}

func emptyTriage() *agenda.Triage {
	return &agenda.Triage{
		Overdue:     []agenda.Task{},
		Today:       []agenda.Task{},
		Upcoming:    []agenda.Task{},
		ValueAtRisk: decimal.Zero,
	}
}

func TestDailyBriefingFromAssistant(t *testing.T) {
	f := newAdvisorFixture()
	f.agenda.On("Compute", mock.Anything, common.UserID("seller-1")).Return(emptyTriage(), nil)
	f.ai.On("Complete", mock.Anything, mock.AnythingOfType("assistant.Request")).
		Return(&assistant.Response{Text: "All clear today."}, nil)

	draft, err := f.svc.DailyBriefing(context.Background(), "seller-1", "Vera")
	require.NoError(t, err)
	assert.True(t, draft.FromAssistant)
	assert.Equal(t, "All clear today.", draft.Text)
}

func TestDailyBriefingFallsBack(t *testing.T) {
	f := newAdvisorFixture()
	tr := emptyTriage()
	v := decimal.NewFromInt(7000)
	tr.Overdue = []agenda.Task{{
		Kind:       agenda.TaskDealFollowUp,
		ClientName: "Acme",
		Title:      "CRM licences",
		Due:        schedule.Date(2026, 8, 20),
		Value:      &v,
	}}
	tr.ValueAtRisk = v

	f.agenda.On("Compute", mock.Anything, common.UserID("seller-1")).Return(tr, nil)
	f.ai.On("Complete", mock.Anything, mock.AnythingOfType("assistant.Request")).
		Return(nil, errors.New(errors.ErrCodeAssistantTimeout, "slow"))

	draft, err := f.svc.DailyBriefing(context.Background(), "seller-1", "Vera")
	require.NoError(t, err)
	assert.False(t, draft.FromAssistant)
	assert.Contains(t, draft.Text, "1 overdue")
	assert.Contains(t, draft.Text, "Acme")
}

func TestSuggestGoalParsesStructuredReply(t *testing.T) {
	f := newAdvisorFixture()
	f.deals.On("FindDecidedSince", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*deal.Deal{}, nil)
	f.ai.On("Complete", mock.Anything, mock.AnythingOfType("assistant.Request")).
		Return(&assistant.Response{Text: `{"goal": 12000, "rationale": "trending up"}`}, nil)

	got, err := f.svc.SuggestGoal(context.Background(), "seller-1", decimal.NewFromInt(10000))
	require.NoError(t, err)
	assert.True(t, got.FromAssistant)
	assert.True(t, got.Goal.Equal(decimal.NewFromInt(12000)))
	assert.Equal(t, "trending up", got.Rationale)
}

func TestSuggestGoalFallsBackOnBadJSON(t *testing.T) {
	f := newAdvisorFixture()
	f.deals.On("FindDecidedSince", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*deal.Deal{}, nil)
	f.ai.On("Complete", mock.Anything, mock.AnythingOfType("assistant.Request")).
		Return(&assistant.Response{Text: "maybe aim higher?"}, nil)

	got, err := f.svc.SuggestGoal(context.Background(), "seller-1", decimal.NewFromInt(10000))
	require.NoError(t, err)
	assert.False(t, got.FromAssistant)
	// No won deals in the window: the current goal is kept.
	assert.True(t, got.Goal.Equal(decimal.NewFromInt(10000)))
}

func TestReengagementDraftFallback(t *testing.T) {
	f := newAdvisorFixture()
	c, err := client.New("seller-1", "Acme GmbH")
	require.NoError(t, err)

	f.clients.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.deals.On("FindByClientID", mock.Anything, c.ID).Return([]*deal.Deal{}, nil)
	f.ai.On("Complete", mock.Anything, mock.AnythingOfType("assistant.Request")).
		Return(nil, errors.New(errors.ErrCodeAssistantUnavailable, "disabled"))

	draft, err := f.svc.ReengagementDraft(context.Background(), c.ID)
	require.NoError(t, err)
	assert.False(t, draft.FromAssistant)
	assert.Contains(t, draft.Text, "Acme GmbH")
}

func TestDraftFollowUpEmailAddressesContact(t *testing.T) {
	f := newAdvisorFixture()
	c, err := client.New("seller-1", "Acme GmbH")
	require.NoError(t, err)
	contact, err := c.AddContact("Nils Berg", "CTO", "", "")
	require.NoError(t, err)

	d, err := deal.NewDeal(c.ID, "seller-1", "CRM licences", decimal.NewFromInt(9000),
		schedule.Date(2026, 8, 1))
	require.NoError(t, err)
	d.ContactID = &contact.ID

	f.deals.On("FindByID", mock.Anything, d.ID).Return(d, nil)
	f.clients.On("FindByID", mock.Anything, c.ID).Return(c, nil)
	f.ai.On("Complete", mock.Anything, mock.MatchedBy(func(req assistant.Request) bool {
		// The prompt names the contact the deal points at.
		return strings.Contains(req.Prompt, "Nils Berg") &&
			strings.Contains(req.Prompt, "CRM licences")
	})).Return(nil, errors.New(errors.ErrCodeAssistantUnavailable, "disabled"))

	draft, err := f.svc.DraftFollowUpEmail(context.Background(), d.ID)
	require.NoError(t, err)
	assert.False(t, draft.FromAssistant)
	assert.Contains(t, draft.Text, "Nils Berg")
	assert.Contains(t, draft.Text, "Subject: Following up on CRM licences")
}
