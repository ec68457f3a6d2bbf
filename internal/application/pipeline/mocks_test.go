package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vperelman/dealflow/internal/domain/client"
	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/internal/domain/reminder"
	"github.com/vperelman/dealflow/pkg/types/common"
)

type mockDealRepo struct{ mock.Mock }

func (m *mockDealRepo) Create(ctx context.Context, d *deal.Deal) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockDealRepo) FindByID(ctx context.Context, id common.ID) (*deal.Deal, error) {
	args := m.Called(ctx, id)
	if d := args.Get(0); d != nil {
		return d.(*deal.Deal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDealRepo) FindAll(ctx context.Context) ([]*deal.Deal, error) {
	args := m.Called(ctx)
	if ds := args.Get(0); ds != nil {
		return ds.([]*deal.Deal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDealRepo) FindByClientID(ctx context.Context, clientID common.ID) ([]*deal.Deal, error) {
	args := m.Called(ctx, clientID)
	if ds := args.Get(0); ds != nil {
		return ds.([]*deal.Deal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDealRepo) FindOpenScheduled(ctx context.Context) ([]*deal.Deal, error) {
	args := m.Called(ctx)
	if ds := args.Get(0); ds != nil {
		return ds.([]*deal.Deal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDealRepo) FindDecidedSince(ctx context.Context, since time.Time) ([]*deal.Deal, error) {
	args := m.Called(ctx, since)
	if ds := args.Get(0); ds != nil {
		return ds.([]*deal.Deal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDealRepo) Update(ctx context.Context, d *deal.Deal) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockDealRepo) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

type mockClientRepo struct{ mock.Mock }

func (m *mockClientRepo) Create(ctx context.Context, c *client.Client) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockClientRepo) FindByID(ctx context.Context, id common.ID) (*client.Client, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*client.Client), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClientRepo) FindAll(ctx context.Context, ownerID common.UserID, p *common.Pagination) ([]*client.Client, error) {
	args := m.Called(ctx, ownerID, p)
	if cs := args.Get(0); cs != nil {
		return cs.([]*client.Client), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClientRepo) Update(ctx context.Context, c *client.Client) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockClientRepo) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

type mockReminderRepo struct{ mock.Mock }

func (m *mockReminderRepo) Create(ctx context.Context, r *reminder.Reminder) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReminderRepo) FindByID(ctx context.Context, id common.ID) (*reminder.Reminder, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*reminder.Reminder), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReminderRepo) FindAll(ctx context.Context, ownerID common.UserID, p *common.Pagination) ([]*reminder.Reminder, error) {
	args := m.Called(ctx, ownerID, p)
	if rs := args.Get(0); rs != nil {
		return rs.([]*reminder.Reminder), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReminderRepo) FindPending(ctx context.Context, ownerID common.UserID) ([]*reminder.Reminder, error) {
	args := m.Called(ctx, ownerID)
	if rs := args.Get(0); rs != nil {
		return rs.([]*reminder.Reminder), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockReminderRepo) Update(ctx context.Context, r *reminder.Reminder) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockReminderRepo) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

type mockAudioStore struct{ mock.Mock }

func (m *mockAudioStore) Upload(ctx context.Context, dealID, contentType string, size int64, r io.Reader) (string, error) {
	args := m.Called(ctx, dealID, contentType, size, r)
	return args.String(0), args.Error(1)
}

func (m *mockAudioStore) Download(ctx context.Context, audioRef string) (io.ReadCloser, error) {
	args := m.Called(ctx, audioRef)
	if rc := args.Get(0); rc != nil {
		return rc.(io.ReadCloser), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAudioStore) PresignedURL(ctx context.Context, audioRef string) (string, error) {
	args := m.Called(ctx, audioRef)
	return args.String(0), args.Error(1)
}

func (m *mockAudioStore) Delete(ctx context.Context, audioRef string) error {
	return m.Called(ctx, audioRef).Error(0)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) PublishAsync(topic, key string, payload interface{}) {
	m.Called(topic, key, payload)
}

type mockCache struct{ mock.Mock }

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	return m.Called(ctx, key, dest).Error(0)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	return m.Called(ctx, key, dest, ttl, loader).Error(0)
}

func (m *mockCache) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockCache) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
