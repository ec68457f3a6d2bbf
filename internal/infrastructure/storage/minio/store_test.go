package minio

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucket, key, size, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *mockAPI) GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (*minio.Object, error) {
	args := m.Called(ctx, bucket, key, opts)
	obj, _ := args.Get(0).(*minio.Object)
	return obj, args.Error(1)
}

func (m *mockAPI) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	return m.Called(ctx, bucket, key, opts).Error(0)
}

func (m *mockAPI) StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucket, key, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *mockAPI) PresignedGetObject(ctx context.Context, bucket, key string, expiry time.Duration, params url.Values) (*url.URL, error) {
	args := m.Called(ctx, bucket, key, expiry, params)
	u, _ := args.Get(0).(*url.URL)
	return u, args.Error(1)
}

func (m *mockAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	args := m.Called(ctx, bucket)
	return args.Bool(0), args.Error(1)
}

func (m *mockAPI) MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucket, opts).Error(0)
}

func TestObjectKey_ShardsByDeal(t *testing.T) {
	k1 := objectKey("deal-1")
	k2 := objectKey("deal-1")

	assert.True(t, strings.HasPrefix(k1, "followups/deal-1/"))
	assert.True(t, strings.HasSuffix(k1, ".audio"))
	assert.NotEqual(t, k1, k2, "keys must be unique per upload")
}

func TestUpload_ReturnsOpaqueKey(t *testing.T) {
	api := new(mockAPI)
	store := NewAudioStoreWithAPI(api, "dealflow-audio", time.Minute, logging.NewNopLogger())

	api.On("PutObject", mock.Anything, "dealflow-audio",
		mock.MatchedBy(func(key string) bool { return strings.HasPrefix(key, "followups/d1/") }),
		int64(4), mock.Anything).
		Return(minio.UploadInfo{Size: 4}, nil)

	key, err := store.Upload(context.Background(), "d1", "audio/ogg", 4, bytes.NewReader([]byte("data")))
	require.NoError(t, err)
	assert.Contains(t, key, "followups/d1/")
	api.AssertExpectations(t)
}

func TestPresignedURL(t *testing.T) {
	api := new(mockAPI)
	store := NewAudioStoreWithAPI(api, "dealflow-audio", 15*time.Minute, logging.NewNopLogger())

	want, _ := url.Parse("https://minio.local/dealflow-audio/followups/d1/x.audio?sig=abc")
	api.On("PresignedGetObject", mock.Anything, "dealflow-audio", "followups/d1/x.audio",
		15*time.Minute, mock.Anything).
		Return(want, nil)

	got, err := store.PresignedURL(context.Background(), "followups/d1/x.audio")
	require.NoError(t, err)
	assert.Equal(t, want.String(), got)
}

func TestDelete_PropagatesFailure(t *testing.T) {
	api := new(mockAPI)
	store := NewAudioStoreWithAPI(api, "dealflow-audio", time.Minute, logging.NewNopLogger())

	api.On("RemoveObject", mock.Anything, "dealflow-audio", "followups/d1/x.audio", mock.Anything).
		Return(assert.AnError)

	assert.Error(t, store.Delete(context.Background(), "followups/d1/x.audio"))
}
