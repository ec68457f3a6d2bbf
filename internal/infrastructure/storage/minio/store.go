// Package minio stores follow-up audio attachments in an S3-compatible
// bucket.  The domain carries only the opaque object key (FollowUp.AudioRef);
// this package owns key layout, upload, download and presigned access.
package minio

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vperelman/dealflow/internal/config"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/pkg/errors"
)

// minioAPI abstracts the minio client for tests.
type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error)
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
}

// AudioStore is the attachment-store contract consumed by the pipeline
// service.
type AudioStore interface {
	// Upload stores an audio attachment for a deal and returns the opaque
	// object key to record as FollowUp.AudioRef.
	Upload(ctx context.Context, dealID string, contentType string, size int64, r io.Reader) (string, error)

	// Download streams the attachment behind an object key.
	Download(ctx context.Context, audioRef string) (io.ReadCloser, error)

	// PresignedURL returns a time-limited direct GET URL for an attachment.
	PresignedURL(ctx context.Context, audioRef string) (string, error)

	Delete(ctx context.Context, audioRef string) error
}

type audioStore struct {
	api           minioAPI
	bucket        string
	presignExpiry time.Duration
	logger        logging.Logger
}

// NewAudioStore connects to the object store and ensures the bucket exists.
func NewAudioStore(cfg config.MinIOConfig, log logging.Logger) (AudioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to create object store client")
	}

	s := &audioStore{
		api:           client,
		bucket:        cfg.Bucket,
		presignExpiry: cfg.PresignExpiry,
		logger:        log,
	}
	if err := s.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	log.Info("connected to object store",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
	)
	return s, nil
}

// NewAudioStoreWithAPI wires an existing API client.  For tests.
func NewAudioStoreWithAPI(api minioAPI, bucket string, presignExpiry time.Duration, log logging.Logger) AudioStore {
	return &audioStore{api: api, bucket: bucket, presignExpiry: presignExpiry, logger: log}
}

func (s *audioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to check bucket")
	}
	if exists {
		return nil
	}
	if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create bucket")
	}
	return nil
}

// objectKey shards attachments by deal so one deal's recordings list
// together.
func objectKey(dealID string) string {
	return fmt.Sprintf("followups/%s/%s.audio", dealID, uuid.NewString())
}

func (s *audioStore) Upload(ctx context.Context, dealID string, contentType string, size int64, r io.Reader) (string, error) {
	key := objectKey(dealID)
	_, err := s.api.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to upload audio attachment")
	}
	s.logger.Debug("uploaded audio attachment",
		logging.String("deal_id", dealID),
		logging.String("key", key),
		logging.Int64("size", size),
	)
	return key, nil
}

func (s *audioStore) Download(ctx context.Context, audioRef string) (io.ReadCloser, error) {
	obj, err := s.api.GetObject(ctx, s.bucket, audioRef, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to fetch audio attachment")
	}
	// GetObject is lazy; Stat forces the first round trip so a missing key
	// surfaces here rather than on first Read.
	if _, err := s.api.StatObject(ctx, s.bucket, audioRef, minio.StatObjectOptions{}); err != nil {
		_ = obj.Close()
		return nil, errors.Wrap(err, errors.ErrCodeNotFound, "audio attachment not found").
			WithDetail(audioRef)
	}
	return obj, nil
}

func (s *audioStore) PresignedURL(ctx context.Context, audioRef string) (string, error) {
	u, err := s.api.PresignedGetObject(ctx, s.bucket, audioRef, s.presignExpiry, url.Values{})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to presign audio URL")
	}
	return u.String(), nil
}

func (s *audioStore) Delete(ctx context.Context, audioRef string) error {
	if err := s.api.RemoveObject(ctx, s.bucket, audioRef, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to delete audio attachment")
	}
	return nil
}
