package media

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sweetshop/sweets-api/internal/core/ports"
	"github.com/sweetshop/sweets-api/internal/pkg/config"
)

// minioRegion pins the signing region so the client never issues a bucket
// location lookup before the first upload.
const minioRegion = "us-east-1"

// MinioUploader is the self-hosted MinIO driver.
type MinioUploader struct {
	client  *minio.Client
	bucket  string
	folder  string
	baseURL string
}

func NewMinioUploader(cfg config.MinioConfig, folder string) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: minioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("media/minio: client: %w", err)
	}

	baseURL := cfg.PublicURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &MinioUploader{
		client:  client,
		bucket:  cfg.Bucket,
		folder:  folder,
		baseURL: baseURL,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (u *MinioUploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("media/minio: bucket check: %w", err)
	}
	if exists {
		return nil
	}
	if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: minioRegion}); err != nil {
		return fmt.Errorf("media/minio: make bucket: %w", err)
	}
	return nil
}

// Upload stores f under a fresh key and returns its public URL.
func (u *MinioUploader) Upload(ctx context.Context, f ports.MediaFile) (url string, err error) {
	defer func(start time.Time) { observe(config.MediaDriverMinio, start, err) }(time.Now())

	key := objectKey(u.folder, f.Filename)
	_, err = u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(f.Data), int64(len(f.Data)), minio.PutObjectOptions{
		ContentType: contentType(f),
	})
	if err != nil {
		return "", fmt.Errorf("media/minio: put %s: %w", key, err)
	}
	return joinURL(u.baseURL, key), nil
}
