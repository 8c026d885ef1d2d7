package media

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sweetshop/sweets-api/internal/core/ports"
	"github.com/sweetshop/sweets-api/internal/pkg/config"
)

// S3Uploader is the S3-compatible driver.
// Works with AWS S3, Cloudflare R2, DigitalOcean Spaces and MinIO.
type S3Uploader struct {
	client  *s3.Client
	bucket  string
	folder  string
	baseURL string
}

func NewS3Uploader(ctx context.Context, cfg config.S3Config, folder string) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("media/s3: S3_BUCKET is not configured")
	}

	opts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Region),
	}
	// Static credentials (required for R2 / Spaces / MinIO)
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConf, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("media/s3: load config: %w", err)
	}

	clientOpts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	baseURL := cfg.PublicURL
	if baseURL == "" {
		if cfg.Endpoint != "" {
			baseURL = joinURL(cfg.Endpoint, cfg.Bucket)
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &S3Uploader{
		client:  s3.NewFromConfig(awsConf, clientOpts...),
		bucket:  cfg.Bucket,
		folder:  folder,
		baseURL: baseURL,
	}, nil
}

// Upload stores f under a fresh key and returns its public URL.
func (u *S3Uploader) Upload(ctx context.Context, f ports.MediaFile) (url string, err error) {
	defer func(start time.Time) { observe(config.MediaDriverS3, start, err) }(time.Now())

	key := objectKey(u.folder, f.Filename)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(f.Data),
		ContentType: aws.String(contentType(f)),
	})
	if err != nil {
		return "", fmt.Errorf("media/s3: put %s: %w", key, err)
	}
	return joinURL(u.baseURL, key), nil
}
