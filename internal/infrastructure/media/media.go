// Package media uploads catalog images to an object-storage media host and
// returns their public URLs.
package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/sweetshop/sweets-api/internal/core/ports"
	"github.com/sweetshop/sweets-api/internal/pkg/config"
	"github.com/sweetshop/sweets-api/internal/pkg/metrics"
)

// New builds the uploader selected by cfg.Driver.
func New(ctx context.Context, cfg config.MediaConfig) (ports.MediaUploader, error) {
	switch cfg.Driver {
	case config.MediaDriverS3:
		return NewS3Uploader(ctx, cfg.S3, cfg.Folder)
	case config.MediaDriverMinio:
		return NewMinioUploader(cfg.Minio, cfg.Folder)
	default:
		return nil, fmt.Errorf("media: unsupported driver %q", cfg.Driver)
	}
}

// objectKey returns folder/<uuid><ext>. The client filename only contributes
// its extension.
func objectKey(folder, filename string) string {
	name := uuid.NewString() + strings.ToLower(path.Ext(filename))
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// contentType trusts a declared image type and otherwise sniffs the bytes.
func contentType(f ports.MediaFile) string {
	if strings.HasPrefix(f.ContentType, "image/") {
		return f.ContentType
	}
	return mimetype.Detect(f.Data).String()
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// observe records the outcome of one upload.
func observe(driver string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.MediaUploadsTotal.WithLabelValues(driver, result).Inc()
	metrics.MediaUploadDuration.WithLabelValues(driver).Observe(time.Since(start).Seconds())
}
