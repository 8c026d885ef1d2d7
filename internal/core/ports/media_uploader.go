package ports

import "context"

// MediaFile is a single uploaded image held in memory.
type MediaFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MediaUploader stores a blob on the media host and returns its public URL.
type MediaUploader interface {
	Upload(ctx context.Context, file MediaFile) (string, error)
}
