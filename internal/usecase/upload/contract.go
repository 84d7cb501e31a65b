package upload

import "context"

// BlobWriter is the storage contract for uploads.
type BlobWriter interface {
	Upload(ctx context.Context, container, name string, data []byte, contentType string, metadata map[string]string) error
	EnsureContainer(ctx context.Context, container string) error
}
