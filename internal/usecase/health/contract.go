package health

import "context"

// SearchPinger checks search index availability.
type SearchPinger interface {
	Ping(ctx context.Context, index string) error
}

// BlobPinger checks storage account availability.
type BlobPinger interface {
	Ping(ctx context.Context) error
}
