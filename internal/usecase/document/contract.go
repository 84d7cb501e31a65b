package document

import (
	"context"

	"github.com/evidence-exchange/searchgw/internal/transport/azsearch"
)

// Searcher is the index contract for document lookups and action batches.
type Searcher interface {
	Search(ctx context.Context, index string, q azsearch.Query) ([]azsearch.Result, int64, error)
	IndexBatch(ctx context.Context, index string, actions []azsearch.Action) ([]azsearch.ActionResult, error)
	DeleteDocuments(ctx context.Context, index, keyField string, keys []string) ([]azsearch.ActionResult, error)
}

// BlobMover archives content blobs out of the live containers.
type BlobMover interface {
	Move(ctx context.Context, srcContainer, dstContainer, name string) error
}
