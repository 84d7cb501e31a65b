package search

import (
	"context"

	"github.com/evidence-exchange/searchgw/internal/transport/azsearch"
)

// Searcher is the index query contract.
type Searcher interface {
	Search(ctx context.Context, index string, q azsearch.Query) ([]azsearch.Result, int64, error)
}
