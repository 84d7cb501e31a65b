// Package semantic implements reranked semantic search with extractive
// captions and embedding-based vector search over the HTML index.
package semantic

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/evidence-exchange/searchgw/internal/config"
	"github.com/evidence-exchange/searchgw/internal/domain"
	domdoc "github.com/evidence-exchange/searchgw/internal/domain/document"
	domsearch "github.com/evidence-exchange/searchgw/internal/domain/search"
	"github.com/evidence-exchange/searchgw/internal/transport/azsearch"
)

const defaultK = 50

// Modes accepted in the request body.
const (
	ModeSemantic = "semantic"
	ModeVector   = "vector"
)

var selectFields = []string{"title", "summary", "content", "domain", "embedded_urls"}

// Service runs semantic and vector searches.
type Service struct {
	search         Searcher
	embedder       Embedder
	index          string
	semanticConfig string
	vectorField    string
	logger         *zap.Logger
}

// New creates a semantic search service. embedder may be nil when no
// embedding provider is configured; vector search then reports unavailable.
func New(search Searcher, embedder Embedder, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		search:         search,
		embedder:       embedder,
		index:          cfg.Search.Index,
		semanticConfig: cfg.Search.SemanticConfiguration,
		vectorField:    cfg.Search.VectorField,
		logger:         logger,
	}
}

// Request is the semantic search body. Type defaults to vector.
type Request struct {
	Query string `json:"query"`
	Type  string `json:"type"`
	K     int    `json:"k"`
}

// Search dispatches to semantic or vector search based on the request type.
func (s *Service) Search(ctx context.Context, req Request) ([]domsearch.Result, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrInvalidRequest)
	}
	k := req.K
	if k <= 0 {
		k = defaultK
	}

	switch strings.ToLower(req.Type) {
	case ModeSemantic:
		return s.semanticSearch(ctx, req.Query, k)
	case ModeVector, "":
		return s.vectorSearch(ctx, req.Query, k)
	default:
		return nil, fmt.Errorf("type must be %q or %q: %w", ModeSemantic, ModeVector, domain.ErrInvalidRequest)
	}
}

// semanticSearch uses the index's semantic configuration with extractive
// captions; results carry the reranker score.
func (s *Service) semanticSearch(ctx context.Context, query string, k int) ([]domsearch.Result, error) {
	hits, _, err := s.search.Search(ctx, s.index, azsearch.Query{
		SearchText:            query,
		QueryType:             "semantic",
		SemanticConfiguration: s.semanticConfig,
		Captions:              "extractive",
		Select:                selectFields,
		Top:                   k,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}

	results := make([]domsearch.Result, 0, len(hits))
	for _, hit := range hits {
		r := domsearch.Result{
			Title:         stringValue(hit.Fields["title"]),
			Summary:       stringValue(hit.Fields["summary"]),
			Domain:        stringValue(hit.Fields["domain"]),
			URL:           domsearch.FirstURL(domdoc.ParseArrayField(hit.Fields["embedded_urls"])),
			Score:         hit.Score,
			RerankerScore: hit.RerankerScore,
		}
		if len(hit.Captions) > 0 {
			c := hit.Captions[0]
			if c.Highlights != "" {
				r.Caption = c.Highlights
			} else {
				r.Caption = c.Text
			}
		}
		results = append(results, r)
	}
	return results, nil
}

// vectorSearch embeds the query and runs a KNN query against the vector field.
func (s *Service) vectorSearch(ctx context.Context, query string, k int) ([]domsearch.Result, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("no embedding provider configured: %w", domain.ErrEmbeddingUnavailable)
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, _, err := s.search.Search(ctx, s.index, azsearch.Query{
		SearchText:   "*",
		Select:       selectFields,
		Vector:       vector,
		VectorK:      k,
		VectorFields: s.vectorField,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]domsearch.Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, domsearch.Result{
			Title:   stringValue(hit.Fields["title"]),
			Summary: stringValue(hit.Fields["summary"]),
			Content: stringValue(hit.Fields["content"]),
			Domain:  stringValue(hit.Fields["domain"]),
			URL:     domsearch.FirstURL(domdoc.ParseArrayField(hit.Fields["embedded_urls"])),
			Score:   hit.Score,
		})
	}
	return results, nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
