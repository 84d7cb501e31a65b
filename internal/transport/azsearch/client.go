// Package azsearch is a thin REST client for the Azure AI Search documents
// API. The service has no official Go SDK, so requests are issued directly
// against the documents endpoints.
package azsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/evidence-exchange/searchgw/internal/domain"
	"github.com/evidence-exchange/searchgw/internal/metrics"
)

const serviceLabel = "search"

// Client issues search and indexing calls against one search service.
// Index names are passed per call; the client is safe for concurrent use.
type Client struct {
	endpoint   string
	apiKey     string
	apiVersion string
	httpc      *http.Client
	logger     *zap.Logger
}

// Config holds the search service settings.
type Config struct {
	Endpoint   string
	APIKey     string
	APIVersion string
	Timeout    time.Duration
	Logger     *zap.Logger
}

// New creates a search client.
func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:     cfg.APIKey,
		apiVersion: cfg.APIVersion,
		httpc:      &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}
}

// Query describes a single documents/search call.
type Query struct {
	SearchText            string
	Filter                string
	Select                []string
	Top                   int
	QueryType             string // "simple" or "semantic"
	SemanticConfiguration string
	Captions              string
	Highlight             []string
	Count                 bool
	Vector                []float32
	VectorK               int
	VectorFields          string
}

// Result is a single hit with its service-assigned relevance metadata.
type Result struct {
	Score         float64
	RerankerScore float64
	Highlights    map[string][]string
	Captions      []Caption
	Fields        map[string]any
}

// Caption is a semantic answer fragment extracted by the service.
type Caption struct {
	Text       string `json:"text"`
	Highlights string `json:"highlights"`
}

// Action is one document operation in an indexing batch.
type Action struct {
	Type     string // "upload", "mergeOrUpload" or "delete"
	Document map[string]any
}

// ActionResult is the per-document outcome of an indexing batch.
type ActionResult struct {
	Key          string `json:"key"`
	Succeeded    bool   `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	StatusCode   int    `json:"statusCode"`
}

type searchRequest struct {
	Search                string        `json:"search,omitempty"`
	Filter                string        `json:"filter,omitempty"`
	Select                string        `json:"select,omitempty"`
	Top                   int           `json:"top,omitempty"`
	QueryType             string        `json:"queryType,omitempty"`
	SemanticConfiguration string        `json:"semanticConfiguration,omitempty"`
	Captions              string        `json:"captions,omitempty"`
	Highlight             string        `json:"highlight,omitempty"`
	Count                 bool          `json:"count,omitempty"`
	VectorQueries         []vectorQuery `json:"vectorQueries,omitempty"`
}

type vectorQuery struct {
	Kind   string    `json:"kind"`
	Vector []float32 `json:"vector"`
	K      int       `json:"k"`
	Fields string    `json:"fields"`
}

type searchResponse struct {
	Count int64            `json:"@odata.count"`
	Value []map[string]any `json:"value"`
}

// Search runs a documents/search call against the named index and returns the
// hits with their relevance metadata plus the total count (when requested).
func (c *Client) Search(ctx context.Context, index string, q Query) ([]Result, int64, error) {
	body := searchRequest{
		Search:                q.SearchText,
		Filter:                q.Filter,
		Select:                strings.Join(q.Select, ","),
		Top:                   q.Top,
		QueryType:             q.QueryType,
		SemanticConfiguration: q.SemanticConfiguration,
		Captions:              q.Captions,
		Highlight:             strings.Join(q.Highlight, ","),
		Count:                 q.Count,
	}
	if len(q.Vector) > 0 {
		body.VectorQueries = []vectorQuery{{
			Kind:   "vector",
			Vector: q.Vector,
			K:      q.VectorK,
			Fields: q.VectorFields,
		}}
	}

	var resp searchResponse
	if err := c.post(ctx, index, "search", body, &resp); err != nil {
		return nil, 0, err
	}

	results := make([]Result, 0, len(resp.Value))
	for _, raw := range resp.Value {
		results = append(results, splitResult(raw))
	}
	return results, resp.Count, nil
}

type indexBatchRequest struct {
	Value []map[string]any `json:"value"`
}

type indexBatchResponse struct {
	Value []ActionResult `json:"value"`
}

// IndexBatch submits a batch of document actions to the named index and
// returns the per-document outcomes. A batch-level failure (bad index, auth)
// surfaces as an error; per-document failures are in the results.
func (c *Client) IndexBatch(ctx context.Context, index string, actions []Action) ([]ActionResult, error) {
	value := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		doc := make(map[string]any, len(a.Document)+1)
		for k, v := range a.Document {
			doc[k] = v
		}
		doc["@search.action"] = a.Type
		value = append(value, doc)
	}

	var resp indexBatchResponse
	if err := c.post(ctx, index, "index", indexBatchRequest{Value: value}, &resp); err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// DeleteDocuments deletes documents by key field.
func (c *Client) DeleteDocuments(ctx context.Context, index, keyField string, keys []string) ([]ActionResult, error) {
	actions := make([]Action, 0, len(keys))
	for _, key := range keys {
		actions = append(actions, Action{
			Type:     "delete",
			Document: map[string]any{keyField: key},
		})
	}
	return c.IndexBatch(ctx, index, actions)
}

// Ping verifies index reachability with a zero-result query.
func (c *Client) Ping(ctx context.Context, index string) error {
	_, _, err := c.Search(ctx, index, Query{SearchText: "*", Top: 1})
	return err
}

// post issues a documents API call. operation is both the URL suffix under
// /docs and the metrics label ("search" or "index").
func (c *Client) post(ctx context.Context, index, operation string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/%s?api-version=%s",
		c.endpoint, index, operation, c.apiVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpc.Do(req)
	duration := time.Since(start)

	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(serviceLabel, operation, "error").Inc()
		c.logger.Error("Search service unreachable",
			zap.String("operation", operation),
			zap.String("index", index),
			zap.Error(err))
		return domain.NewUpstreamUnavailable(0, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(serviceLabel, operation, "error").Inc()
		return domain.NewUpstreamUnavailable(resp.StatusCode, "read response: "+err.Error())
	}

	if resp.StatusCode >= 400 {
		metrics.UpstreamRequestsTotal.WithLabelValues(serviceLabel, operation, "error").Inc()
		detail := extractErrorMessage(data)
		c.logger.Error("Search service error",
			zap.String("operation", operation),
			zap.String("index", index),
			zap.Int("status", resp.StatusCode),
			zap.String("detail", detail))
		if resp.StatusCode >= 500 {
			return domain.NewUpstreamUnavailable(resp.StatusCode, detail)
		}
		return domain.NewUpstreamRejected(resp.StatusCode, detail)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(serviceLabel, operation, "success").Inc()
	metrics.UpstreamRequestDuration.WithLabelValues(serviceLabel, operation).Observe(duration.Seconds())

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return domain.NewUpstreamUnavailable(resp.StatusCode, "decode response: "+err.Error())
		}
	}
	return nil
}

// splitResult separates service metadata keys (the "@search." prefix) from
// document fields.
func splitResult(raw map[string]any) Result {
	r := Result{Fields: make(map[string]any, len(raw))}
	for k, v := range raw {
		switch k {
		case "@search.score":
			if f, ok := v.(float64); ok {
				r.Score = f
			}
		case "@search.rerankerScore":
			if f, ok := v.(float64); ok {
				r.RerankerScore = f
			}
		case "@search.highlights":
			r.Highlights = toHighlights(v)
		case "@search.captions":
			r.Captions = toCaptions(v)
		default:
			if !strings.HasPrefix(k, "@") {
				r.Fields[k] = v
			}
		}
	}
	return r
}

func toHighlights(v any) map[string][]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(m))
	for field, val := range m {
		items, ok := val.([]any)
		if !ok {
			continue
		}
		fragments := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				fragments = append(fragments, s)
			}
		}
		out[field] = fragments
	}
	return out
}

func toCaptions(v any) []Caption {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Caption, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		c := Caption{}
		if s, ok := m["text"].(string); ok {
			c.Text = s
		}
		if s, ok := m["highlights"].(string); ok {
			c.Highlights = s
		}
		out = append(out, c)
	}
	return out
}

// extractErrorMessage pulls the message out of the service error envelope.
func extractErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return strings.TrimSpace(string(body))
}
