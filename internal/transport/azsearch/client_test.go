package azsearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/evidence-exchange/searchgw/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(&Config{
		Endpoint:   srv.URL,
		APIKey:     "test-key",
		APIVersion: "2023-11-01",
		Logger:     zap.NewNop(),
	})
	return client, srv
}

func TestSearch_SendsRequestAndParsesResults(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"@odata.count": 2,
			"value": []map[string]any{
				{
					"@search.score":      1.5,
					"@search.highlights": map[string]any{"content": []any{"<em>mentoring</em>"}},
					"id":                 "doc-1",
					"content":            "mentoring programs",
				},
				{
					"@search.score": 0.7,
					"id":            "doc-2",
				},
			},
		})
	})

	results, count, err := client.Search(context.Background(), "html-index", Query{
		SearchText: "mentoring",
		Select:     []string{"id", "content"},
		Top:        10,
		Count:      true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/indexes/html-index/docs/search?api-version=2023-11-01" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api-key header = %q", gotKey)
	}
	if gotBody["search"] != "mentoring" || gotBody["select"] != "id,content" {
		t.Errorf("request body = %v", gotBody)
	}

	if count != 2 {
		t.Errorf("count = %d", count)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d", len(results))
	}
	if results[0].Score != 1.5 || results[0].Fields["id"] != "doc-1" {
		t.Errorf("first result = %+v", results[0])
	}
	if len(results[0].Highlights["content"]) != 1 {
		t.Errorf("highlights = %v", results[0].Highlights)
	}
	if _, leaked := results[0].Fields["@search.score"]; leaked {
		t.Error("service metadata leaked into fields")
	}
}

func TestSearch_VectorQuery(t *testing.T) {
	var gotBody struct {
		VectorQueries []map[string]any `json:"vectorQueries"`
	}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"value":[]}`))
	})

	_, _, err := client.Search(context.Background(), "html-index", Query{
		Vector:       []float32{0.1, 0.2},
		VectorK:      5,
		VectorFields: "content_vector",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gotBody.VectorQueries) != 1 {
		t.Fatalf("vectorQueries = %v", gotBody.VectorQueries)
	}
	vq := gotBody.VectorQueries[0]
	if vq["kind"] != "vector" || vq["fields"] != "content_vector" || vq["k"] != float64(5) {
		t.Errorf("vector query = %v", vq)
	}
}

func TestSearch_SemanticCaptions(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"value":[{
			"@search.rerankerScore": 2.8,
			"@search.captions": [{"text":"caption text","highlights":"<em>caption</em> text"}],
			"id": "doc-1"
		}]}`))
	})

	results, _, err := client.Search(context.Background(), "html-index", Query{
		SearchText:            "mentoring",
		QueryType:             "semantic",
		SemanticConfiguration: "default",
		Captions:              "extractive",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].RerankerScore != 2.8 {
		t.Errorf("reranker score = %v", results[0].RerankerScore)
	}
	if len(results[0].Captions) != 1 || results[0].Captions[0].Text != "caption text" {
		t.Errorf("captions = %+v", results[0].Captions)
	}
}

func TestIndexBatch_AddsActionAndParsesOutcomes(t *testing.T) {
	var gotBody struct {
		Value []map[string]any `json:"value"`
	}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/indexes/html-index/docs/index" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"value":[{"key":"doc-1","status":true,"statusCode":200}]}`))
	})

	outcomes, err := client.IndexBatch(context.Background(), "html-index", []Action{
		{Type: "mergeOrUpload", Document: map[string]any{"id": "doc-1", "title": "t"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody.Value[0]["@search.action"] != "mergeOrUpload" || gotBody.Value[0]["id"] != "doc-1" {
		t.Errorf("batch body = %v", gotBody.Value)
	}
	if len(outcomes) != 1 || !outcomes[0].Succeeded || outcomes[0].Key != "doc-1" {
		t.Errorf("outcomes = %+v", outcomes)
	}
}

func TestDeleteDocuments(t *testing.T) {
	var gotBody struct {
		Value []map[string]any `json:"value"`
	}

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"value":[{"key":"doc-1","status":true,"statusCode":200}]}`))
	})

	_, err := client.DeleteDocuments(context.Background(), "html-index", "id", []string{"doc-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody.Value[0]["@search.action"] != "delete" || gotBody.Value[0]["id"] != "doc-1" {
		t.Errorf("batch body = %v", gotBody.Value)
	}
}

func TestSearch_BadRequestMapsToRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid expression: syntax error"}}`))
	})

	_, _, err := client.Search(context.Background(), "html-index", Query{SearchText: "x"})
	if !errors.Is(err, domain.ErrUpstreamRejected) {
		t.Fatalf("expected ErrUpstreamRejected, got %v", err)
	}

	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatal("expected UpstreamError")
	}
	if ue.Status != http.StatusBadRequest || ue.Detail != "Invalid expression: syntax error" {
		t.Errorf("upstream error = %+v", ue)
	}
}

func TestSearch_ServerErrorMapsToUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, _, err := client.Search(context.Background(), "html-index", Query{SearchText: "x"})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestSearch_NetworkErrorMapsToUnavailable(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, _, err := client.Search(context.Background(), "html-index", Query{SearchText: "x"})
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}
