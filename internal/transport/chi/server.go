// Package chi exposes the gateway's HTTP API: search, delete, upload and
// document registration handlers plus health and metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/evidence-exchange/searchgw/internal/domain"
	domdoc "github.com/evidence-exchange/searchgw/internal/domain/document"
	domsearch "github.com/evidence-exchange/searchgw/internal/domain/search"
	logpkg "github.com/evidence-exchange/searchgw/internal/logger"
	documentuc "github.com/evidence-exchange/searchgw/internal/usecase/document"
	healthuc "github.com/evidence-exchange/searchgw/internal/usecase/health"
	semanticuc "github.com/evidence-exchange/searchgw/internal/usecase/semantic"
	uploaduc "github.com/evidence-exchange/searchgw/internal/usecase/upload"
)

// maxUploadBytes caps raw upload bodies.
const maxUploadBytes = 64 << 20

type searchService interface {
	Search(ctx context.Context, req domsearch.Request) ([]domsearch.Result, error)
	SearchPDF(ctx context.Context, searchText string) ([]domsearch.Result, error)
}

type semanticService interface {
	Search(ctx context.Context, req semanticuc.Request) ([]domsearch.Result, error)
}

type documentService interface {
	Delete(ctx context.Context, req documentuc.DeleteRequest) (string, error)
	Index(ctx context.Context, raw domdoc.Raw) (string, error)
	RegisterPDF(ctx context.Context, blobName string) (string, error)
}

type uploadService interface {
	UploadFile(ctx context.Context, filename string, data []byte) error
	UploadHTML(ctx context.Context, pageURL, body string) (uploaduc.HTMLResult, error)
}

type healthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	search    searchService
	semantic  semanticService
	documents documentService
	uploads   uploadService
	health    healthService
}

// NewServer creates an HTTP API server.
func NewServer(
	search searchService,
	semantic semanticService,
	documents documentService,
	uploads uploadService,
	health healthService,
) *Server {
	return &Server{
		search:    search,
		semantic:  semantic,
		documents: documents,
		uploads:   uploads,
		health:    health,
	}
}

// Register mounts all routes on the router.
func (s *Server) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/delete", s.handleDelete)
		r.Post("/search", s.handleSearch)
		r.Post("/search/pdf", s.handleSearchPDF)
		r.Post("/search/semantic", s.handleSemanticSearch)
		r.Post("/upload", s.handleUpload)
		r.Post("/upload/html", s.handleUploadHTML)
		r.Post("/documents", s.handleIndexDocument)
		r.Post("/documents/pdf", s.handleRegisterPDF)
	})
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req documentuc.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	summary, err := s.documents.Delete(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, summary)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req domsearch.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeResults(w, results)
}

func (s *Server) handleSearchPDF(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SearchText string `json:"search_text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := s.search.SearchPDF(r.Context(), req.SearchText)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeResults(w, results)
}

func (s *Server) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req semanticuc.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	results, err := s.semantic.Search(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeResults(w, results)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := s.uploads.UploadFile(r.Context(), filename, data); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"filename": filename})
}

func (s *Server) handleUploadHTML(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL  string `json:"url"`
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.uploads.UploadHTML(r.Context(), req.URL, req.Body)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusAccepted, res)
}

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	var raw domdoc.Raw
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.documents.Index(r.Context(), raw)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleRegisterPDF(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BlobName string `json:"blob_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := s.documents.RegisterPDF(r.Context(), req.BlobName)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"id": id})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// writeDomainError maps sentinel errors to status codes, logging through the
// request-scoped logger. Upstream detail stays in the log; the client sees
// only the sentinel text.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context())
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUpstreamRejected):
		logger.Error("Upstream rejected request", zap.Error(err))
		writeError(w, http.StatusBadGateway, domain.ErrUpstreamRejected.Error())
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		logger.Error("Upstream unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, domain.ErrUpstreamUnavailable.Error())
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		logger.Error("Embedding provider unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, domain.ErrEmbeddingUnavailable.Error())
	default:
		logger.Error("Internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, result any) {
	writeJSON(w, status, map[string]any{
		"status": "success",
		"result": result,
	})
}

func writeResults(w http.ResponseWriter, results []domsearch.Result) {
	if results == nil {
		results = []domsearch.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"count":   len(results),
		"results": results,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"status":  "error",
		"message": message,
	})
}
