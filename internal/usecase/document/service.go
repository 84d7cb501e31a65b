// Package document implements index document lifecycle: deletion with blob
// archiving, ingestion of raw documents and PDF registration.
package document

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/evidence-exchange/searchgw/internal/config"
	"github.com/evidence-exchange/searchgw/internal/domain"
	domdoc "github.com/evidence-exchange/searchgw/internal/domain/document"
	"github.com/evidence-exchange/searchgw/internal/transport/azsearch"
)

// Service handles document deletion and ingestion.
type Service struct {
	search     Searcher
	blobs      BlobMover
	htmlIndex  string
	pdfIndex   string
	containers config.ContainersConfig
	urlPrefix  string
	logger     *zap.Logger
}

// New creates a document service.
func New(search Searcher, blobs BlobMover, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		search:     search,
		blobs:      blobs,
		htmlIndex:  cfg.Search.Index,
		pdfIndex:   cfg.Search.PDFIndex,
		containers: cfg.Storage.Containers,
		urlPrefix:  cfg.Storage.BlobURLPrefix,
		logger:     logger,
	}
}

// DeleteRequest identifies the document to remove. Either DocumentID or
// Filename must be set; IndexName overrides the configured index.
type DeleteRequest struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	FileType   string `json:"file_type"`
	IndexName  string `json:"index_name"`
}

// Delete removes a document from the index and archives its backing blobs.
// Returns a summary of the operations performed.
func (s *Service) Delete(ctx context.Context, req DeleteRequest) (string, error) {
	if req.DocumentID == "" && req.Filename == "" {
		return "", fmt.Errorf("document_id or filename is required: %w", domain.ErrInvalidRequest)
	}

	fileType := strings.ToLower(req.FileType)
	if fileType == "" {
		fileType = "html"
	}
	if fileType != "html" && fileType != "pdf" {
		return "", fmt.Errorf("file_type must be html or pdf: %w", domain.ErrInvalidRequest)
	}

	index, err := s.resolveIndex(req.IndexName, fileType)
	if err != nil {
		return "", err
	}

	var operations []string
	if req.Filename != "" {
		operations = s.archiveBlobs(ctx, req.Filename, fileType)
	}

	docID := req.DocumentID
	if docID == "" {
		docID, err = s.findDocumentID(ctx, index, req.Filename, fileType)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return "", err
		}
	}

	if docID != "" {
		results, err := s.search.DeleteDocuments(ctx, index, "id", []string{docID})
		if err != nil {
			return "", fmt.Errorf("delete document: %w", err)
		}
		if len(results) > 0 && results[0].Succeeded {
			operations = append(operations, "Document deleted from search index")
		} else if len(results) > 0 {
			s.logger.Error("Index rejected delete action",
				zap.String("document_id", docID),
				zap.String("message", results[0].ErrorMessage))
		}
	}

	if len(operations) == 0 {
		return "", fmt.Errorf("no files found to process: %w", domain.ErrNotFound)
	}
	return strings.Join(operations, ", "), nil
}

// archiveBlobs moves the content blobs behind a page out of the live
// containers. Missing blobs are skipped; only completed moves are reported.
func (s *Service) archiveBlobs(ctx context.Context, filename, fileType string) []string {
	var operations []string

	if fileType == "pdf" {
		name := filename
		if !strings.HasSuffix(name, ".pdf") {
			name += ".pdf"
		}
		if s.moveQuietly(ctx, s.containers.Files, s.containers.FilesArchive, name) {
			operations = append(operations, "PDF file moved to archive")
		}
		return operations
	}

	htmlName, jsonName := domdoc.FileNames(filename, fileType)
	if s.moveQuietly(ctx, s.containers.HTML, s.containers.HTMLArchive, htmlName) {
		operations = append(operations, "HTML file moved to archive")
	}
	if s.moveQuietly(ctx, s.containers.JSON, s.containers.JSONArchive, jsonName) {
		operations = append(operations, "JSON file moved to archive")
	}
	return operations
}

func (s *Service) moveQuietly(ctx context.Context, src, dst, name string) bool {
	err := s.blobs.Move(ctx, src, dst, name)
	if err == nil {
		return true
	}
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info("Blob not found, skipping archive",
			zap.String("container", src),
			zap.String("blob", name))
	} else {
		s.logger.Error("Blob archive failed",
			zap.String("container", src),
			zap.String("blob", name),
			zap.Error(err))
	}
	return false
}

// findDocumentID resolves a document ID from a filename by querying the index.
func (s *Service) findDocumentID(ctx context.Context, index, filename, fileType string) (string, error) {
	searchText := filename
	if fileType == "pdf" {
		searchText = fmt.Sprintf("file_name:'%s.pdf'", filename)
	}

	results, _, err := s.search.Search(ctx, index, azsearch.Query{
		SearchText: searchText,
		Select:     []string{"id"},
		Count:      true,
	})
	if err != nil {
		return "", fmt.Errorf("find document: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no document matches filename %q: %w", filename, domain.ErrNotFound)
	}
	if len(results) > 1 {
		s.logger.Warn("Multiple documents match filename", zap.String("filename", filename))
	}

	id, _ := results[0].Fields["id"].(string)
	if id == "" {
		return "", fmt.Errorf("matched document has no id: %w", domain.ErrNotFound)
	}
	return id, nil
}

// Index sanitizes a raw document and merge-or-uploads it into the HTML index.
// Returns the document key.
func (s *Service) Index(ctx context.Context, raw domdoc.Raw) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("empty document: %w", domain.ErrInvalidRequest)
	}

	doc := domdoc.Transform(raw)

	results, err := s.search.IndexBatch(ctx, s.htmlIndex, []azsearch.Action{
		{Type: "mergeOrUpload", Document: toMap(doc)},
	})
	if err != nil {
		return "", fmt.Errorf("index document: %w", err)
	}
	if len(results) == 0 || !results[0].Succeeded {
		msg := "unknown error"
		status := 0
		if len(results) > 0 {
			msg = results[0].ErrorMessage
			status = results[0].StatusCode
		}
		return "", domain.NewUpstreamRejected(status, msg)
	}

	s.logger.Info("Indexed document", zap.String("id", doc.ID))
	return doc.ID, nil
}

// RegisterPDF adds a PDF blob to the PDF index with an empty content field.
// Text extraction is performed by the index-attached enrichment pipeline.
func (s *Service) RegisterPDF(ctx context.Context, blobName string) (string, error) {
	if blobName == "" {
		return "", fmt.Errorf("blob_name is required: %w", domain.ErrInvalidRequest)
	}

	id := domdoc.SafeID(blobName)
	doc := map[string]any{
		"id":        id,
		"file_name": blobName,
		"url":       s.urlPrefix + blobName,
		"content":   "",
	}

	results, err := s.search.IndexBatch(ctx, s.pdfIndex, []azsearch.Action{
		{Type: "mergeOrUpload", Document: doc},
	})
	if err != nil {
		return "", fmt.Errorf("register pdf: %w", err)
	}
	if len(results) == 0 || !results[0].Succeeded {
		msg := "unknown error"
		status := 0
		if len(results) > 0 {
			msg = results[0].ErrorMessage
			status = results[0].StatusCode
		}
		return "", domain.NewUpstreamRejected(status, msg)
	}

	// Indexed PDFs graduate from the intake container to the master
	// container; a failed move leaves the blob in place for a retry.
	s.moveQuietly(ctx, s.containers.Files, s.containers.FilesMaster, blobName)

	s.logger.Info("Registered PDF", zap.String("id", id), zap.String("blob", blobName))
	return id, nil
}

func (s *Service) resolveIndex(requested, fileType string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if fileType == "pdf" {
		if s.pdfIndex == "" {
			return "", fmt.Errorf("no pdf index configured: %w", domain.ErrInvalidRequest)
		}
		return s.pdfIndex, nil
	}
	if s.htmlIndex == "" {
		return "", fmt.Errorf("no index configured: %w", domain.ErrInvalidRequest)
	}
	return s.htmlIndex, nil
}

func toMap(doc domdoc.IndexDocument) map[string]any {
	return map[string]any{
		"id":               doc.ID,
		"content":          doc.Content,
		"url":              doc.URL,
		"title":            doc.Title,
		"summary":          doc.Summary,
		"embedded_urls":    doc.EmbeddedURLs,
		"programs":         doc.Programs,
		"focus_population": doc.FocusPopulation,
		"ages_studied":     doc.AgesStudied,
		"resource_type":    doc.ResourceType,
		"domain":           doc.Domain,
		"subdomain_1":      doc.Subdomain1,
		"subdomain_2":      doc.Subdomain2,
		"subdomain_3":      doc.Subdomain3,
		"pdf_urls":         doc.PDFURLs,
		"topic":            doc.Topic,
		"year":             doc.Year,
		"Status":           doc.Status,
		"CFDA_number":      doc.CFDANumber,
		"published_date":   doc.PublishedDate,
		"changed_date":     doc.ChangedDate,
	}
}
