// Package upload implements raw file and HTML page uploads into blob storage.
package upload

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/evidence-exchange/searchgw/internal/config"
	"github.com/evidence-exchange/searchgw/internal/domain"
	domdoc "github.com/evidence-exchange/searchgw/internal/domain/document"
)

// Service stores uploaded content.
type Service struct {
	blobs         BlobWriter
	fileContainer string
	htmlContainer string
	logger        *zap.Logger
}

// New creates an upload service.
func New(blobs BlobWriter, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		blobs:         blobs,
		fileContainer: cfg.Storage.Containers.Files,
		htmlContainer: cfg.Storage.Containers.HTML,
		logger:        logger,
	}
}

// UploadFile stores raw bytes under the given filename in the file container.
func (s *Service) UploadFile(ctx context.Context, filename string, data []byte) error {
	if filename == "" {
		return fmt.Errorf("filename query parameter is required: %w", domain.ErrInvalidRequest)
	}
	if len(data) == 0 {
		return fmt.Errorf("empty request body: %w", domain.ErrInvalidRequest)
	}

	if err := s.blobs.Upload(ctx, s.fileContainer, filename, data, "", nil); err != nil {
		return fmt.Errorf("upload file: %w", err)
	}

	s.logger.Info("Uploaded file",
		zap.String("container", s.fileContainer),
		zap.String("blob", filename),
		zap.Int("bytes", len(data)))
	return nil
}

// HTMLResult describes a stored HTML page.
type HTMLResult struct {
	Container   string `json:"container"`
	Filename    string `json:"filename"`
	OriginalURL string `json:"originalUrl"`
}

// UploadHTML stores page markup under a blob name derived from its source URL,
// with the original URL kept as metadata.
func (s *Service) UploadHTML(ctx context.Context, pageURL, body string) (HTMLResult, error) {
	if pageURL == "" || body == "" {
		return HTMLResult{}, fmt.Errorf("both url and body are required: %w", domain.ErrInvalidRequest)
	}

	name := domdoc.BlobNameFromURL(pageURL)

	if err := s.blobs.EnsureContainer(ctx, s.htmlContainer); err != nil {
		return HTMLResult{}, fmt.Errorf("ensure container: %w", err)
	}

	err := s.blobs.Upload(ctx, s.htmlContainer, name, []byte(body), "text/html",
		map[string]string{"original_url": pageURL})
	if err != nil {
		return HTMLResult{}, fmt.Errorf("upload html: %w", err)
	}

	s.logger.Info("Uploaded HTML page",
		zap.String("container", s.htmlContainer),
		zap.String("blob", name))

	return HTMLResult{
		Container:   s.htmlContainer,
		Filename:    name,
		OriginalURL: pageURL,
	}, nil
}
