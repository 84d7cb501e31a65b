package upload

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/evidence-exchange/searchgw/internal/config"
	"github.com/evidence-exchange/searchgw/internal/domain"
)

type fakeWriter struct {
	container   string
	name        string
	data        []byte
	contentType string
	metadata    map[string]string
	ensured     []string
	uploadErr   error
}

func (f *fakeWriter) Upload(_ context.Context, container, name string, data []byte, contentType string, metadata map[string]string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.container = container
	f.name = name
	f.data = data
	f.contentType = contentType
	f.metadata = metadata
	return nil
}

func (f *fakeWriter) EnsureContainer(_ context.Context, container string) error {
	f.ensured = append(f.ensured, container)
	return nil
}

func newTestService(w *fakeWriter) *Service {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return New(w, cfg, zap.NewNop())
}

func TestUploadFile(t *testing.T) {
	w := &fakeWriter{}
	s := newTestService(w)

	if err := s.UploadFile(context.Background(), "report.pdf", []byte("pdf bytes")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.container != "evidencefiles" || w.name != "report.pdf" {
		t.Errorf("stored at %s/%s", w.container, w.name)
	}
}

func TestUploadFile_RequiresFilename(t *testing.T) {
	s := newTestService(&fakeWriter{})

	err := s.UploadFile(context.Background(), "", []byte("x"))
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestUploadFile_RequiresBody(t *testing.T) {
	s := newTestService(&fakeWriter{})

	err := s.UploadFile(context.Background(), "report.pdf", nil)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestUploadFile_UpstreamErrorPropagates(t *testing.T) {
	w := &fakeWriter{uploadErr: domain.NewUpstreamUnavailable(503, "down")}
	s := newTestService(w)

	err := s.UploadFile(context.Background(), "report.pdf", []byte("x"))
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestUploadHTML(t *testing.T) {
	w := &fakeWriter{}
	s := newTestService(w)

	res, err := s.UploadHTML(context.Background(), "https://americorps.gov/about/contact", "<html>page</html>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Filename != "americorps.gov_about_contact.html" {
		t.Errorf("filename = %q", res.Filename)
	}
	if res.Container != "htmlcontent" || res.OriginalURL != "https://americorps.gov/about/contact" {
		t.Errorf("result = %+v", res)
	}
	if w.contentType != "text/html" {
		t.Errorf("content type = %q", w.contentType)
	}
	if w.metadata["original_url"] != "https://americorps.gov/about/contact" {
		t.Errorf("metadata = %v", w.metadata)
	}
	if len(w.ensured) != 1 || w.ensured[0] != "htmlcontent" {
		t.Errorf("ensured containers = %v", w.ensured)
	}
}

func TestUploadHTML_RequiresURLAndBody(t *testing.T) {
	s := newTestService(&fakeWriter{})

	if _, err := s.UploadHTML(context.Background(), "", "body"); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if _, err := s.UploadHTML(context.Background(), "https://a.example", ""); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}
