// Package search implements keyword search over the HTML index with optional
// field filters, plus direct PDF index search.
package search

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

// pdfMatchLimit bounds how many top results get the PDF cross-match check and
// how many attachments per result are compared.
const (
	pdfMatchLimit    = 10
	pdfURLsPerResult = 2
	pdfLookupResults = 10
	pdfSearchMaxTop  = 200
)

var htmlSelectFields = []string{
	"content", "embedded_urls", "programs", "ages_studied", "focus_population",
	"domain", "subdomain_1", "subdomain_2", "subdomain_3", "resource_type",
	"pdf_urls", "title", "topic", "year", "Status", "CFDA_number", "summary",
	"published_date", "changed_date",
}

var pdfSelectFields = []string{"content", "file_name", "url", "id"}

// Service runs keyword searches.
type Service struct {
	search          Searcher
	htmlIndex       string
	pdfIndex        string
	maxResults      int
	emptyQueryMax   int
	blobURLPrefix   string
	publicURLPrefix string
	logger          *zap.Logger
}

// New creates a search service.
func New(search Searcher, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		search:          search,
		htmlIndex:       cfg.Search.Index,
		pdfIndex:        cfg.Search.PDFIndex,
		maxResults:      cfg.Search.MaxResults,
		emptyQueryMax:   cfg.Search.EmptyQueryMaxResults,
		blobURLPrefix:   cfg.Storage.BlobURLPrefix,
		publicURLPrefix: cfg.Storage.PublicURLPrefix,
		logger:          logger,
	}
}

// Search queries the HTML index. Empty search text matches everything (filters
// still apply); each hit's content is reduced to a snippet around the matched
// term. The top hits are cross-checked against the PDF index.
func (s *Service) Search(ctx context.Context, req domsearch.Request) ([]domsearch.Result, error) {
	searchText := req.SearchText
	queryText := searchText
	top := s.maxResults
	if queryText == "" {
		queryText = "*"
		top = s.emptyQueryMax
	}

	hits, _, err := s.search.Search(ctx, s.htmlIndex, azsearch.Query{
		SearchText: queryText,
		Filter:     req.FilterString(),
		Select:     htmlSelectFields,
		Top:        top,
	})
	if err != nil {
		return nil, fmt.Errorf("search html index: %w", err)
	}

	var pdfHits []domsearch.Result
	var pdfLookupFailed bool
	if searchText != "" {
		pdfHits, err = s.searchPDFIndex(ctx, searchText, pdfLookupResults)
		if err != nil {
			// Cross-match is best effort; the primary results still stand,
			// but the affected hits report the check as failed.
			s.logger.Warn("PDF index lookup failed", zap.Error(err))
			pdfHits = nil
			pdfLookupFailed = true
		}
	}

	results := make([]domsearch.Result, 0, len(hits))
	for i, hit := range hits {
		r := s.toHTMLResult(hit, searchText)
		if i < pdfMatchLimit && searchText != "" {
			if pdfLookupFailed {
				r.FoundInPDF = domsearch.PDFCheckError
			} else {
				s.matchAgainstPDFs(&r, pdfHits)
			}
		}
		if r.Content == "" && r.URL == "" && len(r.PDFURLs) == 0 {
			continue
		}
		results = append(results, r)
	}
	return results, nil
}

// SearchPDF queries the PDF index directly. Search text is required.
func (s *Service) SearchPDF(ctx context.Context, searchText string) ([]domsearch.Result, error) {
	if strings.TrimSpace(searchText) == "" {
		return nil, fmt.Errorf("search_text is required: %w", domain.ErrInvalidRequest)
	}
	return s.searchPDFIndex(ctx, searchText, pdfSearchMaxTop)
}

func (s *Service) searchPDFIndex(ctx context.Context, searchText string, top int) ([]domsearch.Result, error) {
	hits, _, err := s.search.Search(ctx, s.pdfIndex, azsearch.Query{
		SearchText: searchText,
		Select:     pdfSelectFields,
		QueryType:  "simple",
		Top:        top,
	})
	if err != nil {
		return nil, fmt.Errorf("search pdf index: %w", err)
	}

	results := make([]domsearch.Result, 0, len(hits))
	for _, hit := range hits {
		url := stringValue(hit.Fields["url"])
		if s.blobURLPrefix != "" && s.publicURLPrefix != "" {
			url = strings.Replace(url, s.blobURLPrefix, s.publicURLPrefix, 1)
		}
		raw := stringValue(hit.Fields["content"])
		content := domsearch.Snippet(raw, searchText)
		if content == "" {
			// Hit matched on a non-content field; show the document opening.
			content = domsearch.LeadText(raw)
		}
		results = append(results, domsearch.Result{
			ID:       stringValue(hit.Fields["id"]),
			Content:  content,
			FileName: stringValue(hit.Fields["file_name"]),
			URL:      url,
			Score:    hit.Score,
		})
	}
	return results, nil
}

func (s *Service) toHTMLResult(hit azsearch.Result, searchText string) domsearch.Result {
	return domsearch.Result{
		Content:         domsearch.SnippetOrLead(stringValue(hit.Fields["content"]), searchText),
		URL:             domsearch.FirstURL(domdoc.ParseArrayField(hit.Fields["embedded_urls"])),
		Title:           stringValue(hit.Fields["title"]),
		Score:           hit.Score,
		Highlights:      hit.Highlights,
		Summary:         stringValue(hit.Fields["summary"]),
		Programs:        domdoc.ParseArrayField(hit.Fields["programs"]),
		AgesStudied:     domdoc.ParseArrayField(hit.Fields["ages_studied"]),
		FocusPopulation: domdoc.ParseArrayField(hit.Fields["focus_population"]),
		Domain:          stringValue(hit.Fields["domain"]),
		Subdomain1:      stringValue(hit.Fields["subdomain_1"]),
		Subdomain2:      stringValue(hit.Fields["subdomain_2"]),
		Subdomain3:      stringValue(hit.Fields["subdomain_3"]),
		ResourceType:    stringValue(hit.Fields["resource_type"]),
		PDFURLs:         domsearch.FilterPDFURLs(domdoc.ParseArrayField(hit.Fields["pdf_urls"])),
		Topic:           stringValue(hit.Fields["topic"]),
		Year:            stringValue(hit.Fields["year"]),
		Status:          stringValue(hit.Fields["Status"]),
		CFDANumber:      stringValue(hit.Fields["CFDA_number"]),
		PublishedDate:   stringValue(hit.Fields["published_date"]),
		ChangedDate:     stringValue(hit.Fields["changed_date"]),
		FoundInPDF:      domsearch.FoundOnlyInHTML,
	}
}

// matchAgainstPDFs flags a result whose attachments also surfaced in the PDF
// index, comparing normalized filename stems.
func (s *Service) matchAgainstPDFs(r *domsearch.Result, pdfHits []domsearch.Result) {
	if len(pdfHits) == 0 {
		return
	}

	urls := r.PDFURLs
	if len(urls) > pdfURLsPerResult {
		urls = urls[:pdfURLsPerResult]
	}
	for _, pdfURL := range urls {
		stem := domsearch.NormalizeName(domdoc.Stem(domdoc.FileNameFromURL(pdfURL)))
		if stem == "" {
			continue
		}
		for _, hit := range pdfHits {
			if hit.FileName == "" {
				continue
			}
			if stem == domsearch.NormalizeName(domdoc.Stem(hit.FileName)) {
				r.FoundInPDF = domsearch.FoundInBoth
				r.PDFContent = hit.Content
				return
			}
		}
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
