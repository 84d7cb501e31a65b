package search

import "strings"

// Result is a single search hit as returned to clients. Which fields are
// populated depends on the path: keyword search fills the filter fields and
// PDF match state, PDF search fills FileName, semantic search fills Caption.
type Result struct {
	ID              string              `json:"id,omitempty"`
	Content         string              `json:"content"`
	URL             string              `json:"url,omitempty"`
	FileName        string              `json:"file_name,omitempty"`
	Title           string              `json:"title,omitempty"`
	Score           float64             `json:"score,omitempty"`
	RerankerScore   float64             `json:"reranker_score,omitempty"`
	Caption         string              `json:"caption,omitempty"`
	Highlights      map[string][]string `json:"highlights,omitempty"`
	Summary         string              `json:"summary,omitempty"`
	Programs        []string            `json:"programs,omitempty"`
	AgesStudied     []string            `json:"ages_studied,omitempty"`
	FocusPopulation []string            `json:"focus_population,omitempty"`
	Domain          string              `json:"domain,omitempty"`
	Subdomain1      string              `json:"subdomain_1,omitempty"`
	Subdomain2      string              `json:"subdomain_2,omitempty"`
	Subdomain3      string              `json:"subdomain_3,omitempty"`
	ResourceType    string              `json:"resource_type,omitempty"`
	PDFURLs         []string            `json:"pdf_urls,omitempty"`
	Topic           string              `json:"topic,omitempty"`
	Year            string              `json:"year,omitempty"`
	Status          string              `json:"Status,omitempty"`
	CFDANumber      string              `json:"CFDA_number,omitempty"`
	PublishedDate   string              `json:"published_date,omitempty"`
	ChangedDate     string              `json:"changed_date,omitempty"`
	FoundInPDF      string              `json:"found_in_pdf,omitempty"`
	PDFContent      string              `json:"pdf_content,omitempty"`
}

// PDF match states for keyword results.
const (
	FoundOnlyInHTML = "Found only in HTML"
	FoundInBoth     = "Found in both HTML and PDF"
	PDFCheckError   = "Error checking PDF"
)

// FirstURL returns the first non-empty URL from a result's embedded URLs.
func FirstURL(urls []string) string {
	for _, u := range urls {
		if u != "" {
			return u
		}
	}
	return ""
}

// FilterPDFURLs drops common policy attachments that appear on every page.
func FilterPDFURLs(urls []string) []string {
	excluded := []string{
		"Whistleblower_Rights_Employees_OGC",
		"Whistleblower_Rights_and_Remedies_Contractors_Grantees_OGC",
	}
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" {
			continue
		}
		skip := false
		for _, e := range excluded {
			if strings.Contains(u, e) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, u)
		}
	}
	return out
}
