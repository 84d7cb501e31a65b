// Package document holds the index document shape and the naming rules shared
// by the indexing, deletion and upload paths.
package document

import (
	"regexp"
	"strings"
)

// maxContentBytes is the index limit for a single content field.
const maxContentBytes = 32000

// Raw is an untyped document as received from the ingest pipeline.
type Raw map[string]any

// IndexDocument is the flattened record shape stored in the HTML content index.
type IndexDocument struct {
	ID              string   `json:"id"`
	Content         string   `json:"content"`
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	EmbeddedURLs    []string `json:"embedded_urls"`
	Programs        []string `json:"programs"`
	FocusPopulation []string `json:"focus_population"`
	AgesStudied     []string `json:"ages_studied"`
	ResourceType    string   `json:"resource_type"`
	Domain          string   `json:"domain"`
	Subdomain1      string   `json:"subdomain_1"`
	Subdomain2      string   `json:"subdomain_2"`
	Subdomain3      string   `json:"subdomain_3"`
	PDFURLs         []string `json:"pdf_urls"`
	Topic           string   `json:"topic"`
	Year            string   `json:"year"`
	Status          string   `json:"Status"`
	CFDANumber      string   `json:"CFDA_number"`
	PublishedDate   string   `json:"published_date"`
	ChangedDate     string   `json:"changed_date"`
}

// Transform normalizes a raw ingest document into the index record shape:
// key sanitized, content cleaned and capped, array fields coerced.
func Transform(raw Raw) IndexDocument {
	return IndexDocument{
		ID:              SanitizeKey(stringField(raw, "id")),
		Content:         CleanContent(stringField(raw, "content")),
		URL:             stringField(raw, "url"),
		Title:           stringField(raw, "title"),
		Summary:         stringField(raw, "summary"),
		EmbeddedURLs:    ParseArrayField(raw["embedded_urls"]),
		Programs:        ParseArrayField(raw["programs"]),
		FocusPopulation: ParseArrayField(raw["focus_population"]),
		AgesStudied:     ParseArrayField(raw["ages_studied"]),
		ResourceType:    stringField(raw, "resource_type"),
		Domain:          stringField(raw, "domain"),
		Subdomain1:      stringField(raw, "subdomain_1"),
		Subdomain2:      stringField(raw, "subdomain_2"),
		Subdomain3:      stringField(raw, "subdomain_3"),
		PDFURLs:         ParseArrayField(raw["pdf_urls"]),
		Topic:           stringField(raw, "topic"),
		Year:            stringField(raw, "year"),
		Status:          stringField(raw, "Status"),
		CFDANumber:      stringField(raw, "CFDA_number"),
		PublishedDate:   stringField(raw, "published_date"),
		ChangedDate:     stringField(raw, "changed_date"),
	}
}

// ParseArrayField coerces a value into a list of strings. Semicolon-separated
// strings are split; scalars become single-element lists.
func ParseArrayField(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case string:
		if v == "" {
			return []string{}
		}
		if strings.Contains(v, ";") {
			parts := strings.Split(v, ";")
			out := make([]string, 0, len(parts))
			for _, p := range parts {
				if trimmed := strings.TrimSpace(p); trimmed != "" {
					out = append(out, trimmed)
				}
			}
			return out
		}
		return []string{strings.TrimSpace(v)}
	case []string:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item != "" {
				out = append(out, strings.TrimSpace(item))
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	default:
		return []string{}
	}
}

var (
	navigationRe = regexp.MustCompile(`(?is)<(nav|header|footer|menu)[^>]*>.*?</(nav|header|footer|menu)>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
)

// CleanContent strips navigation chrome and markup from page content,
// collapses whitespace and truncates to the index field limit.
func CleanContent(content string) string {
	content = navigationRe.ReplaceAllString(content, " ")
	content = tagRe.ReplaceAllString(content, " ")
	content = strings.Join(strings.Fields(content), " ")

	if len(content) > maxContentBytes {
		content = truncateAtRune(content, maxContentBytes)
	}
	return content
}

// truncateAtRune cuts s to at most n bytes without splitting a rune.
func truncateAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}

func stringField(raw Raw, key string) string {
	if v, ok := raw[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
