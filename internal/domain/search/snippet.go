package search

import (
	"net/url"
	"regexp"
	"strings"
)

const snippetContextChars = 150

var (
	chromeRe     = regexp.MustCompile(`(?is)<(nav|header|footer|menu)[^>]*>.*?</(nav|header|footer|menu)>`)
	markupRe     = regexp.MustCompile(`<[^>]+>`)
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9]+`)
	pdfLeadChars = 500
)

// Snippet returns the text surrounding the first occurrence of searchText in
// content, stripped of markup, with ellipses at cut edges. When the full term
// is absent it falls back to the first word longer than three characters.
// Returns "" when nothing matches.
func Snippet(content, searchText string) string {
	if content == "" || searchText == "" {
		return ""
	}

	clean := cleanMarkup(content)
	lower := strings.ToLower(clean)
	needle := strings.ToLower(searchText)

	pos := strings.Index(lower, needle)
	if pos == -1 {
		for _, word := range strings.Fields(needle) {
			if len(word) > 3 {
				if pos = strings.Index(lower, word); pos != -1 {
					break
				}
			}
		}
	}
	if pos == -1 {
		return ""
	}

	start := pos - snippetContextChars
	if start < 0 {
		start = 0
	}
	end := pos + len(searchText) + snippetContextChars
	if end > len(clean) {
		end = len(clean)
	}
	start = alignRuneStart(clean, start)
	end = alignRuneStart(clean, end)

	snippet := strings.TrimSpace(clean[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(clean) {
		snippet += "..."
	}
	return snippet
}

// SnippetOrLead returns the match context when searchText is set, otherwise
// the opening lines of the content.
func SnippetOrLead(content, searchText string) string {
	if searchText != "" {
		return Snippet(content, searchText)
	}
	return FirstLines(content, 3)
}

// LeadText returns the opening of the content with an ellipsis, the fallback
// for PDF hits whose extracted text does not contain the search term.
func LeadText(content string) string {
	clean := cleanMarkup(content)
	if len(clean) <= pdfLeadChars {
		return clean
	}
	cut := alignRuneStart(clean, pdfLeadChars)
	return clean[:cut] + "..."
}

// FirstLines returns the first n lines of text, trimmed.
func FirstLines(text string, n int) string {
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// NormalizeName lowercases a filename stem and collapses every non-alphanumeric
// run into a single space, so URL-encoded and punctuated variants compare equal.
func NormalizeName(name string) string {
	if decoded, err := url.QueryUnescape(name); err == nil {
		name = decoded
	}
	if decoded, err := url.QueryUnescape(name); err == nil {
		name = decoded
	}
	name = strings.TrimSuffix(strings.ToLower(name), ".pdf")
	name = nonAlnumRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

func cleanMarkup(s string) string {
	s = chromeRe.ReplaceAllString(s, " ")
	s = markupRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

func alignRuneStart(s string, i int) int {
	for i > 0 && i < len(s) && s[i]&0xC0 == 0x80 {
		i--
	}
	return i
}
