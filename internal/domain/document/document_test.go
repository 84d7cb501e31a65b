package document

import (
	"strings"
	"testing"
)

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"americorps_gov_evidence-exchange", "americorps_gov_evidence-exchange"},
		{"_leading", "doc_leading"},
		{"has space.and.dots", "has_space_and_dots"},
		{"slash/and:colon", "slash_and_colon"},
	}
	for _, tc := range tests {
		if got := SanitizeKey(tc.in); got != tc.want {
			t.Errorf("SanitizeKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeKey_EmptyGeneratesKey(t *testing.T) {
	got := SanitizeKey("")
	if !strings.HasPrefix(got, "doc-") {
		t.Errorf("expected generated key with doc- prefix, got %q", got)
	}
}

func TestParseArrayField(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want []string
	}{
		{"nil", nil, []string{}},
		{"empty string", "", []string{}},
		{"single string", "AmeriCorps VISTA", []string{"AmeriCorps VISTA"}},
		{"semicolon separated", "a; b ;c", []string{"a", "b", "c"}},
		{"string slice", []string{"x", "", "y"}, []string{"x", "y"}},
		{"any slice", []any{"x", 42, "y"}, []string{"x", "y"}},
		{"unsupported type", 3.14, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseArrayField(tc.in)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("item %d = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestCleanContent_StripsChrome(t *testing.T) {
	in := `<nav>Skip to content</nav><header>Site header</header><p>Program <b>results</b> here.</p><footer>contact</footer>`
	got := CleanContent(in)
	want := "Program results here."
	if got != want {
		t.Errorf("CleanContent = %q, want %q", got, want)
	}
}

func TestCleanContent_TruncatesLongContent(t *testing.T) {
	in := strings.Repeat("evidence ", 8000) // ~72KB
	got := CleanContent(in)
	if len(got) > 32000 {
		t.Errorf("content not truncated: %d bytes", len(got))
	}
}

func TestCleanContent_TruncateKeepsValidUTF8(t *testing.T) {
	in := strings.Repeat("é", 20000) // 2 bytes each
	got := CleanContent(in)
	if len(got) > 32000 {
		t.Fatalf("content not truncated: %d bytes", len(got))
	}
	if strings.ContainsRune(got, '�') {
		t.Error("truncation split a rune")
	}
	for _, r := range got {
		if r != 'é' {
			t.Fatalf("unexpected rune %q after truncation", r)
		}
	}
}

func TestTransform(t *testing.T) {
	raw := Raw{
		"id":          "page one.html",
		"content":     "<p>Mentoring outcomes</p>",
		"url":         "https://example.gov/evidence/page-one",
		"title":       "page-one",
		"programs":    "AmeriCorps VISTA; AmeriCorps NCCC",
		"ages_studied": []any{"6-12 (Childhood)"},
		"domain":      "evidence",
		"Status":      "Open",
		"CFDA_number": "94.011",
	}

	doc := Transform(raw)

	if doc.ID != "page_one_html" {
		t.Errorf("ID = %q", doc.ID)
	}
	if doc.Content != "Mentoring outcomes" {
		t.Errorf("Content = %q", doc.Content)
	}
	if len(doc.Programs) != 2 || doc.Programs[0] != "AmeriCorps VISTA" {
		t.Errorf("Programs = %v", doc.Programs)
	}
	if len(doc.AgesStudied) != 1 {
		t.Errorf("AgesStudied = %v", doc.AgesStudied)
	}
	if doc.Status != "Open" || doc.CFDANumber != "94.011" {
		t.Errorf("Status/CFDA = %q/%q", doc.Status, doc.CFDANumber)
	}
	if doc.EmbeddedURLs == nil || doc.PDFURLs == nil {
		t.Error("array fields must be non-nil")
	}
}
