package document

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// BlobNameFromURL derives the blob name for an HTML page from its source URL:
// scheme stripped, slashes replaced with underscores, ".html" suffix ensured,
// percent-escapes decoded.
func BlobNameFromURL(pageURL string) string {
	name := strings.TrimRight(pageURL, "/")
	name = strings.TrimPrefix(name, "https://")
	name = strings.TrimPrefix(name, "http://")
	name = strings.ReplaceAll(name, "/", "_")
	if !strings.HasSuffix(name, ".html") {
		name += ".html"
	}
	if decoded, err := url.QueryUnescape(name); err == nil {
		name = decoded
	}
	return name
}

// FileNames returns the content blob name and the derived JSON blob name for a
// page URL. fileType selects the "html" or "pdf" naming scheme.
func FileNames(pageURL, fileType string) (primary, jsonName string) {
	clean := strings.TrimPrefix(pageURL, "https://")
	clean = strings.TrimPrefix(clean, "http://")

	base := strings.ReplaceAll(clean, "/", "_")
	jsonBase := strings.NewReplacer(".", "", "-", "_").Replace(base)

	if fileType == "pdf" {
		return base + ".pdf", jsonBase + "pdf.json"
	}
	return base + ".html", jsonBase + "html.json"
}

// SafeID derives a search-safe document ID from a blob name via unpadded
// base64url encoding. The index key field only allows letters, digits,
// underscore, dash and equals.
func SafeID(blobName string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(blobName))
}

// SanitizeKey coerces an arbitrary string into a valid index document key.
// Keys must not start with an underscore and may only contain letters,
// digits, underscore and dash.
func SanitizeKey(key string) string {
	if key == "" {
		return fmt.Sprintf("doc-%d", time.Now().Unix())
	}
	if strings.HasPrefix(key, "_") {
		key = "doc" + key
	}
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// FileNameFromURL extracts the final path segment of a URL, percent-decoded.
func FileNameFromURL(rawURL string) string {
	parts := strings.Split(rawURL, "/")
	name := parts[len(parts)-1]
	if decoded, err := url.QueryUnescape(name); err == nil {
		name = decoded
	}
	return name
}

// Stem returns the filename without its final extension.
func Stem(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		return filename[:idx]
	}
	return filename
}
