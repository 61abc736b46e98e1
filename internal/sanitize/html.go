package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes all HTML tags and attributes.
	// Use for fields that should only contain plain text (names, notes).
	StrictPolicy = bluemonday.StrictPolicy()

	// UGCPolicy allows safe user-generated content with basic formatting.
	// Permits: <p>, <b>, <i>, <em>, <strong>, <a>, <ul>, <ol>, <li>, <br>
	UGCPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML tags. The result is HTML-escaped.
func Text(input string) string {
	return StrictPolicy.Sanitize(input)
}

// PlainText strips all HTML tags and returns unescaped, trimmed text for
// values stored verbatim and escaped again on output (customer names,
// checkout notes, addresses).
func PlainText(input string) string {
	return strings.TrimSpace(html.UnescapeString(StrictPolicy.Sanitize(input)))
}

// HTML sanitizes HTML content, allowing safe formatting tags.
// Use for product descriptions edited in the admin.
func HTML(input string) string {
	return UGCPolicy.Sanitize(input)
}

// TextSlice sanitizes each string in a slice, removing all HTML.
func TextSlice(inputs []string) []string {
	if inputs == nil {
		return nil
	}
	sanitized := make([]string, len(inputs))
	for i, input := range inputs {
		sanitized[i] = Text(input)
	}
	return sanitized
}
