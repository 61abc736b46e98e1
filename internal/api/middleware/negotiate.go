package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
)

type contextKey string

const contentTypeKey contextKey = "negotiatedContentType"

const (
	ContentJSON   = "application/json"
	ContentJSONLD = "application/ld+json"
	ContentNQuads = "application/n-quads"
	ContentHTML   = "text/html"
)

// ContentNegotiation resolves the response representation from ?format= or
// the Accept header. Plain JSON is the default; linked-data formats and the
// HTML page are only served when asked for explicitly.
func ContentNegotiation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), contentTypeKey, negotiateContentType(r))
		w.Header().Add("Vary", "Accept")
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func NegotiatedContentType(r *http.Request) string {
	if r == nil {
		return ContentJSON
	}
	if value, ok := r.Context().Value(contentTypeKey).(string); ok && value != "" {
		return value
	}
	return negotiateContentType(r)
}

func negotiateContentType(r *http.Request) string {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) {
	case "jsonld", "ld+json", ContentJSONLD:
		return ContentJSONLD
	case "nquads", "n-quads", ContentNQuads:
		return ContentNQuads
	case "json", ContentJSON:
		return ContentJSON
	case "html", ContentHTML:
		return ContentHTML
	}

	bestType := ContentJSON
	bestQ := 0.0
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		segments := strings.Split(part, ";")
		candidate := normalizeMediaType(segments[0])
		if candidate == "" {
			continue
		}
		q := 1.0
		for _, seg := range segments[1:] {
			if v, ok := strings.CutPrefix(strings.TrimSpace(seg), "q="); ok {
				if parsed, err := strconv.ParseFloat(v, 64); err == nil {
					q = parsed
				}
			}
		}
		if q > bestQ {
			bestQ = q
			bestType = candidate
		}
	}
	return bestType
}

func normalizeMediaType(mediaType string) string {
	switch strings.ToLower(strings.TrimSpace(mediaType)) {
	case ContentJSONLD:
		return ContentJSONLD
	case ContentNQuads:
		return ContentNQuads
	case ContentHTML, "application/xhtml+xml":
		return ContentHTML
	case ContentJSON, "*/*", "application/*":
		return ContentJSON
	default:
		return ""
	}
}
