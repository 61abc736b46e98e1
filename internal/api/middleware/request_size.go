package middleware

import (
	"net/http"
)

const (
	// DefaultMaxBodySize applies to public JSON endpoints.
	DefaultMaxBodySize int64 = 1 << 20

	// WebhookMaxBodySize covers processor notifications, which are tiny.
	WebhookMaxBodySize int64 = 64 << 10

	// AdminMaxBodySize applies to admin JSON endpoints.
	AdminMaxBodySize int64 = 5 << 20

	// ImportMaxBodySize bounds carrier tracking file uploads.
	ImportMaxBodySize int64 = 10 << 20
)

// RequestSize wraps the body with http.MaxBytesReader. Reading past maxBytes
// fails with *http.MaxBytesError, which handlers report as 413.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func PublicRequestSize() func(http.Handler) http.Handler {
	return RequestSize(DefaultMaxBodySize)
}

func WebhookRequestSize() func(http.Handler) http.Handler {
	return RequestSize(WebhookMaxBodySize)
}

func AdminRequestSize() func(http.Handler) http.Handler {
	return RequestSize(AdminMaxBodySize)
}

func ImportRequestSize() func(http.Handler) http.Handler {
	return RequestSize(ImportMaxBodySize)
}
