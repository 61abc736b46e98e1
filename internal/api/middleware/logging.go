package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.status == 0 {
		w.status = statusCode
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RequestLogging logs one line per request through the request-scoped logger
// set by CorrelationID, falling back to logger. 5xx responses log at error
// and 4xx at warn.
func RequestLogging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w}

			next.ServeHTTP(rw, r)

			status := rw.status
			if status == 0 {
				status = http.StatusOK
			}

			l := zerolog.Ctx(r.Context())
			if l.GetLevel() == zerolog.Disabled {
				l = &logger
			}
			var ev *zerolog.Event
			switch {
			case status >= 500:
				ev = l.Error()
			case status >= 400:
				ev = l.Warn()
			default:
				ev = l.Info()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("route", RoutePattern(r)).
				Int("status", status).
				Int("bytes", rw.bytes).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
