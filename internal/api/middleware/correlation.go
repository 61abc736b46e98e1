package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// RequestIDKey is the context key for the request correlation ID
	RequestIDKey contextKey = "request_id"

	maxRequestIDLength = 128
)

// CorrelationID middleware adds a correlation ID to each request and injects it into the logger
func CorrelationID(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Proxies may already have assigned one
			requestID := r.Header.Get("X-Request-ID")
			if !validRequestID(requestID) {
				requestID = uuid.New().String()
			}

			w.Header().Set("X-Request-ID", requestID)

			reqLogger := logger.With().Str("request_id", requestID).Logger()
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			ctx = reqLogger.WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// validRequestID accepts short printable ASCII IDs so a client cannot
// inject control characters into log lines or response headers.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// LoggerFromContext extracts the logger from context, or returns a disabled logger
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		noop := zerolog.Nop()
		return &noop
	}
	return logger
}
