package middleware

import (
	"context"
	"net/http"
	"strings"
)

type idempotencyKey string

const (
	IdempotencyHeader       = "Idempotency-Key"
	idempotencyContextKey   = idempotencyKey("idempotencyKey")
	maxIdempotencyKeyLength = 64
)

// Idempotency stores a client-supplied Idempotency-Key on the context. Card
// payments forward it to the processor in place of the generated key.
func Idempotency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			key = key[:maxIdempotencyKeyLength]
		}
		ctx := context.WithValue(r.Context(), idempotencyContextKey, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func IdempotencyKey(r *http.Request) string {
	if r == nil {
		return ""
	}
	if value, ok := r.Context().Value(idempotencyContextKey).(string); ok {
		return value
	}
	return ""
}
