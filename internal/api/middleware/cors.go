package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/conectados420/storefront/internal/config"
)

// Paths under these prefixes answer any origin. The payment processor posts
// webhooks server-to-server and never sends credentials.
var openCORSPrefixes = []string{"/api/v1/webhooks/"}

// CORS handles Cross-Origin Resource Sharing for the storefront and admin
// browser clients.
//
// Allowed origins come from the configured whitelist, or every origin when
// AllowAllOrigins is set (development). Webhook paths always answer with
// "*" and without credentials. Preflight OPTIONS requests return 204.
func CORS(cfg config.CORSConfig, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isOpenCORSPath(r.URL.Path) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusOK)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			origin := r.Header.Get("Origin")

			// Same-origin requests
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed := cfg.AllowAllOrigins || isOriginAllowed(origin, cfg.AllowedOrigins)
			if !allowed {
				logger.Warn().
					Str("origin", origin).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("CORS request rejected: origin not in whitelist")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key, Accept, X-Request-ID, "+CSRFHeader)
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After, "+CSRFHeader)
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isOpenCORSPath(path string) bool {
	for _, prefix := range openCORSPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// isOriginAllowed performs a case-insensitive exact match.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	origin = strings.ToLower(strings.TrimSpace(origin))
	for _, allowed := range allowedOrigins {
		if strings.ToLower(strings.TrimSpace(allowed)) == origin {
			return true
		}
	}
	return false
}
