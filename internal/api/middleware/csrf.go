package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"github.com/conectados420/storefront/internal/api/problem"
)

// CSRFHeader carries the token on cookie-authenticated admin writes.
const CSRFHeader = "X-CSRF-Token"

// CSRFProtection guards cookie-authenticated admin requests with the
// double-submit token from gorilla/csrf. Requests that carry an
// Authorization header skip the check since browsers never attach one on
// their own.
//
// With secure=false requests are treated as plain HTTP so the Referer check
// does not reject local development traffic.
func CSRFProtection(authKey []byte, secure bool) func(http.Handler) http.Handler {
	protect := csrf.Protect(authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.RequestHeader(CSRFHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(r.Header.Get("Authorization")) != "" {
				next.ServeHTTP(w, r)
				return
			}
			if !secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "CSRF token validation failed", csrf.FailureReason(r), "")
}

// CSRFToken returns the masked token for the current request.
func CSRFToken(r *http.Request) string {
	return csrf.Token(r)
}
