package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRoutePatternVisibleToOuterMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	var seen string
	outer := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := RoutePattern(r); got != "" {
				t.Errorf("pattern before routing = %q", got)
			}
			next.ServeHTTP(w, r.WithContext(r.Context()))
			seen = RoutePattern(r)
		})
	}

	handler := TrackRoute(outer(CaptureRoute(mux)))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))

	if seen != "POST /api/v1/orders" {
		t.Fatalf("pattern = %q", seen)
	}
}

func TestRoutePatternWithoutHolder(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if got := RoutePattern(req); got != "" {
		t.Fatalf("got %q", got)
	}
}
