package middleware

import (
	"context"
	"net/http"
)

type routeHolderKey struct{}

type routeHolder struct {
	pattern string
}

// TrackRoute gives outer middleware access to the ServeMux pattern that
// eventually matched. ServeMux only sets Request.Pattern on the request it
// receives, which is a copy by the time outer layers look.
func TrackRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Context().Value(routeHolderKey{}).(*routeHolder); ok {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), routeHolderKey{}, &routeHolder{})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CaptureRoute wraps the mux and records the matched pattern.
func CaptureRoute(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if h, ok := r.Context().Value(routeHolderKey{}).(*routeHolder); ok {
			h.pattern = r.Pattern
		}
	})
}

// RoutePattern returns the matched pattern, or "" before routing or when
// nothing matched.
func RoutePattern(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	if h, ok := r.Context().Value(routeHolderKey{}).(*routeHolder); ok {
		return h.pattern
	}
	return ""
}
