package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"static path", "/api/v1/products", "/api/v1/products"},
		{"single param", "/api/v1/products/{slug}", "/api/v1/products/{param}"},
		{"multiple params", "/api/v1/admin/orders/{id}/tracking", "/api/v1/admin/orders/{param}/tracking"},
		{"empty path", "", ""},
		{"non-path input", "api/v1/orders/{id}", "api/v1/orders/{id}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizePath(tt.input)
			if got != tt.expected {
				t.Fatalf("normalizePath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRouteLabelUsesPattern(t *testing.T) {
	var label string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		label = routeLabel(r)
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil))
	if label != "/api/v1/orders/{param}" {
		t.Fatalf("routeLabel = %q", label)
	}

	if got := routeLabel(httptest.NewRequest(http.MethodGet, "/nope", nil)); got != "unmatched" {
		t.Fatalf("unmatched routeLabel = %q", got)
	}
}
