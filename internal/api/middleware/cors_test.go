package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/conectados420/storefront/internal/config"
)

func corsHandler(cfg config.CORSConfig) http.Handler {
	return CORS(cfg, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCORS(t *testing.T) {
	cfg := config.CORSConfig{AllowedOrigins: []string{"https://conectados420.cl"}}

	cases := []struct {
		name        string
		cfg         config.CORSConfig
		method      string
		path        string
		origin      string
		wantStatus  int
		wantAllowed string
		wantCreds   string
	}{
		{"same origin", cfg, http.MethodGet, "/api/v1/products", "", http.StatusOK, "", ""},
		{"whitelisted", cfg, http.MethodGet, "/api/v1/products", "https://conectados420.cl", http.StatusOK, "https://conectados420.cl", "true"},
		{"case insensitive", cfg, http.MethodGet, "/api/v1/products", "HTTPS://Conectados420.cl", http.StatusOK, "HTTPS://Conectados420.cl", "true"},
		{"rejected", cfg, http.MethodGet, "/api/v1/products", "https://evil.example", http.StatusOK, "", ""},
		{"preflight", cfg, http.MethodOptions, "/api/v1/orders", "https://conectados420.cl", http.StatusNoContent, "https://conectados420.cl", "true"},
		{"allow all", config.CORSConfig{AllowAllOrigins: true}, http.MethodGet, "/api/v1/products", "http://localhost:5173", http.StatusOK, "http://localhost:5173", "true"},
		{"webhook any origin", cfg, http.MethodPost, "/api/v1/webhooks/mercadopago", "https://evil.example", http.StatusOK, "*", ""},
		{"webhook preflight", cfg, http.MethodOptions, "/api/v1/webhooks/mercadopago", "", http.StatusOK, "*", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			corsHandler(tc.cfg).ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			require.Equal(t, tc.wantAllowed, rec.Header().Get("Access-Control-Allow-Origin"))
			require.Equal(t, tc.wantCreds, rec.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestCORSExposesCSRFHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/admin/orders", nil)
	req.Header.Set("Origin", "https://admin.conectados420.cl")
	rec := httptest.NewRecorder()
	corsHandler(config.CORSConfig{AllowedOrigins: []string{"https://admin.conectados420.cl"}}).ServeHTTP(rec, req)

	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), CSRFHeader)
	require.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), CSRFHeader)
}
