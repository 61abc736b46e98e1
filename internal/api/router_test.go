package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conectados420/storefront/internal/config"
)

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.Auth.JWTSecret = "test-secret-test-secret-test-secret"
	cfg.CORS.AllowedOrigins = []string{"https://conectados420.cl"}
	return cfg
}

func TestNewRouterWithoutDatabase(t *testing.T) {
	router := NewRouter(testConfig(), zerolog.Nop(), nil, "1.2.3", "abc123", "2026-10-01T00:00:00Z")
	require.NotNil(t, router.Handler)
	assert.Nil(t, router.RiverClient)
	assert.Nil(t, router.Services)

	tests := []struct {
		path   string
		status int
	}{
		{path: "/healthz", status: http.StatusOK},
		{path: "/readyz", status: http.StatusServiceUnavailable},
		{path: "/health", status: http.StatusServiceUnavailable},
		{path: "/version", status: http.StatusOK},
		{path: "/metrics", status: http.StatusOK},
		{path: "/api/v1/openapi.json", status: http.StatusOK},
		{path: "/api/v1/products", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestRouterVersionPayload(t *testing.T) {
	router := NewRouter(testConfig(), zerolog.Nop(), nil, "1.2.3", "abc123", "")

	w := httptest.NewRecorder()
	router.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body versionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, "unknown", body.BuildDate)
}

func TestRouterWebhookCORS(t *testing.T) {
	router := NewRouter(testConfig(), zerolog.Nop(), nil, "", "", "")

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/webhooks/mercadopago", nil)
	req.Header.Set("Origin", "https://www.mercadopago.cl")
	w := httptest.NewRecorder()
	router.Handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCSRFKey(t *testing.T) {
	explicit := csrfKey(config.AuthConfig{CSRFKey: "0123456789abcdef0123456789abcdef-extra"})
	assert.Equal(t, []byte("0123456789abcdef0123456789abcdef"), explicit)

	derived := csrfKey(config.AuthConfig{JWTSecret: "secret"})
	assert.Len(t, derived, 32)
	assert.Equal(t, derived, csrfKey(config.AuthConfig{JWTSecret: "secret"}))
	assert.NotEqual(t, derived, csrfKey(config.AuthConfig{JWTSecret: "other"}))
}
