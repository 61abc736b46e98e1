package mcp

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/conectados420/storefront/internal/auth"
	"github.com/conectados420/storefront/internal/config"
)

func TestLoadTransportConfig(t *testing.T) {
	tests := []struct {
		name      string
		transport string
		port      string
		want      TransportType
		wantPort  int
		wantErr   bool
	}{
		{name: "defaults", want: TransportStdio, wantPort: DefaultPort},
		{name: "http with port", transport: "http", port: "9100", want: TransportHTTP, wantPort: 9100},
		{name: "sse", transport: "sse", want: TransportSSE, wantPort: DefaultPort},
		{name: "unknown transport", transport: "grpc", wantErr: true},
		{name: "port out of range", port: "70000", wantErr: true},
		{name: "port not a number", port: "http", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MCP_TRANSPORT", tt.transport)
			t.Setenv("PORT", tt.port)
			t.Setenv("HOST", "")

			cfg, err := LoadTransportConfig()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, cfg.Type)
			require.Equal(t, tt.wantPort, cfg.Port)
			require.Equal(t, "0.0.0.0", cfg.Host)
		})
	}
}

func TestWrapMCPHandlerRequiresAdminToken(t *testing.T) {
	jwt := auth.NewJWTManager([]byte("test-secret-test-secret-test-secret"), time.Hour, "test")
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	wrapped, err := wrapMCPHandler(ok, Guard{JWT: jwt, Env: "test", RateLimit: config.Defaults().RateLimit, Logger: zerolog.Nop()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := jwt.Generate("p1", "ops@conectados420.cl", string(auth.RoleAdmin))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	wrapped.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestWrapMCPHandlerNil(t *testing.T) {
	_, err := wrapMCPHandler(nil, Guard{})
	require.Error(t, err)
}
