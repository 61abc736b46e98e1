package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionHandler(t *testing.T) {
	tests := []struct {
		name                          string
		version, gitCommit, buildDate string
		want                          versionResponse
	}{
		{
			name:      "all values",
			version:   "1.4.0",
			gitCommit: "abc123def456",
			buildDate: "2026-10-01T12:00:00Z",
			want:      versionResponse{Version: "1.4.0", GitCommit: "abc123def456", BuildDate: "2026-10-01T12:00:00Z"},
		},
		{
			name: "defaults",
			want: versionResponse{Version: "dev", GitCommit: "unknown", BuildDate: "unknown"},
		},
		{
			name:      "partial",
			version:   "1.4.0",
			buildDate: "2026-10-01T12:00:00Z",
			want:      versionResponse{Version: "1.4.0", GitCommit: "unknown", BuildDate: "2026-10-01T12:00:00Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			VersionHandler(tt.version, tt.gitCommit, tt.buildDate).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))

			var got versionResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			tt.want.Service = ServiceName
			tt.want.GoVersion = runtime.Version()
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVersionRouteRejectsWrites(t *testing.T) {
	router := NewRouter(testConfig(), zerolog.Nop(), nil, "1.4.0", "abc123", "")

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.Handler.ServeHTTP(w, httptest.NewRequest(method, "/version", nil))
			assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		})
	}
}
