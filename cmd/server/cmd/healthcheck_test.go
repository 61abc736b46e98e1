package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckHealth(t *testing.T) {
	tests := []struct {
		name         string
		statusCode   int
		responseBody any
		wantStatus   string
		wantErr      bool
		wantExitCode int
	}{
		{
			name:       "healthy server",
			statusCode: http.StatusOK,
			responseBody: HealthResponse{
				Status: "healthy",
				Checks: map[string]any{"database": map[string]string{"status": "pass"}},
			},
			wantStatus: "healthy",
		},
		{
			name:         "degraded server",
			statusCode:   http.StatusOK,
			responseBody: HealthResponse{Status: "degraded"},
			wantStatus:   "degraded",
			wantErr:      true,
			wantExitCode: 1,
		},
		{
			name:         "unhealthy server (503)",
			statusCode:   http.StatusServiceUnavailable,
			responseBody: HealthResponse{Status: "unhealthy"},
			wantStatus:   "unhealthy",
			wantErr:      true,
			wantExitCode: 1,
		},
		{
			name:         "invalid response",
			statusCode:   http.StatusOK,
			responseBody: "not json",
			wantErr:      true,
			wantExitCode: 2,
		},
		{
			name:         "error page",
			statusCode:   http.StatusBadGateway,
			responseBody: "<html>bad gateway</html>",
			wantErr:      true,
			wantExitCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if str, ok := tt.responseBody.(string); ok {
					fmt.Fprint(w, str)
				} else {
					_ = json.NewEncoder(w).Encode(tt.responseBody)
				}
			}))
			defer server.Close()

			status, err := checkHealth(context.Background(), server.Client(), server.URL)
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if code := healthExitCode(err); code != tt.wantExitCode {
					t.Errorf("exit code = %d, want %d", code, tt.wantExitCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCheckHealthTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := checkHealth(ctx, server.Client(), server.URL)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestResolveHealthURL(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	if got := resolveHealthURL(""); got != "http://localhost:8080/health" {
		t.Errorf("default url = %q", got)
	}

	t.Setenv("SERVER_PORT", "9090")
	if got := resolveHealthURL(""); got != "http://localhost:9090/health" {
		t.Errorf("env url = %q", got)
	}
	if got := resolveHealthURL("http://api:8080/health"); got != "http://api:8080/health" {
		t.Errorf("flag url = %q", got)
	}
}
