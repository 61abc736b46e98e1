package audit

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) Entry {
	t.Helper()
	var wrapper struct {
		Audit     Entry  `json:"audit"`
		Component string `json:"component"`
		Message   string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &wrapper))
	require.Equal(t, "audit", wrapper.Component)
	require.Equal(t, wrapper.Audit.Action, wrapper.Message)
	return wrapper.Audit
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(zerolog.New(&buf)).Log(Entry{
		Action:       "admin.order.status",
		AdminUser:    "admin@example.com",
		ResourceType: "order",
		ResourceID:   "0c1e4f5a",
		Status:       "success",
		Details:      map[string]string{"status": "shipped"},
	})

	entry := decode(t, &buf)
	require.Equal(t, "admin.order.status", entry.Action)
	require.Equal(t, "shipped", entry.Details["status"])
	require.False(t, entry.Timestamp.IsZero())
}

func TestLogFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		wantIP string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.1:1234", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "10.0.0.1:1234", "198.51.100.2"},
		{"remote addr", nil, "192.0.2.7:5555", "192.0.2.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := httptest.NewRequest("POST", "/api/v1/admin/orders/x/status", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.header {
				r.Header.Set(k, v)
			}
			r = r.WithContext(WithAdminUser(r.Context(), "admin@example.com"))

			NewLogger(zerolog.New(&buf)).LogFromRequest(r, "admin.orders.delete", "order", "x", "success", nil)
			entry := decode(t, &buf)
			require.Equal(t, tt.wantIP, entry.IPAddress)
			require.Equal(t, "admin@example.com", entry.AdminUser)
		})
	}
}

func TestUnknownAdminAndNilLogger(t *testing.T) {
	var buf bytes.Buffer
	r := httptest.NewRequest("DELETE", "/", nil)
	NewLogger(zerolog.New(&buf)).LogFromRequest(r, "a", "", "", "failure", nil)
	require.Equal(t, "unknown", decode(t, &buf).AdminUser)

	var nilLogger *Logger
	nilLogger.Log(Entry{Action: "noop"})
}
