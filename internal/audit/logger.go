// Package audit records admin mutations as structured log entries.
package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one admin action.
type Entry struct {
	Timestamp    time.Time         `json:"timestamp"`
	Action       string            `json:"action"`
	AdminUser    string            `json:"admin_user"`
	ResourceType string            `json:"resource_type,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	IPAddress    string            `json:"ip_address"`
	Status       string            `json:"status"` // "success" or "failure"
	Details      map[string]string `json:"details,omitempty"`
}

type Logger struct {
	logger zerolog.Logger
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("component", "audit").Logger()}
}

func (l *Logger) Log(entry Entry) {
	if l == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	l.logger.Info().Interface("audit", entry).Msg(entry.Action)
}

type contextKey string

const adminUserKey contextKey = "auditAdminUser"

// WithAdminUser stores the acting admin for LogFromRequest.
func WithAdminUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, adminUserKey, user)
}

func adminUser(ctx context.Context) string {
	if user, ok := ctx.Value(adminUserKey).(string); ok && user != "" {
		return user
	}
	return "unknown"
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// LogFromRequest logs an action taken by the admin authenticated on r.
func (l *Logger) LogFromRequest(r *http.Request, action, resourceType, resourceID, status string, details map[string]string) {
	l.Log(Entry{
		Action:       action,
		AdminUser:    adminUser(r.Context()),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    clientIP(r),
		Status:       status,
		Details:      details,
	})
}
