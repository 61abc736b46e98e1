package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/conectados420/storefront/internal/metrics"
)

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

const (
	checkPass = "pass"
	checkWarn = "warn"
	checkFail = "fail"
)

// RedisPinger is the webhook dedup guard's connection.
type RedisPinger interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// HealthChecker runs the readiness checks behind /health.
type HealthChecker struct {
	pool      *pgxpool.Pool
	jobQueue  bool
	redis     RedisPinger
	version   string
	gitCommit string
	timeout   time.Duration
}

// NewHealthChecker creates a health checker. jobQueue reports whether a
// River client is running in this process.
func NewHealthChecker(pool *pgxpool.Pool, jobQueue bool, redis RedisPinger, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		pool:      pool,
		jobQueue:  jobQueue,
		redis:     redis,
		version:   version,
		gitCommit: gitCommit,
		timeout:   2 * time.Second,
	}
}

// Health runs every check concurrently and reports 503 when any fails.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Context().Err() != nil {
			respondHealth(w, http.StatusServiceUnavailable, "shutting_down")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := h.Run(ctx)

		overallStatus := "healthy"
		statusCode := http.StatusOK
		gauge := 2.0
		for _, check := range checks {
			if check.Status == checkFail {
				overallStatus = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				gauge = 0
				break
			}
			if check.Status == checkWarn {
				overallStatus = "degraded"
				gauge = 1
			}
		}
		metrics.HealthStatus.Set(gauge)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(HealthCheck{
			Status:    overallStatus,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Run executes all checks and records their metrics.
func (h *HealthChecker) Run(ctx context.Context) map[string]CheckResult {
	named := map[string]func(context.Context) CheckResult{
		"database":   h.checkDatabase,
		"migrations": h.checkMigrations,
		"job_queue":  h.checkJobQueue,
		"redis":      h.checkRedis,
	}

	var mu sync.Mutex
	results := make(map[string]CheckResult, len(named))
	g, gctx := errgroup.WithContext(ctx)
	for name, check := range named {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, h.timeout)
			defer cancel()
			start := time.Now()
			res := check(cctx)
			if res.LatencyMs == 0 {
				res.LatencyMs = time.Since(start).Milliseconds()
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for name, res := range results {
		metrics.HealthCheckStatus.WithLabelValues(name).Set(statusGauge(res.Status))
		metrics.HealthCheckLatency.WithLabelValues(name).Set(float64(res.LatencyMs))
	}
	return results
}

func statusGauge(status string) float64 {
	switch status {
	case checkPass:
		return 2
	case checkWarn:
		return 1
	default:
		return 0
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.pool == nil {
		return CheckResult{Status: checkFail, Message: "Database pool not initialized"}
	}

	var one int
	if err := h.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		message := "Database query failed"
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			message = "Database query timed out"
		case strings.Contains(err.Error(), "connection refused"):
			message = "Database connection refused"
		case strings.Contains(err.Error(), "authentication failed"):
			message = "Database authentication failed"
		}
		return CheckResult{Status: checkFail, Message: message, Details: map[string]any{"error": err.Error()}}
	}

	stats := h.pool.Stat()
	return CheckResult{
		Status:  checkPass,
		Message: "PostgreSQL connection successful",
		Details: map[string]any{
			"max_connections":      stats.MaxConns(),
			"total_connections":    stats.TotalConns(),
			"idle_connections":     stats.IdleConns(),
			"acquired_connections": stats.AcquiredConns(),
		},
	}
}

func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	if h.pool == nil {
		return CheckResult{Status: checkFail, Message: "Database pool not initialized"}
	}

	var version int64
	var dirty bool
	err := h.pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version, &dirty)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return CheckResult{Status: checkFail, Message: "No migrations applied", Details: map[string]any{"remediation": "run: server migrate up"}}
	case err != nil:
		return CheckResult{Status: checkFail, Message: "Failed to query migration version", Details: map[string]any{"error": err.Error()}}
	case dirty:
		return CheckResult{
			Status:  checkFail,
			Message: "Database in dirty migration state",
			Details: map[string]any{"version": version, "dirty": true},
		}
	}
	return CheckResult{
		Status:  checkPass,
		Message: fmt.Sprintf("Migrations applied (version %d)", version),
		Details: map[string]any{"version": version},
	}
}

func (h *HealthChecker) checkJobQueue(ctx context.Context) CheckResult {
	if !h.jobQueue || h.pool == nil {
		return CheckResult{Status: checkWarn, Message: "Job queue not running; email is sent inline"}
	}

	var active int64
	err := h.pool.QueryRow(ctx, `SELECT COUNT(*) FROM river_job WHERE state = ANY($1)`, []string{"available", "running", "retryable"}).Scan(&active)
	if err != nil {
		return CheckResult{Status: checkFail, Message: "Failed to query job queue", Details: map[string]any{"error": err.Error()}}
	}
	return CheckResult{
		Status:  checkPass,
		Message: "River job queue operational",
		Details: map[string]any{"active_jobs": active},
	}
}

func (h *HealthChecker) checkRedis(ctx context.Context) CheckResult {
	if h.redis == nil || !h.redis.Enabled() {
		return CheckResult{Status: checkPass, Message: "Webhook dedup disabled"}
	}
	if err := h.redis.Ping(ctx); err != nil {
		// Dedup failures are non-fatal for webhooks, so Redis only degrades.
		return CheckResult{Status: checkWarn, Message: "Redis unreachable", Details: map[string]any{"error": err.Error()}}
	}
	return CheckResult{Status: checkPass, Message: "Redis reachable"}
}

// Healthz is the liveness probe.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

// Readyz reports ready once the database answers.
func Readyz(pool *pgxpool.Pool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pool == nil {
			respondHealth(w, http.StatusServiceUnavailable, "not_ready")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			respondHealth(w, http.StatusServiceUnavailable, "not_ready")
			return
		}
		respondHealth(w, http.StatusOK, "ready")
	})
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: value})
}
