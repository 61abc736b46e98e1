package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type stubRedis struct {
	enabled bool
	err     error
}

func (s stubRedis) Enabled() bool                { return s.enabled }
func (s stubRedis) Ping(_ context.Context) error { return s.err }

func runHealth(t *testing.T, checker *HealthChecker) (int, HealthCheck) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	checker.Health().ServeHTTP(w, req)

	var response HealthCheck
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return w.Code, response
}

func TestHealthCheck_NilPool(t *testing.T) {
	checker := NewHealthChecker(nil, false, nil, "0.1.0", "test-commit")

	code, response := runHealth(t, checker)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", response.Status)
	assert.Equal(t, "0.1.0", response.Version)
	assert.Equal(t, "test-commit", response.GitCommit)
	assert.NotEmpty(t, response.Timestamp)

	for _, name := range []string{"database", "migrations", "job_queue", "redis"} {
		_, ok := response.Checks[name]
		assert.True(t, ok, "missing %s check", name)
	}
	assert.Equal(t, checkFail, response.Checks["database"].Status)
	assert.Contains(t, response.Checks["migrations"].Message, "Database pool not initialized")
	assert.Equal(t, checkWarn, response.Checks["job_queue"].Status)
	assert.Equal(t, checkPass, response.Checks["redis"].Status)
}

func TestHealthCheck_Redis(t *testing.T) {
	tests := []struct {
		name   string
		redis  RedisPinger
		status string
	}{
		{name: "disabled", redis: stubRedis{}, status: checkPass},
		{name: "reachable", redis: stubRedis{enabled: true}, status: checkPass},
		{name: "unreachable degrades", redis: stubRedis{enabled: true, err: errors.New("dial tcp: refused")}, status: checkWarn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker(nil, false, tt.redis, "v", "c")
			res := checker.checkRedis(context.Background())
			assert.Equal(t, tt.status, res.Status)
		})
	}
}

func TestHealthCheck_ShuttingDown(t *testing.T) {
	checker := NewHealthChecker(nil, false, nil, "v", "c")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	checker.Health().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "shutting_down")
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	Healthz().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestReadyzWithoutPool(t *testing.T) {
	w := httptest.NewRecorder()
	Readyz(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"not_ready"}`, w.Body.String())
}

func setupTestDB(t *testing.T, ctx context.Context) (*pgxpool.Pool, func()) {
	t.Helper()

	// Try DATABASE_URL first (faster for CI/local with existing DB)
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(ctx, dbURL)
		if err == nil && pool.Ping(ctx) == nil {
			return pool, func() { pool.Close() }
		}
		t.Logf("DATABASE_URL set but connection failed, using testcontainer")
	}

	postgresContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("storefront_test"),
		tcpostgres.WithUsername("storefront"),
		tcpostgres.WithPassword("storefront-test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")

	dbURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err, "failed to connect to test database")
	require.NoError(t, pool.Ping(ctx), "failed to ping test database")

	cleanup := func() {
		pool.Close()
		if err := testcontainers.TerminateContainer(postgresContainer); err != nil {
			t.Logf("Failed to terminate PostgreSQL container: %v", err)
		}
	}
	return pool, cleanup
}

// TestHealthCheck_MigrationStates covers clean, dirty and missing migration
// tables against a real database.
func TestHealthCheck_MigrationStates(t *testing.T) {
	if testing.Short() {
		t.Skip("requires PostgreSQL")
	}
	ctx := context.Background()
	pool, cleanup := setupTestDB(t, ctx)
	defer cleanup()

	createTable := func(t *testing.T, dirty bool) {
		_, err := pool.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version BIGINT PRIMARY KEY,
				dirty BOOLEAN NOT NULL
			)`)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `
			INSERT INTO schema_migrations (version, dirty) VALUES (7, $1)
			ON CONFLICT (version) DO UPDATE SET dirty = EXCLUDED.dirty`, dirty)
		require.NoError(t, err)
	}

	tests := []struct {
		name    string
		setup   func(t *testing.T)
		status  string
		message string
	}{
		{
			name:    "clean migrations pass",
			setup:   func(t *testing.T) { createTable(t, false) },
			status:  checkPass,
			message: "Migrations applied (version 7)",
		},
		{
			name:    "dirty migration fails",
			setup:   func(t *testing.T) { createTable(t, true) },
			status:  checkFail,
			message: "Database in dirty migration state",
		},
		{
			name: "missing table fails",
			setup: func(t *testing.T) {
				_, err := pool.Exec(ctx, `DROP TABLE IF EXISTS schema_migrations`)
				require.NoError(t, err)
			},
			status:  checkFail,
			message: "Failed to query migration version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup(t)
			checker := NewHealthChecker(pool, false, nil, "0.1.0", "test-commit")

			_, response := runHealth(t, checker)
			assert.Equal(t, checkPass, response.Checks["database"].Status)

			mig := response.Checks["migrations"]
			assert.Equal(t, tt.status, mig.Status)
			assert.Contains(t, mig.Message, tt.message)
			assert.Less(t, mig.LatencyMs, int64(2000))
		})
	}
}
