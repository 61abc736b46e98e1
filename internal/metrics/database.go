package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DBConnections = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections",
			Help:      "Database pool connections by state (open, in_use, idle, max)",
		},
		[]string{"state"},
	)

	DBAcquireWaits = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_acquire_waits",
			Help:      "Cumulative acquires that had to wait for a free connection",
		},
	)

	// DBQueryDuration is labelled by SQL verb, not statement text.
	DBQueryDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBErrors = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_errors_total",
			Help:      "Total number of database errors",
		},
		[]string{"operation", "error_type"},
	)
)

// DBCollector samples pool statistics on an interval.
type DBCollector struct {
	pool     *pgxpool.Pool
	stopOnce sync.Once
	stop     chan struct{}
}

func NewDBCollector(pool *pgxpool.Pool) *DBCollector {
	return &DBCollector{pool: pool, stop: make(chan struct{})}
}

// Start blocks until ctx is done or Stop is called.
func (c *DBCollector) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.collect()
	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *DBCollector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *DBCollector) collect() {
	if c.pool == nil {
		return
	}
	stat := c.pool.Stat()
	DBConnections.WithLabelValues("open").Set(float64(stat.TotalConns()))
	DBConnections.WithLabelValues("in_use").Set(float64(stat.AcquiredConns()))
	DBConnections.WithLabelValues("idle").Set(float64(stat.IdleConns()))
	DBConnections.WithLabelValues("max").Set(float64(stat.MaxConns()))
	DBAcquireWaits.Set(float64(stat.EmptyAcquireCount()))
}

// QueryTracer records query latency and errors for every statement run on a
// connection it is installed on (pgx.ConnConfig.Tracer).
type QueryTracer struct{}

var _ pgx.QueryTracer = QueryTracer{}

type queryStartKey struct{}

type queryStart struct {
	operation string
	at        time.Time
}

func (QueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{operation: sqlOperation(data.SQL), at: time.Now()})
}

func (QueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	RecordQuery(start.operation, start.at, data.Err)
}

// RecordQuery observes one statement. pgx.ErrNoRows is a normal outcome and
// not counted as an error.
func RecordQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return
	}
	DBErrors.WithLabelValues(operation, dbErrorType(err)).Inc()
}

func dbErrorType(err error) string {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		return "unique_violation"
	case errors.As(err, &pgErr):
		return "sqlstate_" + pgErr.Code
	default:
		return "query_error"
	}
}

// sqlOperation reduces a statement to its leading verb. CTEs report as
// "with".
func sqlOperation(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "other"
	}
	switch verb := strings.ToLower(fields[0]); verb {
	case "select", "insert", "update", "delete", "with", "begin", "commit", "rollback":
		return verb
	default:
		return "other"
	}
}
