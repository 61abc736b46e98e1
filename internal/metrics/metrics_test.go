package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/riverqueue/river/rivertype"
)

func TestInit(t *testing.T) {
	Init("v1.0.0", "abc123", "2026-01-30")

	if testutil.CollectAndCount(AppInfo) == 0 {
		t.Error("AppInfo metric should be registered")
	}
}

func TestObservers(t *testing.T) {
	ObservePayment("webhook", "approved")
	if got := testutil.ToFloat64(PaymentsProcessed.WithLabelValues("webhook", "approved")); got < 1 {
		t.Errorf("payments_processed_total = %v", got)
	}

	before := testutil.ToFloat64(ShippingQuotes.WithLabelValues("static", "true"))
	ObserveShippingQuote("static", true)
	if got := testutil.ToFloat64(ShippingQuotes.WithLabelValues("static", "true")); got != before+1 {
		t.Errorf("shipping_quotes_total = %v, want %v", got, before+1)
	}

	ObserveEmail("order_shipped", "sent")
	ObserveCoupon("valid")
	if testutil.CollectAndCount(EmailsSent) == 0 || testutil.CollectAndCount(CouponValidations) == 0 {
		t.Error("domain counters should record observations")
	}
}

func TestHTTPMiddleware(t *testing.T) {
	// Create a test handler
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Wrap with metrics middleware
	wrapped := HTTPMiddleware(handler)

	// Create test request
	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	// Execute request
	wrapped.ServeHTTP(rec, req)

	// Verify response
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}

	// Verify metrics were recorded
	if testutil.CollectAndCount(HTTPRequestsTotal) == 0 {
		t.Error("HTTPRequestsTotal should have recorded at least one request")
	}

	if testutil.CollectAndCount(HTTPRequestDuration) == 0 {
		t.Error("HTTPRequestDuration should have recorded at least one request")
	}
}

func TestHTTPMiddlewareStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"OK", http.StatusOK},
		{"Not Found", http.StatusNotFound},
		{"Internal Server Error", http.StatusInternalServerError},
		{"Unauthorized", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			wrapped := HTTPMiddleware(handler)
			req := httptest.NewRequest("GET", "/test", nil)
			rec := httptest.NewRecorder()

			wrapped.ServeHTTP(rec, req)

			if rec.Code != tt.statusCode {
				t.Errorf("Expected status %d, got %d", tt.statusCode, rec.Code)
			}
		})
	}
}

func TestDBCollector(t *testing.T) {
	collector := NewDBCollector(nil)
	collector.collect()
	collector.Stop()
	collector.Stop()
}

func TestRecordQuery(t *testing.T) {
	RecordQuery("select", time.Now(), nil)
	if testutil.CollectAndCount(DBQueryDuration) == 0 {
		t.Error("DBQueryDuration should have recorded at least one query")
	}

	before := testutil.ToFloat64(DBErrors.WithLabelValues("select", "canceled"))
	RecordQuery("select", time.Now(), context.Canceled)
	RecordQuery("select", time.Now(), pgx.ErrNoRows)
	if got := testutil.ToFloat64(DBErrors.WithLabelValues("select", "canceled")); got != before+1 {
		t.Errorf("canceled errors = %v, want %v", got, before+1)
	}
}

func TestQueryTracer(t *testing.T) {
	tracer := QueryTracer{}
	ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: "  UPDATE orders SET status = $1"})

	before := testutil.ToFloat64(DBErrors.WithLabelValues("update", "unique_violation"))
	tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{Err: &pgconn.PgError{Code: "23505"}})
	if got := testutil.ToFloat64(DBErrors.WithLabelValues("update", "unique_violation")); got != before+1 {
		t.Errorf("unique violations = %v, want %v", got, before+1)
	}

	// end without a start is ignored
	tracer.TraceQueryEnd(context.Background(), nil, pgx.TraceQueryEndData{})
}

func TestSQLOperation(t *testing.T) {
	tests := map[string]string{
		"SELECT 1":                             "select",
		"\n insert into orders values ($1)":    "insert",
		"INSERT INTO orders VALUES ($1)":       "insert",
		"with x as (select 1) select * from x": "with",
		"":                                     "other",
		"VACUUM":                               "other",
	}
	for sql, want := range tests {
		if got := sqlOperation(sql); got != want {
			t.Errorf("sqlOperation(%q) = %q, want %q", sql, got, want)
		}
	}
}

func TestResponseWriterStatusCode(t *testing.T) {
	// Test that default status code is 200 when WriteHeader is not called
	rec := httptest.NewRecorder()
	rw := &responseWriter{
		ResponseWriter: rec,
		statusCode:     0,
		bytesWritten:   0,
	}

	_, _ = rw.Write([]byte("test"))

	if rw.statusCode != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", rw.statusCode)
	}
}

func TestResponseWriterBytesWritten(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{
		ResponseWriter: rec,
		statusCode:     0,
		bytesWritten:   0,
	}

	content := []byte("Hello, World!")
	_, _ = rw.Write(content)

	if rw.bytesWritten != len(content) {
		t.Errorf("Expected %d bytes written, got %d", len(content), rw.bytesWritten)
	}
}

func TestRiverMetricsHook(t *testing.T) {
	hook := NewRiverMetricsHook()
	job := &rivertype.JobRow{ID: 42, Kind: "send_notification_email"}

	if err := hook.WorkBegin(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	if err := hook.WorkEnd(context.Background(), job, nil); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(RiverJobsInFlight.WithLabelValues(job.Kind)); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(RiverJobsCompleted.WithLabelValues(job.Kind, "success")); got < 1 {
		t.Errorf("completed = %v", got)
	}
	if len(hook.startTime) != 0 {
		t.Errorf("start times not cleaned up: %d", len(hook.startTime))
	}
}
