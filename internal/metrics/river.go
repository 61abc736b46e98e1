package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// River job metrics
var (
	RiverJobsQueued = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "river_jobs_queued_total",
			Help:      "Total number of River jobs queued",
		},
		[]string{"kind"},
	)

	RiverJobsInFlight = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "river_jobs_in_flight",
			Help:      "Current number of River jobs executing",
		},
		[]string{"kind"},
	)

	RiverJobDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "river_job_duration_seconds",
			Help:      "River job execution duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"kind"},
	)

	RiverJobsCompleted = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "river_jobs_completed_total",
			Help:      "Total number of River jobs completed",
		},
		[]string{"kind", "result"}, // result: success, error
	)
)

// RiverMetricsHook implements River's Hook interface for Prometheus metrics
type RiverMetricsHook struct {
	river.HookDefaults

	mu        sync.Mutex
	startTime map[int64]time.Time
}

func NewRiverMetricsHook() *RiverMetricsHook {
	return &RiverMetricsHook{startTime: make(map[int64]time.Time)}
}

func (h *RiverMetricsHook) InsertBegin(ctx context.Context, params *rivertype.JobInsertParams) error {
	RiverJobsQueued.WithLabelValues(params.Kind).Inc()
	return nil
}

func (h *RiverMetricsHook) WorkBegin(ctx context.Context, job *rivertype.JobRow) error {
	RiverJobsInFlight.WithLabelValues(job.Kind).Inc()
	h.mu.Lock()
	h.startTime[job.ID] = time.Now()
	h.mu.Unlock()
	return nil
}

func (h *RiverMetricsHook) WorkEnd(ctx context.Context, job *rivertype.JobRow, err error) error {
	RiverJobsInFlight.WithLabelValues(job.Kind).Dec()

	h.mu.Lock()
	startTime, ok := h.startTime[job.ID]
	delete(h.startTime, job.ID)
	h.mu.Unlock()
	if ok {
		RiverJobDuration.WithLabelValues(job.Kind).Observe(time.Since(startTime).Seconds())
	}

	result := "success"
	if err != nil {
		result = "error"
	}
	RiverJobsCompleted.WithLabelValues(job.Kind, result).Inc()
	return nil
}
