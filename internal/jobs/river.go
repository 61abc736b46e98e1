package jobs

import (
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
)

const (
	JobKindSendEmail          = "send_notification_email"
	JobKindSyncTracking       = "sync_tracking"
	JobKindPaymentLogsCleanup = "payment_logs_cleanup"
)

const (
	SendEmailMaxAttempts    = 5
	SyncTrackingMaxAttempts = 3
	CleanupMaxAttempts      = 3
)

// QueueEmail keeps email delivery off the default queue so a slow provider
// does not hold up the periodic sweeps.
const QueueEmail = "email"

const (
	DefaultTrackingSyncInterval = 6 * time.Hour
	DefaultPaymentLogRetention  = 365 * 24 * time.Hour
)

// RetryConfig controls per-kind retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryPolicy implements River's ClientRetryPolicy with per-kind exponential backoff.
type RetryPolicy struct {
	Default RetryConfig
	ByKind  map[string]RetryConfig
}

// NewRetryPolicy returns the default retry policy configuration.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		Default: RetryConfig{
			MaxAttempts: CleanupMaxAttempts,
			BaseDelay:   30 * time.Second,
			MaxDelay:    30 * time.Minute,
		},
		ByKind: map[string]RetryConfig{
			JobKindSendEmail: {
				MaxAttempts: SendEmailMaxAttempts,
				BaseDelay:   30 * time.Second,
				MaxDelay:    15 * time.Minute,
			},
			JobKindSyncTracking: {
				MaxAttempts: SyncTrackingMaxAttempts,
				BaseDelay:   5 * time.Minute,
				MaxDelay:    1 * time.Hour,
			},
			JobKindPaymentLogsCleanup: {
				MaxAttempts: CleanupMaxAttempts,
				BaseDelay:   1 * time.Minute,
				MaxDelay:    1 * time.Hour,
			},
		},
	}
}

// NextRetry determines the next retry time for a failed job.
func (p *RetryPolicy) NextRetry(job *rivertype.JobRow) time.Time {
	config := p.configFor(job.Kind)
	if config.BaseDelay == 0 {
		return time.Now()
	}

	attempt := job.Attempt
	if attempt < 1 {
		attempt = 1
	}

	delay := time.Duration(float64(config.BaseDelay) * math.Pow(2, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}

	if job.AttemptedAt != nil {
		return job.AttemptedAt.Add(delay)
	}

	return time.Now().Add(delay)
}

// InsertOptsForKind returns default insert options for a job kind.
func InsertOptsForKind(kind string) river.InsertOpts {
	config := NewRetryPolicy().configFor(kind)
	opts := river.InsertOpts{MaxAttempts: config.MaxAttempts}
	if kind == JobKindSendEmail {
		opts.Queue = QueueEmail
	}
	return opts
}

// NewClientConfig builds a River client configuration with retry policy.
func NewClientConfig(workers *river.Workers, logger *slog.Logger, hooks []rivertype.Hook, periodicJobs []*river.PeriodicJob) *river.Config {
	policy := NewRetryPolicy()
	config := &river.Config{
		Workers:      workers,
		RetryPolicy:  policy,
		MaxAttempts:  policy.Default.MaxAttempts,
		PeriodicJobs: periodicJobs,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 5},
			QueueEmail:         {MaxWorkers: 5},
		},
		Hooks: hooks,
	}
	if logger != nil {
		config.Logger = logger
		config.ErrorHandler = NewAlertingErrorHandler(logger, nil)
	}
	return config
}

// NewClient creates a River client using pgx v5.
func NewClient(pool *pgxpool.Pool, workers *river.Workers, logger *slog.Logger, hooks []rivertype.Hook, periodicJobs []*river.PeriodicJob) (*river.Client[pgx.Tx], error) {
	return river.NewClient(riverpgxv5.New(pool), NewClientConfig(workers, logger, hooks, periodicJobs))
}

// Schedule configures the periodic jobs.
type Schedule struct {
	TrackingSyncInterval time.Duration
	PaymentLogRetention  time.Duration
	// SyncTracking is false when no carrier lookup is configured.
	SyncTracking bool
}

// NewPeriodicJobs creates the periodic job schedule:
//   - tracking sync every TrackingSyncInterval (6h by default)
//   - payment log cleanup daily
func NewPeriodicJobs(s Schedule) []*river.PeriodicJob {
	interval := s.TrackingSyncInterval
	if interval <= 0 {
		interval = DefaultTrackingSyncInterval
	}
	retention := s.PaymentLogRetention
	if retention <= 0 {
		retention = DefaultPaymentLogRetention
	}

	var jobs []*river.PeriodicJob
	if s.SyncTracking {
		jobs = append(jobs, river.NewPeriodicJob(
			river.PeriodicInterval(interval),
			func() (river.JobArgs, *river.InsertOpts) {
				return SyncTrackingArgs{}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}
	jobs = append(jobs, river.NewPeriodicJob(
		river.PeriodicInterval(24*time.Hour),
		func() (river.JobArgs, *river.InsertOpts) {
			return PaymentLogsCleanupArgs{Retention: retention}, nil
		},
		&river.PeriodicJobOpts{RunOnStart: false},
	))
	return jobs
}

func (p *RetryPolicy) configFor(kind string) RetryConfig {
	if p == nil {
		return RetryConfig{MaxAttempts: CleanupMaxAttempts, BaseDelay: 1 * time.Minute, MaxDelay: 1 * time.Hour}
	}
	if config, ok := p.ByKind[kind]; ok {
		return config
	}
	return p.Default
}
