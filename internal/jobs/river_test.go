package jobs

import (
	"testing"
	"time"

	"github.com/riverqueue/river/rivertype"
)

func TestNewRetryPolicy(t *testing.T) {
	policy := NewRetryPolicy()

	if policy == nil {
		t.Fatal("NewRetryPolicy() returned nil")
	}
	if policy.Default.MaxAttempts != CleanupMaxAttempts {
		t.Errorf("Default.MaxAttempts = %d, want %d", policy.Default.MaxAttempts, CleanupMaxAttempts)
	}

	tests := []struct {
		kind                string
		expectedMaxAttempts int
		expectedBaseDelay   time.Duration
		expectedMaxDelay    time.Duration
	}{
		{JobKindSendEmail, SendEmailMaxAttempts, 30 * time.Second, 15 * time.Minute},
		{JobKindSyncTracking, SyncTrackingMaxAttempts, 5 * time.Minute, 1 * time.Hour},
		{JobKindPaymentLogsCleanup, CleanupMaxAttempts, 1 * time.Minute, 1 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			config, ok := policy.ByKind[tt.kind]
			if !ok {
				t.Fatalf("kind %s not found in ByKind map", tt.kind)
			}
			if config.MaxAttempts != tt.expectedMaxAttempts {
				t.Errorf("MaxAttempts = %d, want %d", config.MaxAttempts, tt.expectedMaxAttempts)
			}
			if config.BaseDelay != tt.expectedBaseDelay {
				t.Errorf("BaseDelay = %v, want %v", config.BaseDelay, tt.expectedBaseDelay)
			}
			if config.MaxDelay != tt.expectedMaxDelay {
				t.Errorf("MaxDelay = %v, want %v", config.MaxDelay, tt.expectedMaxDelay)
			}
		})
	}
}

func TestRetryPolicy_NextRetry(t *testing.T) {
	policy := NewRetryPolicy()
	now := time.Now()

	tests := []struct {
		name          string
		kind          string
		attempt       int
		expectedDelay time.Duration
	}{
		{"email first attempt", JobKindSendEmail, 1, 30 * time.Second},
		{"email second attempt doubles", JobKindSendEmail, 2, 1 * time.Minute},
		{"email fourth attempt", JobKindSendEmail, 4, 4 * time.Minute},
		{"email capped", JobKindSendEmail, 10, 15 * time.Minute},
		{"zero attempt treated as first", JobKindSyncTracking, 0, 5 * time.Minute},
		{"unknown kind uses default", "unknown", 1, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := &rivertype.JobRow{Kind: tt.kind, Attempt: tt.attempt, AttemptedAt: &now}
			got := policy.NextRetry(job).Sub(now)
			if got != tt.expectedDelay {
				t.Errorf("NextRetry() delay = %v, want %v", got, tt.expectedDelay)
			}
		})
	}
}

func TestInsertOptsForKind(t *testing.T) {
	opts := InsertOptsForKind(JobKindSendEmail)
	if opts.MaxAttempts != SendEmailMaxAttempts {
		t.Errorf("MaxAttempts = %d, want %d", opts.MaxAttempts, SendEmailMaxAttempts)
	}
	if opts.Queue != QueueEmail {
		t.Errorf("Queue = %q, want %q", opts.Queue, QueueEmail)
	}

	opts = InsertOptsForKind("unknown-kind")
	if opts.MaxAttempts != CleanupMaxAttempts {
		t.Errorf("fallback MaxAttempts = %d, want %d", opts.MaxAttempts, CleanupMaxAttempts)
	}
	if opts.Queue != "" {
		t.Errorf("fallback Queue = %q, want default", opts.Queue)
	}
}

func TestNewPeriodicJobs(t *testing.T) {
	if got := len(NewPeriodicJobs(Schedule{SyncTracking: true})); got != 2 {
		t.Errorf("with tracking: %d jobs, want 2", got)
	}
	if got := len(NewPeriodicJobs(Schedule{})); got != 1 {
		t.Errorf("without tracking: %d jobs, want 1", got)
	}
}

func TestJobKindsDistinct(t *testing.T) {
	kinds := []string{
		SendEmailArgs{}.Kind(),
		SyncTrackingArgs{}.Kind(),
		PaymentLogsCleanupArgs{}.Kind(),
	}
	seen := make(map[string]bool)
	for _, kind := range kinds {
		if kind == "" || seen[kind] {
			t.Errorf("job kind %q is empty or duplicated", kind)
		}
		seen[kind] = true
	}
}
