package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/rs/zerolog"

	"github.com/conectados420/storefront/internal/domain/orders"
	"github.com/conectados420/storefront/internal/email"
)

// SendEmailArgs carries a fully built message; the worker renders it at send
// time.
type SendEmailArgs struct {
	Message email.Message `json:"message"`
	OrderID string        `json:"order_id,omitempty"`
}

func (SendEmailArgs) Kind() string { return JobKindSendEmail }

type SyncTrackingArgs struct{}

func (SyncTrackingArgs) Kind() string { return JobKindSyncTracking }

type PaymentLogsCleanupArgs struct {
	Retention time.Duration `json:"retention"`
}

func (PaymentLogsCleanupArgs) Kind() string { return JobKindPaymentLogsCleanup }

// EmailSender is satisfied by *email.Service.
type EmailSender interface {
	Send(ctx context.Context, msg email.Message) (string, error)
}

type SendEmailWorker struct {
	river.WorkerDefaults[SendEmailArgs]
	Sender EmailSender
	Logger zerolog.Logger
}

func (SendEmailWorker) Kind() string { return JobKindSendEmail }

func (w SendEmailWorker) Work(ctx context.Context, job *river.Job[SendEmailArgs]) error {
	if job == nil {
		return fmt.Errorf("job is nil")
	}
	if w.Sender == nil {
		return fmt.Errorf("email sender not configured")
	}

	msg := job.Args.Message
	id, err := w.Sender.Send(ctx, msg)
	if err != nil {
		// A message that can never render is not worth retrying.
		if errors.Is(err, email.ErrMissingFields) || errors.Is(err, email.ErrUnknownTemplate) {
			w.Logger.Error().Err(err).Str("order_id", job.Args.OrderID).Str("template", msg.Template).Msg("email job cancelled")
			return river.JobCancel(err)
		}
		return fmt.Errorf("send email: %w", err)
	}

	w.Logger.Info().
		Str("order_id", job.Args.OrderID).
		Str("template", msg.Template).
		Str("email_id", id).
		Int("attempt", job.Attempt).
		Msg("notification email delivered")
	return nil
}

// DeliverySyncer is satisfied by *orders.Service.
type DeliverySyncer interface {
	SyncDeliveries(ctx context.Context, checker orders.DeliveryChecker) (orders.SyncResult, error)
}

type SyncTrackingWorker struct {
	river.WorkerDefaults[SyncTrackingArgs]
	Orders  DeliverySyncer
	Checker orders.DeliveryChecker
	Logger  zerolog.Logger
}

func (SyncTrackingWorker) Kind() string { return JobKindSyncTracking }

func (w SyncTrackingWorker) Work(ctx context.Context, job *river.Job[SyncTrackingArgs]) error {
	if w.Orders == nil || w.Checker == nil {
		return fmt.Errorf("tracking sync not configured")
	}

	start := time.Now()
	result, err := w.Orders.SyncDeliveries(ctx, w.Checker)
	if err != nil {
		return fmt.Errorf("sync deliveries: %w", err)
	}

	w.Logger.Info().
		Int("checked", result.Checked).
		Int("delivered", result.Delivered).
		Int("failed", result.Failed).
		Float64("duration_seconds", time.Since(start).Seconds()).
		Msg("tracking sync completed")
	return nil
}

// LogPurger is satisfied by *payments.Service.
type LogPurger interface {
	PurgeLogs(ctx context.Context, retention time.Duration) (int64, error)
}

type PaymentLogsCleanupWorker struct {
	river.WorkerDefaults[PaymentLogsCleanupArgs]
	Payments LogPurger
	Logger   zerolog.Logger
}

func (PaymentLogsCleanupWorker) Kind() string { return JobKindPaymentLogsCleanup }

func (w PaymentLogsCleanupWorker) Work(ctx context.Context, job *river.Job[PaymentLogsCleanupArgs]) error {
	if w.Payments == nil {
		return fmt.Errorf("payments service not configured")
	}
	retention := job.Args.Retention
	if retention <= 0 {
		retention = DefaultPaymentLogRetention
	}

	deleted, err := w.Payments.PurgeLogs(ctx, retention)
	if err != nil {
		return fmt.Errorf("purge payment logs: %w", err)
	}
	w.Logger.Info().Int64("deleted_count", deleted).Dur("retention", retention).Msg("payment log cleanup completed")
	return nil
}

// Deps are the services the workers call into. A nil Checker leaves the
// tracking worker unregistered.
type Deps struct {
	Email    EmailSender
	Orders   DeliverySyncer
	Checker  orders.DeliveryChecker
	Payments LogPurger
	Logger   zerolog.Logger
}

// NewWorkers registers every worker the deps can serve.
func NewWorkers(deps Deps) *river.Workers {
	logger := deps.Logger.With().Str("component", "jobs").Logger()
	workers := river.NewWorkers()
	river.AddWorker[SendEmailArgs](workers, SendEmailWorker{Sender: deps.Email, Logger: logger})
	river.AddWorker[PaymentLogsCleanupArgs](workers, PaymentLogsCleanupWorker{Payments: deps.Payments, Logger: logger})
	if deps.Checker != nil {
		river.AddWorker[SyncTrackingArgs](workers, SyncTrackingWorker{Orders: deps.Orders, Checker: deps.Checker, Logger: logger})
	}
	return workers
}
