package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"

	"github.com/conectados420/storefront/internal/email"
)

// Inserter is satisfied by *river.Client.
type Inserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// QueueNotifier enqueues notification emails for SendEmailWorker. Until a
// client is attached, or when the insert fails, messages go to the fallback.
type QueueNotifier struct {
	mu          sync.RWMutex
	client      Inserter
	fallback    email.Notifier
	maxAttempts int
	logger      zerolog.Logger
}

var _ email.Notifier = (*QueueNotifier)(nil)

// NewQueueNotifier builds a notifier. maxAttempts <= 0 keeps the kind's
// default retry policy.
func NewQueueNotifier(fallback email.Notifier, maxAttempts int, logger zerolog.Logger) *QueueNotifier {
	return &QueueNotifier{
		fallback:    fallback,
		maxAttempts: maxAttempts,
		logger:      logger.With().Str("component", "email_queue").Logger(),
	}
}

// Attach routes subsequent messages through client. The services that
// notify are built before the River client exists, hence the late binding.
func (n *QueueNotifier) Attach(client Inserter) {
	n.mu.Lock()
	n.client = client
	n.mu.Unlock()
}

func (n *QueueNotifier) Notify(ctx context.Context, msg email.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	n.mu.RLock()
	client := n.client
	n.mu.RUnlock()

	if client != nil {
		opts := n.insertOpts()
		_, err := client.Insert(ctx, SendEmailArgs{Message: msg, OrderID: orderIDOf(msg)}, &opts)
		if err == nil {
			return nil
		}
		n.logger.Warn().Err(err).Str("template", msg.Template).Msg("enqueue email failed; sending inline")
	}

	if n.fallback == nil {
		return fmt.Errorf("no email delivery configured")
	}
	return n.fallback.Notify(ctx, msg)
}

func (n *QueueNotifier) insertOpts() river.InsertOpts {
	opts := InsertOptsForKind(JobKindSendEmail)
	if n.maxAttempts > 0 {
		opts.MaxAttempts = n.maxAttempts
	}
	return opts
}

func orderIDOf(msg email.Message) string {
	if id, ok := msg.Data["orderIdFull"].(string); ok {
		return id
	}
	return ""
}
