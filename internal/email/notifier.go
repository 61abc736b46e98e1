package email

import "context"

// Notifier hands a message off for delivery. The job queue implementation
// enqueues it; Inline sends it on the caller's goroutine.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

type Inline struct {
	Service *Service
}

func (n Inline) Notify(ctx context.Context, msg Message) error {
	_, err := n.Service.Send(ctx, msg)
	return err
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Notify(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}
