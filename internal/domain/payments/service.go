// Package payments charges checkout orders through Mercado Pago and
// reconciles orders with processor notifications.
package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/conectados420/storefront/internal/domain/orders"
	"github.com/conectados420/storefront/internal/email"
	"github.com/conectados420/storefront/internal/mercadopago"
)

// Payment log event types.
const (
	EventApproved     = "payment_approved"
	EventRejected     = "payment_rejected"
	EventPending      = "payment_pending"
	EventNotification = "payment_notification"
)

var (
	ErrMissingFields       = errors.New("Missing required fields")
	ErrOrderNotProcessable = errors.New("Order not found or already processed")
	ErrNotConfigured       = errors.New("Mercado Pago access token not configured")
	ErrMissingReference    = errors.New("No external reference found")
	ErrMissingPaymentID    = errors.New("notification has no payment id")
)

// Processor is the subset of the Mercado Pago client the service uses.
type Processor interface {
	Configured() bool
	GetPayment(ctx context.Context, id string) (*mercadopago.Payment, error)
	CreatePayment(ctx context.Context, req mercadopago.PaymentRequest, idempotencyKey string) (*mercadopago.Payment, error)
}

// Deduper remembers processed notifications.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Config struct {
	// NotificationURL is passed to the processor for webhook delivery.
	NotificationURL   string
	DefaultPayerEmail string
}

type Service struct {
	orders    orders.Repository
	processor Processor
	notifier  email.Notifier
	dedup     Deduper
	config    Config
	logger    zerolog.Logger
	observe   func(kind, status string)
	now       func() time.Time
}

func NewService(repo orders.Repository, processor Processor, notifier email.Notifier, dedup Deduper, cfg Config, logger zerolog.Logger) *Service {
	return &Service{
		orders:    repo,
		processor: processor,
		notifier:  notifier,
		dedup:     dedup,
		config:    cfg,
		logger:    logger.With().Str("component", "payments").Logger(),
		observe:   func(string, string) {},
		now:       time.Now,
	}
}

// WithObserver registers a callback for processed payments and
// notifications, used for metrics.
func (s *Service) WithObserver(fn func(kind, status string)) *Service {
	if fn != nil {
		s.observe = fn
	}
	return s
}

// OrderStatusFor maps a processor payment status to an order status. The
// second result is false when the order status should not change.
func OrderStatusFor(paymentStatus string) (string, bool) {
	switch paymentStatus {
	case mercadopago.StatusApproved:
		return orders.StatusPaid, true
	case mercadopago.StatusRejected, mercadopago.StatusCancelled:
		return orders.StatusCancelled, true
	default:
		return "", false
	}
}

func templateFor(paymentStatus string) (string, bool) {
	switch paymentStatus {
	case mercadopago.StatusApproved:
		return email.TemplateOrderConfirmed, true
	case mercadopago.StatusRejected, mercadopago.StatusCancelled:
		return email.TemplatePaymentRejected, true
	default:
		return "", false
	}
}

type ChargeInput struct {
	OrderID         string
	Token           string
	PaymentMethodID string
	IssuerID        string
	Installments    string
	// IdempotencyKey replaces the generated "<order>-<millis>" key when set.
	IdempotencyKey string
}

type ChargeResult struct {
	Success      bool   `json:"success"`
	Status       string `json:"status"`
	StatusDetail string `json:"status_detail"`
	PaymentID    int64  `json:"payment_id"`
}

func parseInstallments(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// ProcessPayment charges a tokenized card for a pending order and records
// the outcome on the order.
func (s *Service) ProcessPayment(ctx context.Context, in ChargeInput) (*ChargeResult, error) {
	in.OrderID = strings.TrimSpace(in.OrderID)
	if in.OrderID == "" || in.Token == "" || in.PaymentMethodID == "" {
		return nil, ErrMissingFields
	}

	order, err := s.pendingOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if s.processor == nil || !s.processor.Configured() {
		return nil, ErrNotConfigured
	}

	payer := strings.TrimSpace(order.CustomerEmail)
	if payer == "" {
		payer = s.config.DefaultPayerEmail
	}
	req := mercadopago.PaymentRequest{
		Token:             in.Token,
		TransactionAmount: order.GrandTotal(),
		Installments:      parseInstallments(in.Installments),
		PaymentMethodID:   in.PaymentMethodID,
		IssuerID:          in.IssuerID,
		Payer:             mercadopago.Payer{Email: payer},
		ExternalReference: order.ID,
		Description:       "Orden #" + order.Reference(),
		NotificationURL:   s.config.NotificationURL,
	}
	key := in.IdempotencyKey
	if key == "" {
		key = fmt.Sprintf("%s-%d", order.ID, s.now().UnixMilli())
	}

	payment, err := s.processor.CreatePayment(ctx, req, key)
	if err != nil {
		s.observe("charge", "error")
		return nil, err
	}

	status := orders.StatusPending
	if mapped, ok := OrderStatusFor(payment.Status); ok && payment.Status != mercadopago.StatusCancelled {
		status = mapped
	}
	paymentID := strconv.FormatInt(payment.ID, 10)
	update := orders.PaymentUpdate{
		Status:         status,
		PaymentID:      paymentID,
		MPPaymentID:    paymentID,
		PaymentStatus:  payment.Status,
		PaymentMethod:  payment.PaymentMethodID,
		PaymentDetails: payment.Raw,
	}
	if err := s.orders.UpdatePayment(ctx, order.ID, update); err != nil {
		return nil, fmt.Errorf("update order payment: %w", err)
	}

	event := EventPending
	switch payment.Status {
	case mercadopago.StatusApproved:
		event = EventApproved
	case mercadopago.StatusRejected:
		event = EventRejected
	}
	s.insertLog(ctx, orders.PaymentLog{
		OrderID:   order.ID,
		EventType: event,
		PaymentID: paymentID,
		Status:    payment.Status,
		RawData:   payment.Raw,
	})

	if payment.Status == mercadopago.StatusApproved || payment.Status == mercadopago.StatusRejected {
		tpl, _ := templateFor(payment.Status)
		msg := orders.NotificationMessage(*order, tpl)
		msg.Data["orderTotal"] = order.GrandTotal()
		s.send(ctx, order.ID, msg)
	}

	s.observe("charge", payment.Status)
	s.logger.Info().
		Str("order_id", order.ID).
		Str("payment_id", paymentID).
		Str("status", payment.Status).
		Msg("payment processed")

	return &ChargeResult{
		Success:      true,
		Status:       payment.Status,
		StatusDetail: payment.StatusDetail,
		PaymentID:    payment.ID,
	}, nil
}

func (s *Service) pendingOrder(ctx context.Context, id string) (*orders.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrderNotProcessable
	}
	order, err := s.orders.Get(ctx, id)
	if errors.Is(err, orders.ErrNotFound) {
		return nil, ErrOrderNotProcessable
	}
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if order.PaymentStatus != orders.PaymentPending {
		return nil, ErrOrderNotProcessable
	}
	return order, nil
}

func (s *Service) insertLog(ctx context.Context, log orders.PaymentLog) {
	log.CreatedAt = s.now()
	if err := s.orders.InsertPaymentLog(ctx, log); err != nil {
		s.logger.Error().Err(err).Str("order_id", log.OrderID).Str("event", log.EventType).Msg("payment log insert failed")
	}
}

func (s *Service) send(ctx context.Context, orderID string, msg email.Message) {
	if strings.TrimSpace(msg.To) == "" || s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Str("template", msg.Template).Msg("payment email failed")
	}
}

// PurgeLogs deletes payment logs older than retention.
func (s *Service) PurgeLogs(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive")
	}
	n, err := s.orders.DeletePaymentLogsBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("purge payment logs: %w", err)
	}
	return n, nil
}
