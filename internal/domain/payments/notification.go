package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/conectados420/storefront/internal/domain/orders"
	"github.com/conectados420/storefront/internal/mercadopago"
)

// Notification is the webhook body Mercado Pago posts.
type Notification struct {
	Type string `json:"type"`
	Data struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// PaymentID returns data.id, which arrives as a string or a number.
func (n Notification) PaymentID() string {
	raw := strings.TrimSpace(string(n.Data.ID))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(n.Data.ID, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return raw
}

type NotificationResult struct {
	Handled   bool
	Duplicate bool
	OrderID   string
	Status    string
}

type payerDetails struct {
	Email          string                      `json:"email,omitempty"`
	Identification *mercadopago.Identification `json:"identification,omitempty"`
}

type paymentDetails struct {
	Status            string       `json:"status"`
	StatusDetail      string       `json:"status_detail"`
	PaymentType       string       `json:"payment_type"`
	PaymentMethod     string       `json:"payment_method"`
	TransactionAmount float64      `json:"transaction_amount"`
	DateApproved      *string      `json:"date_approved"`
	Payer             payerDetails `json:"payer"`
}

// HandleNotification reconciles the order referenced by a payment
// notification. Deliveries repeating a (payment id, status) pair already
// handled are acknowledged without changes.
func (s *Service) HandleNotification(ctx context.Context, n Notification) (NotificationResult, error) {
	if n.Type != "payment" {
		s.observe("webhook", "ignored")
		return NotificationResult{}, nil
	}
	id := n.PaymentID()
	if id == "" {
		return NotificationResult{}, ErrMissingPaymentID
	}
	if s.processor == nil || !s.processor.Configured() {
		return NotificationResult{}, ErrNotConfigured
	}

	payment, err := s.processor.GetPayment(ctx, id)
	if err != nil {
		s.observe("webhook", "error")
		return NotificationResult{}, err
	}
	orderID := strings.TrimSpace(payment.ExternalReference)
	if orderID == "" {
		return NotificationResult{}, ErrMissingReference
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return NotificationResult{}, fmt.Errorf("%w: %q is not an order id", ErrMissingReference, orderID)
	}

	key := id + ":" + payment.Status
	if s.dedup != nil {
		first, err := s.dedup.Claim(ctx, key)
		if err != nil {
			s.logger.Warn().Err(err).Str("payment_id", id).Msg("notification dedup unavailable")
		} else if !first {
			s.observe("webhook", "duplicate")
			s.logger.Info().Str("payment_id", id).Str("status", payment.Status).Msg("duplicate notification ignored")
			return NotificationResult{Duplicate: true, OrderID: orderID, Status: payment.Status}, nil
		}
	}

	result, err := s.reconcile(ctx, orderID, payment)
	if err != nil {
		if s.dedup != nil {
			if rerr := s.dedup.Release(ctx, key); rerr != nil {
				s.logger.Warn().Err(rerr).Str("payment_id", id).Msg("notification dedup release failed")
			}
		}
		s.observe("webhook", "error")
		return NotificationResult{}, err
	}
	s.observe("webhook", payment.Status)
	return result, nil
}

func (s *Service) reconcile(ctx context.Context, orderID string, payment *mercadopago.Payment) (NotificationResult, error) {
	paymentID := strconv.FormatInt(payment.ID, 10)
	details, err := json.Marshal(paymentDetails{
		Status:            payment.Status,
		StatusDetail:      payment.StatusDetail,
		PaymentType:       payment.PaymentTypeID,
		PaymentMethod:     payment.PaymentMethodID,
		TransactionAmount: payment.TransactionAmount,
		DateApproved:      payment.DateApproved,
		Payer: payerDetails{
			Email:          payment.Payer.Email,
			Identification: payment.Payer.Identification,
		},
	})
	if err != nil {
		return NotificationResult{}, fmt.Errorf("encode payment details: %w", err)
	}

	update := orders.PaymentUpdate{
		PaymentID:      paymentID,
		MPPaymentID:    paymentID,
		PaymentStatus:  payment.Status,
		PaymentMethod:  payment.PaymentMethodID,
		PaymentDetails: details,
	}
	if status, ok := OrderStatusFor(payment.Status); ok {
		update.Status = status
	}
	if err := s.orders.UpdatePayment(ctx, orderID, update); err != nil {
		return NotificationResult{}, fmt.Errorf("update order %s: %w", orderID, err)
	}

	s.insertLog(ctx, orders.PaymentLog{
		OrderID:   orderID,
		EventType: EventNotification,
		PaymentID: paymentID,
		Status:    payment.Status,
		RawData:   payment.Raw,
	})

	if tpl, ok := templateFor(payment.Status); ok {
		order, err := s.orders.Get(ctx, orderID)
		if err != nil {
			s.logger.Error().Err(err).Str("order_id", orderID).Msg("load order for payment email failed")
		} else {
			s.send(ctx, orderID, orders.NotificationMessage(*order, tpl))
		}
	}

	s.logger.Info().
		Str("order_id", orderID).
		Str("payment_id", paymentID).
		Str("status", payment.Status).
		Msg("payment notification processed")
	return NotificationResult{Handled: true, OrderID: orderID, Status: payment.Status}, nil
}
