package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/conectados420/storefront/internal/api/middleware"
	"github.com/conectados420/storefront/internal/domain/payments"
)

type PaymentService interface {
	ProcessPayment(ctx context.Context, in payments.ChargeInput) (*payments.ChargeResult, error)
	HandleNotification(ctx context.Context, n payments.Notification) (payments.NotificationResult, error)
}

// PaymentsHandler serves the card payment and processor webhook routes.
// Their response bodies are read by the checkout page and by Mercado Pago,
// so errors use the flat {error} shape instead of problem documents.
type PaymentsHandler struct {
	service PaymentService
	env     string
}

func NewPaymentsHandler(service PaymentService, env string) *PaymentsHandler {
	return &PaymentsHandler{service: service, env: env}
}

type processPaymentRequest struct {
	OrderID         string          `json:"order_id"`
	Token           string          `json:"token"`
	PaymentMethodID string          `json:"payment_method_id"`
	IssuerID        json.RawMessage `json:"issuer_id"`
	Installments    json.RawMessage `json:"installments"`
}

// rawScalar accepts a JSON string or number and returns its text.
func rawScalar(raw json.RawMessage) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return text
}

type paymentErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *PaymentsHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req processPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.paymentError(w, r, http.StatusBadRequest, payments.ErrMissingFields, err)
		return
	}

	result, err := h.service.ProcessPayment(r.Context(), payments.ChargeInput{
		OrderID:         req.OrderID,
		Token:           strings.TrimSpace(req.Token),
		PaymentMethodID: strings.TrimSpace(req.PaymentMethodID),
		IssuerID:        rawScalar(req.IssuerID),
		Installments:    rawScalar(req.Installments),
		IdempotencyKey:  middleware.IdempotencyKey(r),
	})
	switch {
	case errors.Is(err, payments.ErrMissingFields):
		h.paymentError(w, r, http.StatusBadRequest, err, err)
		return
	case errors.Is(err, payments.ErrOrderNotProcessable):
		h.paymentError(w, r, http.StatusNotFound, err, err)
		return
	case errors.Is(err, payments.ErrNotConfigured):
		h.paymentError(w, r, http.StatusInternalServerError, err, err)
		return
	case err != nil:
		h.paymentError(w, r, http.StatusBadRequest, err, err)
		return
	}

	writeJSON(w, http.StatusOK, result, "")
}

// paymentError writes public as the client-facing message and logs cause.
func (h *PaymentsHandler) paymentError(w http.ResponseWriter, r *http.Request, status int, public, cause error) {
	zerolog.Ctx(r.Context()).Warn().Err(cause).Int("status", status).Msg("payment failed")
	writeJSON(w, status, paymentErrorResponse{Success: false, Error: public.Error()}, "")
}

type webhookAck struct {
	Received  bool `json:"received"`
	Duplicate bool `json:"duplicate,omitempty"`
}

type webhookError struct {
	Error string `json:"error"`
}

// Webhook reconciles an order from a Mercado Pago notification. The JSON
// body is preferred; the query form (?type=payment&data.id=N or
// ?topic=payment&id=N) fills whatever the body leaves out.
func (h *PaymentsHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		status := http.StatusBadRequest
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, webhookError{Error: err.Error()}, "")
		return
	}

	var n payments.Notification
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &n); err != nil {
			logger.Warn().Err(err).Msg("malformed webhook body")
			writeJSON(w, http.StatusBadRequest, webhookError{Error: "invalid JSON"}, "")
			return
		}
	}
	fillFromQuery(&n, r)

	result, err := h.service.HandleNotification(r.Context(), n)
	if err != nil {
		logger.Error().Err(err).Str("type", n.Type).Str("payment_id", n.PaymentID()).Msg("webhook processing failed")
		writeJSON(w, http.StatusInternalServerError, webhookError{Error: err.Error()}, "")
		return
	}

	if result.Handled {
		logger.Info().
			Str("order_id", result.OrderID).
			Str("payment_status", result.Status).
			Bool("duplicate", result.Duplicate).
			Msg("webhook processed")
	}
	writeJSON(w, http.StatusOK, webhookAck{Received: true, Duplicate: result.Duplicate}, "")
}

func fillFromQuery(n *payments.Notification, r *http.Request) {
	q := r.URL.Query()
	if n.Type == "" {
		n.Type = q.Get("type")
		if n.Type == "" {
			n.Type = q.Get("topic")
		}
	}
	if n.PaymentID() != "" {
		return
	}
	id := q.Get("data.id")
	if id == "" {
		id = q.Get("id")
	}
	if id != "" {
		n.Data.ID = json.RawMessage(strconv.Quote(id))
	}
}
