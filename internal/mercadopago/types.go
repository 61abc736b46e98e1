package mercadopago

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Payment statuses returned by the API.
const (
	StatusApproved   = "approved"
	StatusRejected   = "rejected"
	StatusCancelled  = "cancelled"
	StatusPending    = "pending"
	StatusInProcess  = "in_process"
	StatusRefunded   = "refunded"
	StatusChargeback = "charged_back"
)

var ErrNotConfigured = errors.New("Mercado Pago credentials not configured")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("mercadopago: http %d", e.Status)
	}
	return fmt.Sprintf("Mercado Pago error: %s", e.Message)
}

type Identification struct {
	Type   string `json:"type,omitempty"`
	Number string `json:"number,omitempty"`
}

type Payer struct {
	Email          string          `json:"email,omitempty"`
	Identification *Identification `json:"identification,omitempty"`
}

// Payment is the subset of the payment resource the store reads. Raw keeps
// the full response body for audit logs.
type Payment struct {
	ID                int64           `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	PaymentTypeID     string          `json:"payment_type_id"`
	PaymentMethodID   string          `json:"payment_method_id"`
	TransactionAmount float64         `json:"transaction_amount"`
	DateApproved      *string         `json:"date_approved"`
	ExternalReference string          `json:"external_reference"`
	Payer             Payer           `json:"payer"`
	Raw               json.RawMessage `json:"-"`
}

// PaymentRequest creates a card payment from a tokenized card.
type PaymentRequest struct {
	Token             string `json:"token"`
	TransactionAmount int64  `json:"transaction_amount"`
	Installments      int    `json:"installments"`
	PaymentMethodID   string `json:"payment_method_id"`
	IssuerID          string `json:"issuer_id,omitempty"`
	Payer             Payer  `json:"payer"`
	ExternalReference string `json:"external_reference"`
	Description       string `json:"description"`
	NotificationURL   string `json:"notification_url,omitempty"`
}
