package email

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// Template names understood by the renderer.
const (
	TemplateOrderConfirmed  = "order_confirmed"
	TemplateOrderShipped    = "order_shipped"
	TemplateOrderDelivered  = "order_delivered"
	TemplatePaymentRejected = "payment_rejected"
)

var (
	ErrMissingFields   = errors.New("Missing required fields: to, template, data")
	ErrUnknownTemplate = errors.New("unknown template")
)

// Message is a transactional email request. Data keys follow the storefront
// client: customerName, orderId, orderIdFull, trackingNumber, orderTotal.
type Message struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
}

// Data builds the template payload shared by order notifications.
type Data struct {
	CustomerName   string
	OrderRef       string
	OrderID        string
	TrackingNumber string
	OrderTotal     int64
}

func (d Data) Map() map[string]any {
	name := strings.TrimSpace(d.CustomerName)
	if name == "" {
		name = "Cliente"
	}
	out := map[string]any{
		"customerName": name,
		"orderId":      d.OrderRef,
		"orderIdFull":  d.OrderID,
		"orderTotal":   d.OrderTotal,
	}
	if d.TrackingNumber != "" {
		out["trackingNumber"] = d.TrackingNumber
	}
	return out
}

// Validate checks the message shape before rendering.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" || m.Template == "" || m.Data == nil {
		return ErrMissingFields
	}
	if _, ok := subjects[m.Template]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, m.Template)
	}
	return validateEmailAddress(m.To)
}

var subjects = map[string]string{
	TemplateOrderConfirmed:  "Pago confirmado - Pedido #%s",
	TemplateOrderShipped:    "Tu pedido #%s está en camino",
	TemplateOrderDelivered:  "Tu pedido #%s fue entregado",
	TemplatePaymentRejected: "Pago no procesado - Pedido #%s",
}

// DefaultSubject returns the subject line used when a caller leaves it blank.
func DefaultSubject(template, ref string) string {
	format, ok := subjects[template]
	if !ok {
		return ""
	}
	return fmt.Sprintf(format, ref)
}

// validateEmailAddress validates an email address for format and header injection attempts
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}
