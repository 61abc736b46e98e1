package bluexpress

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCodeNotConfigured is reported when credentials are missing or the
// integration is switched off.
const ErrorCodeNotConfigured = "API_NOT_CONFIGURED"

// Error is a failure reported by the carrier client.
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("bluexpress %s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("bluexpress %s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

var ErrNotConfigured = &Error{
	Code:    ErrorCodeNotConfigured,
	Message: "Blue Express API credentials not configured",
}

type Party struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	Region    string `json:"region,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Reference string `json:"reference,omitempty"`
}

type Package struct {
	WeightKg    float64 `json:"weight"`
	LengthCm    int     `json:"length"`
	WidthCm     int     `json:"width"`
	HeightCm    int     `json:"height"`
	Description string  `json:"description"`
}

// Service levels accepted by the carrier.
const (
	ServiceStandard = "STANDARD"
	ServiceExpress  = "EXPRESS"
)

type ShipmentRequest struct {
	Reference       string  `json:"reference"`
	ClientReference string  `json:"client_reference"`
	Account         string  `json:"account,omitempty"`
	Origin          Party   `json:"origin"`
	Destination     Party   `json:"destination"`
	Package         Package `json:"package"`
	Service         string  `json:"service"`
}

type Shipment struct {
	ShipmentID        string    `json:"shipment_id"`
	TrackingNumber    string    `json:"tracking_number"`
	LabelURL          string    `json:"label_url,omitempty"`
	ClientReference   string    `json:"client_reference"`
	EstimatedDelivery time.Time `json:"estimated_delivery,omitempty"`
}

type TrackingEvent struct {
	Date        time.Time `json:"date"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
}

type Tracking struct {
	TrackingNumber    string          `json:"tracking_number"`
	Status            string          `json:"status"`
	EstimatedDelivery time.Time       `json:"estimated_delivery,omitempty"`
	Events            []TrackingEvent `json:"events"`
}

type RateRequest struct {
	OriginComuna  string  `json:"origin_comuna,omitempty"`
	Comuna        string  `json:"comuna"`
	Region        string  `json:"region"`
	WeightKg      float64 `json:"weight"`
	DeclaredValue int64   `json:"declared_value,omitempty"`
	Service       string  `json:"service,omitempty"`
}

type Rate struct {
	Cost    int64  `json:"cost"`
	Days    int    `json:"estimated_days"`
	Service string `json:"service,omitempty"`
}
