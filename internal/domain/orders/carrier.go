package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/conectados420/storefront/internal/carrier/bluexpress"
	"github.com/conectados420/storefront/internal/domain/shipping"
)

// ErrAlreadyShipped is returned when booking a shipment for an order that
// already carries a tracking number.
var ErrAlreadyShipped = errors.New("order already has a tracking number")

// ShipmentCarrier is satisfied by *bluexpress.Client.
type ShipmentCarrier interface {
	CreateShipment(ctx context.Context, req bluexpress.ShipmentRequest) (*bluexpress.Shipment, error)
	TrackShipment(ctx context.Context, trackingNumber string) (*bluexpress.Tracking, error)
	CancelShipment(ctx context.Context, shipmentID string) error
	GenerateLabel(ctx context.Context, shipmentID string) ([]byte, error)
}

// Shipments books paid orders with the carrier and records the returned
// tracking number on the order.
type Shipments struct {
	orders  *Service
	carrier ShipmentCarrier
	origin  bluexpress.Party
}

func NewShipments(orders *Service, carrier ShipmentCarrier, origin bluexpress.Party) *Shipments {
	return &Shipments{orders: orders, carrier: carrier, origin: origin}
}

type BookedShipment struct {
	Order    *Order               `json:"order"`
	Shipment *bluexpress.Shipment `json:"shipment"`
}

// Book creates the carrier shipment for an order awaiting dispatch, then
// marks the order shipped, which sends the shipped email.
func (s *Shipments) Book(ctx context.Context, id string) (*BookedShipment, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.TrackingNumber != "" {
		return nil, ErrAlreadyShipped
	}
	switch order.Status {
	case StatusPaid, StatusConfirmed, StatusPreparing:
	default:
		return nil, ValidationError{Field: "status", Message: "order is not ready to ship"}
	}

	shipment, err := s.carrier.CreateShipment(ctx, ShipmentRequestFor(*order, s.origin))
	if err != nil {
		return nil, err
	}
	updated, err := s.orders.SetTracking(ctx, order.ID, shipment.TrackingNumber)
	if err != nil {
		return nil, err
	}
	return &BookedShipment{Order: updated, Shipment: shipment}, nil
}

func (s *Shipments) Track(ctx context.Context, trackingNumber string) (*bluexpress.Tracking, error) {
	return s.carrier.TrackShipment(ctx, trackingNumber)
}

func (s *Shipments) Cancel(ctx context.Context, shipmentID string) error {
	return s.carrier.CancelShipment(ctx, shipmentID)
}

func (s *Shipments) Label(ctx context.Context, shipmentID string) ([]byte, error) {
	return s.carrier.GenerateLabel(ctx, shipmentID)
}

// ShipmentRequestFor maps an order onto the carrier payload. Item weights
// are not stored on orders, so each unit counts as one kilo.
func ShipmentRequestFor(o Order, origin bluexpress.Party) bluexpress.ShipmentRequest {
	units := 0
	names := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		units += it.Quantity
		if it.Snapshot.Name != "" {
			names = append(names, it.Snapshot.Name)
		}
	}
	if units == 0 {
		units = 1
	}

	recipient := o.ShippingAddress.RecipientName
	if recipient == "" {
		recipient = o.CustomerName
	}
	phone := o.ShippingAddress.Phone
	if phone == "" {
		phone = o.CustomerPhone
	}

	service := bluexpress.ServiceStandard
	if o.ShippingOption == shipping.OptionExpress {
		service = bluexpress.ServiceExpress
	}

	return bluexpress.ShipmentRequest{
		Reference: o.Reference(),
		Origin:    origin,
		Destination: bluexpress.Party{
			Name:      recipient,
			Address:   o.ShippingAddress.Line(),
			Apartment: o.ShippingAddress.Apartment,
			City:      o.ShippingAddress.Comuna,
			Region:    o.ShippingAddress.Region,
			Phone:     phone,
			Reference: o.ShippingAddress.Reference,
		},
		Package: bluexpress.Package{
			WeightKg:    float64(units),
			Description: strings.Join(names, ", "),
		},
		Service: service,
	}
}
