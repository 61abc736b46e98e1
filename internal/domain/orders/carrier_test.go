package orders

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conectados420/storefront/internal/carrier/bluexpress"
	"github.com/conectados420/storefront/internal/email"
)

type stubCarrier struct {
	requests  []bluexpress.ShipmentRequest
	cancelled []string
	err       error
}

func (c *stubCarrier) CreateShipment(_ context.Context, req bluexpress.ShipmentRequest) (*bluexpress.Shipment, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.requests = append(c.requests, req)
	return &bluexpress.Shipment{ShipmentID: "shp-1", TrackingNumber: "BX123"}, nil
}

func (c *stubCarrier) TrackShipment(_ context.Context, tracking string) (*bluexpress.Tracking, error) {
	return &bluexpress.Tracking{TrackingNumber: tracking, Status: "IN_TRANSIT"}, c.err
}

func (c *stubCarrier) CancelShipment(_ context.Context, id string) error {
	c.cancelled = append(c.cancelled, id)
	return c.err
}

func (c *stubCarrier) GenerateLabel(context.Context, string) ([]byte, error) {
	return []byte("%PDF-1.4"), c.err
}

var testOrigin = bluexpress.Party{Name: "Conectados 420", Address: "Bodega 1", City: "Santiago"}

func readyOrder() Order {
	return Order{
		ID:             "abcdef12-0000",
		Status:         StatusPaid,
		CustomerName:   "Ana",
		CustomerEmail:  "ana@example.cl",
		CustomerPhone:  "+56911111111",
		ShippingOption: "express",
		ShippingAddress: ShippingAddress{
			StreetAddress: "Av. Providencia",
			StreetNumber:  "1234",
			Apartment:     "56",
			Comuna:        "Providencia",
			Region:        "Metropolitana",
		},
		Items: []Item{
			{Quantity: 2, Snapshot: Snapshot{Name: "Sustrato 50L"}},
			{Quantity: 1, Snapshot: Snapshot{Name: "Tijera"}},
		},
	}
}

func TestShipmentRequestFor(t *testing.T) {
	req := ShipmentRequestFor(readyOrder(), testOrigin)

	require.Equal(t, "ABCDEF12", req.Reference)
	require.Equal(t, testOrigin, req.Origin)
	require.Equal(t, "Ana", req.Destination.Name)
	require.Equal(t, "Av. Providencia 1234", req.Destination.Address)
	require.Equal(t, "56", req.Destination.Apartment)
	require.Equal(t, "Providencia", req.Destination.City)
	require.Equal(t, "+56911111111", req.Destination.Phone)
	require.InDelta(t, 3.0, req.Package.WeightKg, 0.0001)
	require.Equal(t, "Sustrato 50L, Tijera", req.Package.Description)
	require.Equal(t, bluexpress.ServiceExpress, req.Service)

	empty := ShipmentRequestFor(Order{ID: "x"}, testOrigin)
	require.InDelta(t, 1.0, empty.Package.WeightKg, 0.0001)
	require.Equal(t, bluexpress.ServiceStandard, empty.Service)
}

func TestShipmentsBook(t *testing.T) {
	f := newFixture(t)
	f.store.orders.put(readyOrder())
	carrier := &stubCarrier{}
	shipments := NewShipments(f.svc, carrier, testOrigin)

	booked, err := shipments.Book(context.Background(), "abcdef12-0000")
	require.NoError(t, err)
	require.Equal(t, "BX123", booked.Order.TrackingNumber)
	require.Equal(t, StatusShipped, booked.Order.Status)
	require.Equal(t, "shp-1", booked.Shipment.ShipmentID)
	require.Len(t, carrier.requests, 1)
	require.Equal(t, []string{email.TemplateOrderShipped}, f.notifier.templates())

	_, err = shipments.Book(context.Background(), "abcdef12-0000")
	require.ErrorIs(t, err, ErrAlreadyShipped)
	require.Len(t, carrier.requests, 1)
}

func TestShipmentsBookRejects(t *testing.T) {
	f := newFixture(t)
	pending := readyOrder()
	pending.Status = StatusPending
	f.store.orders.put(pending)
	carrier := &stubCarrier{}
	shipments := NewShipments(f.svc, carrier, testOrigin)

	_, err := shipments.Book(context.Background(), "abcdef12-0000")
	var verr ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "status", verr.Field)

	_, err = shipments.Book(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)

	ready := readyOrder()
	f.store.orders.put(ready)
	carrier.err = bluexpress.ErrNotConfigured
	_, err = shipments.Book(context.Background(), ready.ID)
	require.ErrorIs(t, err, bluexpress.ErrNotConfigured)
	order, err := f.svc.Get(context.Background(), ready.ID)
	require.NoError(t, err)
	require.Empty(t, order.TrackingNumber, "a failed booking leaves the order untouched")
	require.Empty(t, carrier.requests)
	require.Empty(t, f.notifier.templates())
}

func TestShipmentsPassThrough(t *testing.T) {
	carrier := &stubCarrier{}
	shipments := NewShipments(nil, carrier, testOrigin)

	tracking, err := shipments.Track(context.Background(), "BX9")
	require.NoError(t, err)
	require.Equal(t, "BX9", tracking.TrackingNumber)

	require.NoError(t, shipments.Cancel(context.Background(), "shp-1"))
	require.Equal(t, []string{"shp-1"}, carrier.cancelled)

	label, err := shipments.Label(context.Background(), "shp-1")
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(label))
}
