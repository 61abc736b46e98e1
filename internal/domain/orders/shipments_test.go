package orders

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conectados420/storefront/internal/email"
)

func queuedOrder(id, option string) Order {
	return Order{
		ID:             id,
		Status:         StatusPaid,
		ShippingOption: option,
		CustomerName:   "Ana Pérez",
		CustomerEmail:  "ana@example.cl",
		CustomerPhone:  "+56 9 1234-5678",
		TotalAmount:    25990,
		ShippingAddress: ShippingAddress{
			StreetAddress: "Av. Providencia ",
			StreetNumber:  "1234",
			Apartment:     "Depto 5",
			Comuna:        "Providencia",
			Region:        "Región Metropolitana de Santiago",
		},
	}
}

func TestWriteCarrierCSV(t *testing.T) {
	noName := queuedOrder("bbbbbbbb-2", "express")
	noName.CustomerName = ""
	noName.CustomerPhone = ""
	noName.ShippingAddress.RecipientName = "Bruno"
	noName.ShippingAddress.Phone = "(9) 8765 4321"

	var buf bytes.Buffer
	require.NoError(t, WriteCarrierCSV(&buf, []Order{queuedOrder("aaaaaaaa-1", "standard"), noName}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, exportHeader, rows[0])
	require.Equal(t, []string{
		"AAAAAAAA", "Ana Pérez", "Av. Providencia 1234", "Depto 5", "Providencia",
		"Región Metropolitana de Santiago", "56912345678", "ana@example.cl",
		"Productos Conectados420", "1", "25990", "STANDARD",
	}, rows[1])
	require.Equal(t, "Bruno", rows[2][1])
	require.Equal(t, "987654321", rows[2][6])
	require.Equal(t, "EXPRESS", rows[2][11])
}

type stubArchiver struct {
	name string
	body []byte
	err  error
}

func (a *stubArchiver) Archive(_ context.Context, name string, body []byte) (string, error) {
	a.name, a.body = name, body
	if a.err != nil {
		return "", a.err
	}
	return "exports/" + name, nil
}

func TestExportShipments(t *testing.T) {
	f := newFixture(t)
	f.store.orders.put(queuedOrder("aaaaaaaa-1", "standard"))
	f.store.orders.put(queuedOrder("bbbbbbbb-2", "express"))
	pickup := queuedOrder("cccccccc-3", "pickup")
	f.store.orders.put(pickup)
	pending := queuedOrder("dddddddd-4", "standard")
	pending.Status = StatusPending
	f.store.orders.put(pending)

	archiver := &stubArchiver{}
	export, err := f.svc.ExportShipments(context.Background(), nil, archiver)
	require.NoError(t, err)
	require.Equal(t, "blueexpress_2026-03-05.csv", export.Filename)
	require.Equal(t, 2, export.Orders)
	require.Equal(t, "exports/blueexpress_2026-03-05.csv", export.ArchiveKey)
	require.Equal(t, export.Body, archiver.body)

	export, err = f.svc.ExportShipments(context.Background(), []string{"bbbbbbbb-2"}, &stubArchiver{err: errors.New("s3 down")})
	require.NoError(t, err, "archive failures do not fail the export")
	require.Equal(t, 1, export.Orders)
	require.Empty(t, export.ArchiveKey)

	_, err = f.svc.ExportShipments(context.Background(), []string{"cccccccc-3"}, nil)
	require.ErrorIs(t, err, ErrNothingToShip)
}

func TestImportTracking(t *testing.T) {
	f := newFixture(t)
	f.store.orders.put(queuedOrder("aaaaaaaa-1", "standard"))
	f.store.orders.put(queuedOrder("bbbbbbbb-2", "express"))
	notQueued := queuedOrder("eeeeeeee-5", "standard")
	notQueued.Status = StatusPending
	f.store.orders.put(notQueued)

	file := "\uFEFFReferencia,Destinatario,N_SEGUIMIENTO\n" +
		"aaaaaaaa,Ana,BX1001\n" +
		"BBBBBBBB,Ana,\n" +
		"EEEEEEEE,Ana,BX1005\n" +
		"ZZZZZZZZ,Nadie,BX9999\n"

	result, err := f.svc.ImportTracking(context.Background(), strings.NewReader(file))
	require.NoError(t, err)
	require.Equal(t, ImportResult{Updated: 1, Errors: 0, Total: 4}, result)

	o, err := f.svc.Get(context.Background(), "aaaaaaaa-1")
	require.NoError(t, err)
	require.Equal(t, StatusShipped, o.Status)
	require.Equal(t, "BX1001", o.TrackingNumber)
	require.Equal(t, []string{email.TemplateOrderShipped}, f.notifier.templates())

	o, err = f.svc.Get(context.Background(), "eeeeeeee-5")
	require.NoError(t, err)
	require.Empty(t, o.TrackingNumber)
}

func TestImportTracking_CountsFailedUpdates(t *testing.T) {
	f := newFixture(t)
	f.store.orders.put(queuedOrder("aaaaaaaa-1", "standard"))
	f.store.orders.fail = errors.New("db down")

	result, err := f.svc.ImportTracking(context.Background(), strings.NewReader("REF,TRACKING\nAAAAAAAA,BX1\n"))
	require.NoError(t, err)
	require.Equal(t, ImportResult{Updated: 0, Errors: 1, Total: 1}, result)
}

func TestImportTracking_BadFiles(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ImportTracking(context.Background(), strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyFile)

	_, err = f.svc.ImportTracking(context.Background(), strings.NewReader("ORDER,CODE\nA,B\n"))
	require.ErrorIs(t, err, ErrMissingColumns)
}
