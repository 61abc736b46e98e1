package orders

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Carrier export columns in the order the carrier's bulk upload expects.
var exportHeader = []string{
	"REFERENCIA", "NOMBRE", "DIRECCION", "DEPTO", "COMUNA", "REGION",
	"TELEFONO", "EMAIL", "CONTENIDO", "PESO_KG", "VALOR", "SERVICIO",
}

const (
	exportContents = "Productos Conectados420"
	exportWeightKg = "1"
)

var (
	referenceColumns = []string{"REFERENCIA", "REF"}
	trackingColumns  = []string{"TRACKING", "N_SEGUIMIENTO", "NUMEROSEGUIMIENTO"}

	ErrEmptyFile      = errors.New("empty file")
	ErrMissingColumns = errors.New("file must contain REFERENCIA and TRACKING columns")
	ErrNothingToShip  = errors.New("no orders to export")
)

// Archiver stores a copy of an export. Nil disables archiving.
type Archiver interface {
	Archive(ctx context.Context, name string, body []byte) (string, error)
}

type ImportResult struct {
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
	Total   int `json:"total"`
}

// Export is a rendered carrier CSV.
type Export struct {
	Filename   string `json:"filename"`
	Orders     int    `json:"orders"`
	ArchiveKey string `json:"archive_key,omitempty"`
	Body       []byte `json:"-"`
}

// ExportFilename names an export made at t.
func ExportFilename(t time.Time) string {
	return "blueexpress_" + t.UTC().Format("2006-01-02") + ".csv"
}

// WriteCarrierCSV writes one row per order in the carrier's upload format.
func WriteCarrierCSV(w io.Writer, orders []Order) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range orders {
		if err := cw.Write(exportRow(o)); err != nil {
			return fmt.Errorf("write order %s: %w", o.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(o Order) []string {
	name := o.CustomerName
	if name == "" {
		name = o.ShippingAddress.RecipientName
	}
	phone := o.CustomerPhone
	if phone == "" {
		phone = o.ShippingAddress.Phone
	}
	service := "STANDARD"
	if o.ShippingOption == "express" {
		service = "EXPRESS"
	}
	return []string{
		o.Reference(),
		name,
		o.ShippingAddress.Line(),
		o.ShippingAddress.Apartment,
		o.ShippingAddress.Comuna,
		o.ShippingAddress.Region,
		digitsOnly(phone),
		o.CustomerEmail,
		exportContents,
		exportWeightKg,
		strconv.FormatInt(o.TotalAmount, 10),
		service,
	}
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// ExportShipments renders the shipping queue, or the subset named by ids, as
// a carrier CSV and archives a copy when an archiver is configured.
func (s *Service) ExportShipments(ctx context.Context, ids []string, archiver Archiver) (*Export, error) {
	queue, err := s.ShippingQueue(ctx)
	if err != nil {
		return nil, err
	}
	selected := queue
	if len(ids) > 0 {
		want := make(map[string]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		selected = selected[:0:0]
		for _, o := range queue {
			if want[o.ID] {
				selected = append(selected, o)
			}
		}
	}
	if len(selected) == 0 {
		return nil, ErrNothingToShip
	}

	var buf bytes.Buffer
	if err := WriteCarrierCSV(&buf, selected); err != nil {
		return nil, err
	}
	export := &Export{
		Filename: ExportFilename(s.now()),
		Orders:   len(selected),
		Body:     buf.Bytes(),
	}

	if archiver != nil {
		key, err := archiver.Archive(ctx, export.Filename, export.Body)
		if err != nil {
			s.logger.Error().Err(err).Str("filename", export.Filename).Msg("shipment export archive failed")
		} else {
			export.ArchiveKey = key
		}
	}
	s.logger.Info().Int("orders", export.Orders).Str("filename", export.Filename).Msg("shipments exported")
	return export, nil
}

// ImportTracking reads a carrier response file and stores each tracking
// number on the queued order whose reference matches. Rows without a match
// are skipped; failed updates are counted as errors.
func (s *Service) ImportTracking(ctx context.Context, r io.Reader) (ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ImportResult{}, ErrEmptyFile
		}
		return ImportResult{}, fmt.Errorf("read csv: %w", err)
	}
	refCol := findColumn(header, referenceColumns)
	trackCol := findColumn(header, trackingColumns)
	if refCol < 0 || trackCol < 0 {
		return ImportResult{}, ErrMissingColumns
	}

	queue, err := s.ShippingQueue(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	byRef := make(map[string]Order, len(queue))
	for _, o := range queue {
		byRef[o.Reference()] = o
	}

	var result ImportResult
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("read csv row %d: %w", result.Total+2, err)
		}
		result.Total++
		if refCol >= len(row) || trackCol >= len(row) {
			continue
		}
		ref := strings.ToUpper(strings.TrimSpace(row[refCol]))
		tracking := strings.TrimSpace(row[trackCol])
		if ref == "" || tracking == "" {
			continue
		}
		order, ok := byRef[ref]
		if !ok {
			continue
		}
		if _, err := s.SetTracking(ctx, order.ID, tracking); err != nil {
			s.logger.Error().Err(err).Str("order_id", order.ID).Msg("tracking import failed")
			result.Errors++
			continue
		}
		result.Updated++
	}

	s.logger.Info().
		Int("updated", result.Updated).
		Int("errors", result.Errors).
		Int("total", result.Total).
		Msg("tracking imported")
	return result, nil
}

func findColumn(header []string, names []string) int {
	for i, h := range header {
		h = strings.TrimFunc(h, func(r rune) bool { return unicode.IsSpace(r) || r == '\uFEFF' })
		for _, name := range names {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}
