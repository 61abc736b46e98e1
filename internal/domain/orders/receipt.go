package orders

import (
	"context"
	"math"
	"time"

	"github.com/conectados420/storefront/internal/money"
)

// vatRate is the Chilean IVA included in catalog prices.
const vatRate = 0.19

type ReceiptLine struct {
	Name      string `json:"name"`
	Brand     string `json:"brand,omitempty"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Total     int64  `json:"total"`
}

// Receipt is the printable voucher for an order. Amounts are pesos with IVA
// included; Net and VAT split the item subtotal.
type Receipt struct {
	OrderID        string          `json:"order_id"`
	Reference      string          `json:"reference"`
	Date           time.Time       `json:"date"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"payment_status"`
	CustomerName   string          `json:"customer_name,omitempty"`
	CustomerEmail  string          `json:"customer_email,omitempty"`
	CustomerRUT    string          `json:"customer_rut,omitempty"`
	Address        ShippingAddress `json:"shipping_address"`
	ShippingMethod string          `json:"shipping_method"`
	Lines          []ReceiptLine   `json:"lines"`
	Subtotal       int64           `json:"subtotal"`
	Net            int64           `json:"net"`
	VAT            int64           `json:"vat"`
	Discount       int64           `json:"discount"`
	Shipping       int64           `json:"shipping"`
	Total          int64           `json:"total"`
	// Display carries the same amounts formatted as $1.234.
	Display map[string]string `json:"display"`
}

// ShippingMethodLabel names the delivery option for customers.
func ShippingMethodLabel(option string) string {
	switch option {
	case "express":
		return "Express"
	case "pickup":
		return "Retiro en tienda"
	default:
		return "Estandar"
	}
}

// BuildReceipt computes the voucher for o. Without items the subtotal falls
// back to the stored total.
func BuildReceipt(o Order) Receipt {
	r := Receipt{
		OrderID:        o.ID,
		Reference:      o.Reference(),
		Date:           o.CreatedAt,
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		CustomerName:   o.CustomerName,
		CustomerEmail:  o.CustomerEmail,
		CustomerRUT:    o.CustomerRUT,
		Address:        o.ShippingAddress,
		ShippingMethod: ShippingMethodLabel(o.ShippingOption),
		Discount:       o.DiscountAmount,
		Shipping:       o.ShippingCost,
		Total:          o.GrandTotal(),
		Lines:          make([]ReceiptLine, 0, len(o.Items)),
	}

	for _, it := range o.Items {
		line := ReceiptLine{
			Name:      it.Snapshot.Name,
			Brand:     it.Snapshot.Brand,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Total:     it.UnitPrice * int64(it.Quantity),
		}
		if line.Name == "" {
			line.Name = "Producto"
		}
		r.Lines = append(r.Lines, line)
		r.Subtotal += line.Total
	}
	if len(o.Items) == 0 {
		r.Subtotal = o.TotalAmount
	}

	r.Net = int64(math.Round(float64(r.Subtotal) / (1 + vatRate)))
	r.VAT = r.Subtotal - r.Net
	r.Display = map[string]string{
		"subtotal": money.CLP(r.Subtotal),
		"net":      money.CLP(r.Net),
		"vat":      money.CLP(r.VAT),
		"discount": money.CLP(r.Discount),
		"shipping": money.CLP(r.Shipping),
		"total":    money.CLP(r.Total),
	}
	return r
}

// Public strips customer contact data and the street address, keeping the
// comuna and region. It is what the unauthenticated receipt route serves.
func (r Receipt) Public() Receipt {
	r.CustomerName = ""
	r.CustomerEmail = ""
	r.CustomerRUT = ""
	r.Address = ShippingAddress{Comuna: r.Address.Comuna, Region: r.Address.Region}
	return r
}

// Receipt loads the order and builds its voucher.
func (s *Service) Receipt(ctx context.Context, id string) (*Receipt, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r := BuildReceipt(*o)
	return &r, nil
}
