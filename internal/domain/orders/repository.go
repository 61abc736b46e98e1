package orders

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/conectados420/storefront/internal/domain/coupons"
)

var ErrNotFound = errors.New("order not found")

// Order statuses.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusConfirmed = "confirmed"
	StatusPreparing = "preparing"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Payment statuses reported by the processor. Others pass through verbatim.
const (
	PaymentPending    = "pending"
	PaymentApproved   = "approved"
	PaymentRejected   = "rejected"
	PaymentCancelled  = "cancelled"
	PaymentInProcess  = "in_process"
	PaymentRefunded   = "refunded"
	PaymentChargeBack = "charged_back"
)

var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusPaid:      true,
	StatusConfirmed: true,
	StatusPreparing: true,
	StatusShipped:   true,
	StatusDelivered: true,
	StatusCancelled: true,
}

func ValidStatus(status string) bool {
	return validStatuses[status]
}

// ShippingAddress is stored as JSON on the order so later edits to a saved
// address do not rewrite history.
type ShippingAddress struct {
	RecipientName string `json:"recipient_name,omitempty"`
	StreetAddress string `json:"street_address,omitempty"`
	StreetNumber  string `json:"street_number,omitempty"`
	Apartment     string `json:"apartment,omitempty"`
	Comuna        string `json:"comuna"`
	Region        string `json:"region"`
	Phone         string `json:"phone,omitempty"`
	Reference     string `json:"reference,omitempty"`
}

// Line returns "street number" trimmed.
func (a ShippingAddress) Line() string {
	return strings.TrimSpace(strings.TrimSpace(a.StreetAddress) + " " + strings.TrimSpace(a.StreetNumber))
}

type Snapshot struct {
	Name     string `json:"name"`
	Brand    string `json:"brand,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type Item struct {
	ID        string   `json:"id"`
	OrderID   string   `json:"order_id"`
	ProductID string   `json:"product_id"`
	Quantity  int      `json:"quantity"`
	UnitPrice int64    `json:"unit_price"`
	Snapshot  Snapshot `json:"product_snapshot"`
}

// Order amounts are whole pesos. TotalAmount is the cart after discount and
// excludes shipping.
type Order struct {
	ID                   string          `json:"id"`
	Status               string          `json:"status"`
	PaymentStatus        string          `json:"payment_status"`
	PaymentID            string          `json:"payment_id,omitempty"`
	MPPaymentID          string          `json:"mp_payment_id,omitempty"`
	PaymentMethod        string          `json:"payment_method,omitempty"`
	PaymentDetails       json.RawMessage `json:"payment_details,omitempty"`
	TotalAmount          int64           `json:"total_amount"`
	ShippingCost         int64           `json:"shipping_cost"`
	ShippingOption       string          `json:"shipping_option"`
	ShippingDaysEstimate int             `json:"shipping_days_estimate,omitempty"`
	DiscountAmount       int64           `json:"discount_amount"`
	CouponID             string          `json:"coupon_id,omitempty"`
	CustomerName         string          `json:"customer_name"`
	CustomerEmail        string          `json:"customer_email"`
	CustomerPhone        string          `json:"customer_phone,omitempty"`
	CustomerRUT          string          `json:"customer_rut,omitempty"`
	ShippingAddress      ShippingAddress `json:"shipping_address"`
	ShippingAddressID    string          `json:"shipping_address_id,omitempty"`
	TrackingNumber       string          `json:"tracking_number,omitempty"`
	Notes                string          `json:"notes,omitempty"`
	IsArchived           bool            `json:"is_archived"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	Items                []Item          `json:"items,omitempty"`
}

// Reference is the short id shown to customers: the first 8 characters of
// the order id, uppercased.
func Reference(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

func (o Order) Reference() string {
	return Reference(o.ID)
}

// GrandTotal is what the customer pays.
func (o Order) GrandTotal() int64 {
	return o.TotalAmount + o.ShippingCost
}

type Filters struct {
	Status   string
	Archived bool
	Query    string
	Limit    int
	Offset   int
}

// PaymentUpdate carries processor results onto an order. Empty fields are
// left unchanged.
type PaymentUpdate struct {
	Status         string
	PaymentID      string
	MPPaymentID    string
	PaymentStatus  string
	PaymentMethod  string
	PaymentDetails json.RawMessage
}

type PaymentLog struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	EventType string          `json:"event_type"`
	PaymentID string          `json:"payment_id"`
	Status    string          `json:"status"`
	RawData   json.RawMessage `json:"raw_data,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type Sales struct {
	Total int64 `json:"total"`
	Count int   `json:"count"`
}

// PurgeResult counts rows removed by PurgeAll.
type PurgeResult struct {
	PaymentLogs int64 `json:"payment_logs"`
	Items       int64 `json:"order_items"`
	Orders      int64 `json:"orders"`
}

type Repository interface {
	// Insert stores the order and its items and fills in ID and timestamps.
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, filters Filters) ([]Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*Order, error)
	// SetTracking stores the tracking number and moves the order to shipped.
	SetTracking(ctx context.Context, id, tracking string) (*Order, error)
	SetArchived(ctx context.Context, ids []string, archived bool) (int64, error)
	// Delete removes the orders' items before the orders.
	Delete(ctx context.Context, ids []string) (int64, error)
	// PurgeAll removes payment logs, items and orders, in that order.
	PurgeAll(ctx context.Context) (PurgeResult, error)
	ShippingQueue(ctx context.Context) ([]Order, error)
	MarkShipped(ctx context.Context, ids []string) (int64, error)
	ListShippedWithTracking(ctx context.Context) ([]Order, error)

	UpdatePayment(ctx context.Context, id string, update PaymentUpdate) error
	InsertPaymentLog(ctx context.Context, log PaymentLog) error
	DeletePaymentLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	SalesSummary(ctx context.Context, statuses []string) (Sales, error)
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// Store scopes order and coupon writes to one transaction.
type Store interface {
	Orders() Repository
	Coupons() coupons.Repository
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// StatusView is what the public status page may see of an order: no
// customer contact details, address or payment internals.
type StatusView struct {
	ID             string    `json:"id"`
	Reference      string    `json:"reference"`
	Status         string    `json:"status"`
	PaymentStatus  string    `json:"payment_status"`
	TotalAmount    int64     `json:"total_amount"`
	ShippingCost   int64     `json:"shipping_cost"`
	DiscountAmount int64     `json:"discount_amount"`
	ShippingOption string    `json:"shipping_option"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Items          []Item    `json:"items"`
}

func (o *Order) Public() StatusView {
	items := o.Items
	if items == nil {
		items = []Item{}
	}
	return StatusView{
		ID:             o.ID,
		Reference:      o.Reference(),
		Status:         o.Status,
		PaymentStatus:  o.PaymentStatus,
		TotalAmount:    o.TotalAmount,
		ShippingCost:   o.ShippingCost,
		DiscountAmount: o.DiscountAmount,
		ShippingOption: o.ShippingOption,
		TrackingNumber: o.TrackingNumber,
		CreatedAt:      o.CreatedAt,
		Items:          items,
	}
}
