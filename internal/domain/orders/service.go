package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/conectados420/storefront/internal/domain/cart"
	"github.com/conectados420/storefront/internal/domain/catalog"
	"github.com/conectados420/storefront/internal/domain/coupons"
	"github.com/conectados420/storefront/internal/domain/shipping"
	"github.com/conectados420/storefront/internal/email"
	"github.com/conectados420/storefront/internal/sanitize"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInvalidStatus      = errors.New("invalid order status")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// CheckoutItem is one cart line as submitted by the storefront. Prices are
// never taken from the client.
type CheckoutItem struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=99"`
}

type CheckoutInput struct {
	Items             []CheckoutItem  `json:"items" validate:"required,min=1,max=50,dive"`
	CustomerName      string          `json:"customer_name" validate:"required,max=200"`
	CustomerEmail     string          `json:"customer_email" validate:"required,email,max=254"`
	CustomerPhone     string          `json:"customer_phone" validate:"max=30"`
	CustomerRUT       string          `json:"customer_rut" validate:"max=20"`
	ShippingAddress   ShippingAddress `json:"shipping_address"`
	ShippingAddressID string          `json:"shipping_address_id" validate:"omitempty,uuid"`
	ShippingOption    string          `json:"shipping_option" validate:"required,oneof=standard express pickup"`
	CouponCode        string          `json:"coupon_code" validate:"max=40"`
	Notes             string          `json:"notes" validate:"max=1000"`
}

type ProductLookup interface {
	GetMany(ctx context.Context, ids []string) (map[string]catalog.Product, error)
}

type CouponValidator interface {
	Validate(ctx context.Context, code string, cartTotal int64) (coupons.Result, error)
}

type ShippingQuoter interface {
	Calculate(ctx context.Context, addr shipping.Address, cartTotal int64, opts shipping.QuoteOptions) (shipping.Quote, error)
}

// statusTemplates maps an order status to the email sent when an admin moves
// an order into it.
var statusTemplates = map[string]string{
	StatusPreparing: email.TemplateOrderConfirmed,
	StatusShipped:   email.TemplateOrderShipped,
	StatusDelivered: email.TemplateOrderDelivered,
	StatusCancelled: email.TemplatePaymentRejected,
}

// TemplateForStatus returns the notification template for status, if any.
func TemplateForStatus(status string) (string, bool) {
	tpl, ok := statusTemplates[status]
	return tpl, ok
}

type Service struct {
	store     Store
	products  ProductLookup
	coupons   CouponValidator
	shipping  ShippingQuoter
	notifier  email.Notifier
	logger    zerolog.Logger
	validator *validator.Validate
	now       func() time.Time
}

func NewService(store Store, products ProductLookup, couponSvc CouponValidator, quoter ShippingQuoter, notifier email.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:     store,
		products:  products,
		coupons:   couponSvc,
		shipping:  quoter,
		notifier:  notifier,
		logger:    logger.With().Str("component", "orders").Logger(),
		validator: validator.New(),
		now:       time.Now,
	}
}

// Create prices the cart from the catalog, applies the coupon and shipping
// quote, and stores the order with its items in one transaction.
func (s *Service) Create(ctx context.Context, in CheckoutInput) (*Order, error) {
	in = sanitizeCheckout(in)
	if err := s.validator.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, ValidationError{Field: verrs[0].Field(), Message: verrs[0].Tag()}
		}
		return nil, ValidationError{Field: "body", Message: err.Error()}
	}

	c, err := s.priceCart(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	subtotal := c.Total()

	var applied *coupons.Result
	if strings.TrimSpace(in.CouponCode) != "" {
		result, err := s.coupons.Validate(ctx, in.CouponCode, subtotal)
		if err != nil {
			return nil, err
		}
		applied = &result
	}

	quote := shipping.PickupQuote()
	if in.ShippingOption != shipping.OptionPickup {
		addr := shipping.Address{
			Street:    in.ShippingAddress.StreetAddress,
			Number:    in.ShippingAddress.StreetNumber,
			Apartment: in.ShippingAddress.Apartment,
			Comuna:    in.ShippingAddress.Comuna,
			Region:    in.ShippingAddress.Region,
		}
		quote, err = s.shipping.Calculate(ctx, addr, subtotal, shipping.QuoteOptions{
			Express: in.ShippingOption == shipping.OptionExpress,
			Items:   c.Lines,
		})
		if err != nil {
			return nil, err
		}
	}

	order := &Order{
		Status:               StatusPending,
		PaymentStatus:        PaymentPending,
		ShippingCost:         quote.Cost,
		ShippingOption:       in.ShippingOption,
		ShippingDaysEstimate: quote.Days,
		CustomerName:         in.CustomerName,
		CustomerEmail:        in.CustomerEmail,
		CustomerPhone:        in.CustomerPhone,
		CustomerRUT:          in.CustomerRUT,
		ShippingAddress:      in.ShippingAddress,
		ShippingAddressID:    in.ShippingAddressID,
		Notes:                in.Notes,
		TotalAmount:          subtotal,
	}
	if order.ShippingAddress.RecipientName == "" {
		order.ShippingAddress.RecipientName = in.CustomerName
	}
	if order.ShippingAddress.Phone == "" {
		order.ShippingAddress.Phone = in.CustomerPhone
	}
	if applied != nil {
		order.CouponID = applied.Coupon.ID
		order.DiscountAmount = applied.Discount
		order.TotalAmount = subtotal - applied.Discount
	}
	order.Items = c.items

	err = s.store.WithTx(ctx, func(ctx context.Context, tx Store) error {
		if applied != nil {
			if err := tx.Coupons().IncrementUses(ctx, applied.Coupon.ID); err != nil {
				if errors.Is(err, coupons.ErrNotFound) {
					return &coupons.RejectionError{Reason: coupons.ReasonMaxUses}
				}
				return err
			}
		}
		return tx.Orders().Insert(ctx, order)
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Int64("total", order.TotalAmount).
		Int64("shipping", order.ShippingCost).
		Str("coupon_id", order.CouponID).
		Msg("order created")
	return order, nil
}

type pricedCart struct {
	cart.Cart
	items []Item
}

func (s *Service) priceCart(ctx context.Context, lines []CheckoutItem) (pricedCart, error) {
	if len(lines) == 0 {
		return pricedCart{}, ErrEmptyCart
	}
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return pricedCart{}, fmt.Errorf("load products: %w", err)
	}

	var out pricedCart
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			return pricedCart{}, fmt.Errorf("%w: %s", ErrProductUnavailable, l.ProductID)
		}
		out.Add(p, l.Quantity)
	}
	for _, line := range out.Lines {
		p := products[line.ProductID]
		out.items = append(out.items, Item{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Snapshot:  Snapshot{Name: p.Name, Brand: p.Brand, ImageURL: p.ImageURL},
		})
	}
	return out, nil
}

func sanitizeCheckout(in CheckoutInput) CheckoutInput {
	in.CustomerName = sanitize.PlainText(in.CustomerName)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.CustomerPhone = sanitize.PlainText(in.CustomerPhone)
	in.CustomerRUT = sanitize.PlainText(in.CustomerRUT)
	in.Notes = sanitize.PlainText(in.Notes)

	a := &in.ShippingAddress
	a.RecipientName = sanitize.PlainText(a.RecipientName)
	a.StreetAddress = sanitize.PlainText(a.StreetAddress)
	a.StreetNumber = sanitize.PlainText(a.StreetNumber)
	a.Apartment = sanitize.PlainText(a.Apartment)
	a.Comuna = sanitize.PlainText(a.Comuna)
	a.Region = sanitize.PlainText(a.Region)
	a.Phone = sanitize.PlainText(a.Phone)
	a.Reference = sanitize.PlainText(a.Reference)
	return in
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.store.Orders().Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters Filters) ([]Order, error) {
	if filters.Status != "" && !ValidStatus(filters.Status) {
		return nil, ErrInvalidStatus
	}
	if filters.Limit <= 0 {
		filters.Limit = defaultListLimit
	}
	if filters.Limit > maxListLimit {
		filters.Limit = maxListLimit
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	return s.store.Orders().List(ctx, filters)
}

// UpdateStatus moves an order and notifies the customer when the new status
// has a template. Notification failures are logged, not returned.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Order, error) {
	if !ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	order, err := s.store.Orders().UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("order_id", id).Str("status", status).Msg("order status updated")
	if tpl, ok := TemplateForStatus(status); ok {
		s.notify(ctx, *order, tpl)
	}
	return order, nil
}

// SetTracking records the carrier tracking number, marks the order shipped
// and sends the shipped email.
func (s *Service) SetTracking(ctx context.Context, id, tracking string) (*Order, error) {
	tracking = strings.TrimSpace(tracking)
	if tracking == "" {
		return nil, ValidationError{Field: "tracking_number", Message: "required"}
	}
	order, err := s.store.Orders().SetTracking(ctx, id, tracking)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, *order, email.TemplateOrderShipped)
	return order, nil
}

func (s *Service) Archive(ctx context.Context, ids []string) (int64, error) {
	return s.setArchived(ctx, ids, true)
}

func (s *Service) Unarchive(ctx context.Context, ids []string) (int64, error) {
	return s.setArchived(ctx, ids, false)
}

func (s *Service) setArchived(ctx context.Context, ids []string, archived bool) (int64, error) {
	if len(ids) == 0 {
		return 0, ValidationError{Field: "ids", Message: "required"}
	}
	return s.store.Orders().SetArchived(ctx, ids, archived)
}

func (s *Service) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, ValidationError{Field: "ids", Message: "required"}
	}
	n, err := s.store.Orders().Delete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete orders: %w", err)
	}
	s.logger.Warn().Int64("deleted", n).Msg("orders deleted")
	return n, nil
}

// PurgeTestOrders wipes every order, item and payment log.
func (s *Service) PurgeTestOrders(ctx context.Context) (PurgeResult, error) {
	result, err := s.store.Orders().PurgeAll(ctx)
	if err != nil {
		return PurgeResult{}, fmt.Errorf("purge orders: %w", err)
	}
	s.logger.Warn().
		Int64("orders", result.Orders).
		Int64("order_items", result.Items).
		Int64("payment_logs", result.PaymentLogs).
		Msg("test orders purged")
	return result, nil
}

// ShippingQueue lists paid orders awaiting or in delivery, oldest first.
func (s *Service) ShippingQueue(ctx context.Context) ([]Order, error) {
	return s.store.Orders().ShippingQueue(ctx)
}

func (s *Service) BulkMarkShipped(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, ValidationError{Field: "ids", Message: "required"}
	}
	return s.store.Orders().MarkShipped(ctx, ids)
}

// NotificationMessage builds the customer email for order.
func NotificationMessage(order Order, tpl string) email.Message {
	return email.Message{
		To:       order.CustomerEmail,
		Subject:  email.DefaultSubject(tpl, order.Reference()),
		Template: tpl,
		Data: email.Data{
			CustomerName:   order.CustomerName,
			OrderRef:       order.Reference(),
			OrderID:        order.ID,
			TrackingNumber: order.TrackingNumber,
			OrderTotal:     order.TotalAmount,
		}.Map(),
	}
}

// Notify sends tpl for order through the configured notifier. Orders without
// a customer email are skipped.
func (s *Service) Notify(ctx context.Context, order Order, tpl string) error {
	if strings.TrimSpace(order.CustomerEmail) == "" {
		return nil
	}
	return s.notifier.Notify(ctx, NotificationMessage(order, tpl))
}

func (s *Service) notify(ctx context.Context, order Order, tpl string) {
	if err := s.Notify(ctx, order, tpl); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Str("template", tpl).Msg("order notification failed")
	}
}
