package coupons

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/conectados420/storefront/internal/money"
)

// ErrRejected matches every *RejectionError via errors.Is.
var ErrRejected = errors.New("coupon rejected")

// Rejection reasons shown to shoppers.
const (
	ReasonInvalid  = "Cupón no válido"
	ReasonExpired  = "Este cupón ha expirado"
	ReasonMaxUses  = "Este cupón ya alcanzó su límite de usos"
	reasonMinTotal = "Compra mínima: %s"
)

type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

func (e *RejectionError) Unwrap() error {
	return ErrRejected
}

func reject(reason string) error {
	return &RejectionError{Reason: reason}
}

type Result struct {
	Coupon   Coupon `json:"coupon"`
	Discount int64  `json:"discount"`
}

// NormalizeCode uppercases and trims a shopper-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Check applies the coupon rules to a cart total in order: expiry, usage
// limit, then minimum purchase.
func Check(c Coupon, cartTotal int64, now time.Time) (int64, error) {
	if !c.IsActive {
		return 0, reject(ReasonInvalid)
	}
	if c.ValidUntil != nil && c.ValidUntil.Before(now) {
		return 0, reject(ReasonExpired)
	}
	if c.MaxUses != nil && c.UsesCount >= *c.MaxUses {
		return 0, reject(ReasonMaxUses)
	}
	if c.MinPurchaseAmount != nil && cartTotal < *c.MinPurchaseAmount {
		return 0, reject(fmt.Sprintf(reasonMinTotal, money.CLP(*c.MinPurchaseAmount)))
	}
	return Discount(c, cartTotal), nil
}

// Discount never exceeds the cart total.
func Discount(c Coupon, cartTotal int64) int64 {
	if cartTotal <= 0 {
		return 0
	}
	var discount int64
	switch c.DiscountType {
	case DiscountPercentage:
		discount = int64(math.Round(float64(cartTotal) * float64(c.DiscountValue) / 100))
	case DiscountFixed:
		discount = c.DiscountValue
	}
	if discount < 0 {
		return 0
	}
	if discount > cartTotal {
		return cartTotal
	}
	return discount
}
