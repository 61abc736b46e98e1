package coupons

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("coupon not found")
	ErrCodeTaken = errors.New("coupon code already exists")
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID                string       `json:"id"`
	Code              string       `json:"code"`
	Description       string       `json:"description,omitempty"`
	DiscountType      DiscountType `json:"discount_type"`
	DiscountValue     int64        `json:"discount_value"`
	MinPurchaseAmount *int64       `json:"min_purchase_amount,omitempty"`
	MaxUses           *int         `json:"max_uses,omitempty"`
	UsesCount         int          `json:"uses_count"`
	ValidUntil        *time.Time   `json:"valid_until,omitempty"`
	IsActive          bool         `json:"is_active"`
	CreatedAt         time.Time    `json:"created_at"`
}

// SaveParams is the normalized form written by admin create and update.
type SaveParams struct {
	Code              string
	Description       string
	DiscountType      DiscountType
	DiscountValue     int64
	MinPurchaseAmount *int64
	MaxUses           *int
	ValidUntil        *time.Time
	IsActive          bool
}

type Repository interface {
	// GetActiveByCode looks up an active coupon by its exact, already
	// normalized code.
	GetActiveByCode(ctx context.Context, code string) (*Coupon, error)
	Get(ctx context.Context, id string) (*Coupon, error)
	List(ctx context.Context) ([]Coupon, error)
	Create(ctx context.Context, params SaveParams) (*Coupon, error)
	Update(ctx context.Context, id string, params SaveParams) (*Coupon, error)
	Delete(ctx context.Context, id string) error
	// IncrementUses returns ErrNotFound when the coupon is missing or has
	// no uses left.
	IncrementUses(ctx context.Context, id string) error
}
