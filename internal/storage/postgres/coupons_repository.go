package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conectados420/storefront/internal/domain/coupons"
)

var _ coupons.Repository = (*CouponRepository)(nil)

type CouponRepository struct {
	conn
}

const couponColumns = `
SELECT id, code, COALESCE(description, ''), discount_type, discount_value,
       min_purchase_amount, max_uses, uses_count, valid_until, is_active, created_at
  FROM coupons`

func scanCoupon(row pgx.Row) (*coupons.Coupon, error) {
	var c coupons.Coupon
	var discountType string
	if err := row.Scan(
		&c.ID, &c.Code, &c.Description, &discountType, &c.DiscountValue,
		&c.MinPurchaseAmount, &c.MaxUses, &c.UsesCount, &c.ValidUntil, &c.IsActive, &c.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupons.ErrNotFound
		}
		return nil, err
	}
	c.DiscountType = coupons.DiscountType(discountType)
	return &c, nil
}

func (r *CouponRepository) GetActiveByCode(ctx context.Context, code string) (*coupons.Coupon, error) {
	c, err := scanCoupon(r.queryer().QueryRow(ctx, couponColumns+` WHERE code = $1 AND is_active`, code))
	if err != nil && !errors.Is(err, coupons.ErrNotFound) {
		return nil, fmt.Errorf("get coupon by code: %w", err)
	}
	return c, err
}

func (r *CouponRepository) Get(ctx context.Context, id string) (*coupons.Coupon, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, coupons.ErrNotFound
	}
	c, err := scanCoupon(r.queryer().QueryRow(ctx, couponColumns+` WHERE id = $1`, id))
	if err != nil && !errors.Is(err, coupons.ErrNotFound) {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	return c, err
}

func (r *CouponRepository) List(ctx context.Context) ([]coupons.Coupon, error) {
	rows, err := r.queryer().Query(ctx, couponColumns+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	var out []coupons.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *CouponRepository) Create(ctx context.Context, p coupons.SaveParams) (*coupons.Coupon, error) {
	c, err := scanCoupon(r.queryer().QueryRow(ctx, `
INSERT INTO coupons (code, description, discount_type, discount_value, min_purchase_amount, max_uses, valid_until, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, code, COALESCE(description, ''), discount_type, discount_value,
          min_purchase_amount, max_uses, uses_count, valid_until, is_active, created_at`,
		p.Code, nullString(p.Description), string(p.DiscountType), p.DiscountValue,
		p.MinPurchaseAmount, p.MaxUses, p.ValidUntil, p.IsActive,
	))
	if isUniqueViolation(err) {
		return nil, coupons.ErrCodeTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create coupon: %w", err)
	}
	return c, nil
}

func (r *CouponRepository) Update(ctx context.Context, id string, p coupons.SaveParams) (*coupons.Coupon, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, coupons.ErrNotFound
	}
	c, err := scanCoupon(r.queryer().QueryRow(ctx, `
UPDATE coupons
   SET code = $2, description = $3, discount_type = $4, discount_value = $5,
       min_purchase_amount = $6, max_uses = $7, valid_until = $8, is_active = $9
 WHERE id = $1
RETURNING id, code, COALESCE(description, ''), discount_type, discount_value,
          min_purchase_amount, max_uses, uses_count, valid_until, is_active, created_at`,
		id, p.Code, nullString(p.Description), string(p.DiscountType), p.DiscountValue,
		p.MinPurchaseAmount, p.MaxUses, p.ValidUntil, p.IsActive,
	))
	if isUniqueViolation(err) {
		return nil, coupons.ErrCodeTaken
	}
	if err != nil && !errors.Is(err, coupons.ErrNotFound) {
		return nil, fmt.Errorf("update coupon: %w", err)
	}
	return c, err
}

func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return coupons.ErrNotFound
	}
	tag, err := r.queryer().Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return coupons.ErrNotFound
	}
	return nil
}

// IncrementUses consumes one use. The condition makes concurrent
// redemptions of the last use race-free.
func (r *CouponRepository) IncrementUses(ctx context.Context, id string) error {
	tag, err := r.queryer().Exec(ctx, `
UPDATE coupons
   SET uses_count = uses_count + 1
 WHERE id = $1
   AND (max_uses IS NULL OR uses_count < max_uses)`, id)
	if err != nil {
		return fmt.Errorf("increment coupon uses: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return coupons.ErrNotFound
	}
	return nil
}
