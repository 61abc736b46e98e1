package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conectados420/storefront/internal/domain/orders"
)

var _ orders.Repository = (*OrderRepository)(nil)

type OrderRepository struct {
	conn
}

const orderColumns = `
SELECT id, status, payment_status, payment_id, mp_payment_id, payment_method, payment_details,
       total_amount, shipping_cost, shipping_option, shipping_days_estimate, discount_amount, coupon_id,
       customer_name, customer_email, customer_phone, customer_rut,
       shipping_address, shipping_address_id, tracking_number, notes,
       is_archived, created_at, updated_at
  FROM orders`

func scanOrder(row pgx.Row) (orders.Order, error) {
	var (
		o                                             orders.Order
		paymentID, mpPaymentID, method                *string
		couponID, phone, rut, addressID, tracking, nt *string
		days                                          *int
		details, address                              []byte
	)
	err := row.Scan(
		&o.ID, &o.Status, &o.PaymentStatus, &paymentID, &mpPaymentID, &method, &details,
		&o.TotalAmount, &o.ShippingCost, &o.ShippingOption, &days, &o.DiscountAmount, &couponID,
		&o.CustomerName, &o.CustomerEmail, &phone, &rut,
		&address, &addressID, &tracking, &nt,
		&o.IsArchived, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}
	o.PaymentID = derefString(paymentID)
	o.MPPaymentID = derefString(mpPaymentID)
	o.PaymentMethod = derefString(method)
	if len(details) > 0 {
		o.PaymentDetails = json.RawMessage(details)
	}
	if days != nil {
		o.ShippingDaysEstimate = *days
	}
	o.CouponID = derefString(couponID)
	o.CustomerPhone = derefString(phone)
	o.CustomerRUT = derefString(rut)
	if len(address) > 0 {
		if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
			return o, fmt.Errorf("decode shipping address: %w", err)
		}
	}
	o.ShippingAddressID = derefString(addressID)
	o.TrackingNumber = derefString(tracking)
	o.Notes = derefString(nt)
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]orders.Order, error) {
	defer rows.Close()
	var out []orders.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return out, nil
}

func validIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func nullInt(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func (r *OrderRepository) Insert(ctx context.Context, o *orders.Order) error {
	return r.inTx(ctx, func(q queryer) error {
		err := q.QueryRow(ctx, `
INSERT INTO orders (
    status, payment_status, total_amount, shipping_cost, shipping_option, shipping_days_estimate,
    discount_amount, coupon_id, customer_name, customer_email, customer_phone, customer_rut,
    shipping_address, shipping_address_id, notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id, created_at, updated_at`,
			o.Status, o.PaymentStatus, o.TotalAmount, o.ShippingCost, o.ShippingOption, nullInt(o.ShippingDaysEstimate),
			o.DiscountAmount, nullString(o.CouponID), o.CustomerName, o.CustomerEmail, nullString(o.CustomerPhone), nullString(o.CustomerRUT),
			o.ShippingAddress, nullString(o.ShippingAddressID), nullString(o.Notes),
		).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for i := range o.Items {
			item := &o.Items[i]
			item.OrderID = o.ID
			if err := q.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, quantity, unit_price, product_snapshot)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
				o.ID, nullString(item.ProductID), item.Quantity, item.UnitPrice, item.Snapshot,
			).Scan(&item.ID); err != nil {
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return nil
	})
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*orders.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, orders.ErrNotFound
	}
	o, err := scanOrder(r.queryer().QueryRow(ctx, orderColumns+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, orders.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	list := []orders.Order{o}
	if err := r.loadItems(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *OrderRepository) loadItems(ctx context.Context, list []orders.Order) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	index := make(map[string]int, len(list))
	for i, o := range list {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.queryer().Query(ctx, `
SELECT id, order_id, COALESCE(product_id::text, ''), quantity, unit_price, product_snapshot
  FROM order_items
 WHERE order_id = ANY($1::uuid[])
 ORDER BY created_at, id`, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item orders.Item
		var snapshot []byte
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &snapshot); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &item.Snapshot); err != nil {
				return fmt.Errorf("decode product snapshot: %w", err)
			}
		}
		i := index[item.OrderID]
		list[i].Items = append(list[i].Items, item)
	}
	return rows.Err()
}

func (r *OrderRepository) List(ctx context.Context, f orders.Filters) ([]orders.Order, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query := strings.TrimSpace(f.Query)
	rows, err := r.queryer().Query(ctx, orderColumns+`
 WHERE is_archived = $1
   AND ($2 = '' OR status = $2)
   AND ($3 = '' OR upper(left(id::text, 8)) = upper($3)
        OR customer_name ILIKE '%' || $3 || '%'
        OR customer_email ILIKE '%' || $3 || '%')
 ORDER BY created_at DESC
 LIMIT $4 OFFSET $5`, f.Archived, f.Status, query, limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	list, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *OrderRepository) updateReturning(ctx context.Context, id, sql string, args ...any) (*orders.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, orders.ErrNotFound
	}
	tag, err := r.queryer().Exec(ctx, sql, append([]any{id}, args...)...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, orders.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) (*orders.Order, error) {
	o, err := r.updateReturning(ctx, id, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, status)
	if err != nil && !errors.Is(err, orders.ErrNotFound) {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	return o, err
}

func (r *OrderRepository) SetTracking(ctx context.Context, id, tracking string) (*orders.Order, error) {
	o, err := r.updateReturning(ctx, id, `
UPDATE orders SET tracking_number = $2, status = 'shipped', updated_at = now() WHERE id = $1`, tracking)
	if err != nil && !errors.Is(err, orders.ErrNotFound) {
		return nil, fmt.Errorf("set tracking: %w", err)
	}
	return o, err
}

func (r *OrderRepository) SetArchived(ctx context.Context, ids []string, archived bool) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE orders SET is_archived = $2, updated_at = now() WHERE id = ANY($1::uuid[])`, validIDs(ids), archived)
	if err != nil {
		return 0, fmt.Errorf("archive orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *OrderRepository) Delete(ctx context.Context, ids []string) (int64, error) {
	valid := validIDs(ids)
	var deleted int64
	err := r.inTx(ctx, func(q queryer) error {
		if _, err := q.Exec(ctx, `DELETE FROM payment_logs WHERE order_id = ANY($1::uuid[])`, valid); err != nil {
			return fmt.Errorf("delete payment logs: %w", err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM order_items WHERE order_id = ANY($1::uuid[])`, valid); err != nil {
			return fmt.Errorf("delete order items: %w", err)
		}
		tag, err := q.Exec(ctx, `DELETE FROM orders WHERE id = ANY($1::uuid[])`, valid)
		if err != nil {
			return fmt.Errorf("delete orders: %w", err)
		}
		deleted = tag.RowsAffected()
		return nil
	})
	return deleted, err
}

func (r *OrderRepository) PurgeAll(ctx context.Context) (orders.PurgeResult, error) {
	var res orders.PurgeResult
	err := r.inTx(ctx, func(q queryer) error {
		tag, err := q.Exec(ctx, `DELETE FROM payment_logs`)
		if err != nil {
			return fmt.Errorf("purge payment logs: %w", err)
		}
		res.PaymentLogs = tag.RowsAffected()

		tag, err = q.Exec(ctx, `DELETE FROM order_items`)
		if err != nil {
			return fmt.Errorf("purge order items: %w", err)
		}
		res.Items = tag.RowsAffected()

		tag, err = q.Exec(ctx, `DELETE FROM orders`)
		if err != nil {
			return fmt.Errorf("purge orders: %w", err)
		}
		res.Orders = tag.RowsAffected()
		return nil
	})
	return res, err
}

func (r *OrderRepository) ShippingQueue(ctx context.Context) ([]orders.Order, error) {
	rows, err := r.queryer().Query(ctx, orderColumns+`
 WHERE status IN ('paid', 'confirmed', 'shipped', 'delivered')
   AND NOT is_archived
   AND shipping_option <> 'pickup'
 ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("shipping queue: %w", err)
	}
	return collectOrders(rows)
}

func (r *OrderRepository) MarkShipped(ctx context.Context, ids []string) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `
UPDATE orders SET status = 'shipped', updated_at = now() WHERE id = ANY($1::uuid[])`, validIDs(ids))
	if err != nil {
		return 0, fmt.Errorf("mark shipped: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *OrderRepository) ListShippedWithTracking(ctx context.Context) ([]orders.Order, error) {
	rows, err := r.queryer().Query(ctx, orderColumns+`
 WHERE status = 'shipped' AND COALESCE(tracking_number, '') <> ''
 ORDER BY updated_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list shipped orders: %w", err)
	}
	return collectOrders(rows)
}

func (r *OrderRepository) UpdatePayment(ctx context.Context, id string, u orders.PaymentUpdate) error {
	if _, err := uuid.Parse(id); err != nil {
		return orders.ErrNotFound
	}
	var details []byte
	if len(u.PaymentDetails) > 0 {
		details = u.PaymentDetails
	}
	tag, err := r.queryer().Exec(ctx, `
UPDATE orders
   SET status          = COALESCE($2, status),
       payment_id      = COALESCE($3, payment_id),
       mp_payment_id   = COALESCE($4, mp_payment_id),
       payment_status  = COALESCE($5, payment_status),
       payment_method  = COALESCE($6, payment_method),
       payment_details = COALESCE($7::jsonb, payment_details),
       updated_at      = now()
 WHERE id = $1`,
		id, nullString(u.Status), nullString(u.PaymentID), nullString(u.MPPaymentID),
		nullString(u.PaymentStatus), nullString(u.PaymentMethod), details,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return orders.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) InsertPaymentLog(ctx context.Context, log orders.PaymentLog) error {
	var raw []byte
	if len(log.RawData) > 0 {
		raw = log.RawData
	}
	createdAt := log.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.queryer().Exec(ctx, `
INSERT INTO payment_logs (order_id, event_type, payment_id, status, raw_data, created_at)
VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		nullString(log.OrderID), log.EventType, nullString(log.PaymentID), nullString(log.Status), raw, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment log: %w", err)
	}
	return nil
}

func (r *OrderRepository) DeletePaymentLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM payment_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete payment logs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *OrderRepository) SalesSummary(ctx context.Context, statuses []string) (orders.Sales, error) {
	var s orders.Sales
	err := r.queryer().QueryRow(ctx, `
SELECT COALESCE(SUM(total_amount), 0)::bigint, COUNT(*)
  FROM orders
 WHERE status = ANY($1::text[])`, statuses).Scan(&s.Total, &s.Count)
	if err != nil {
		return s, fmt.Errorf("sales summary: %w", err)
	}
	return s, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.queryer().Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count orders by status: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}
