package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conectados420/storefront/internal/domain/catalog"
)

var _ catalog.Repository = (*ProductRepository)(nil)

type ProductRepository struct {
	conn
}

const productColumns = `
SELECT p.id, p.name, p.slug, COALESCE(b.name, ''), COALESCE(c.name, ''),
       COALESCE(p.description, ''), COALESCE(p.image_url, ''),
       p.price, p.sale_price, p.stock, p.weight_kg::float8,
       p.is_active, p.featured, p.created_at, p.updated_at
  FROM products p
  LEFT JOIN brands b ON b.id = p.brand_id
  LEFT JOIN categories c ON c.id = p.category_id`

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Brand, &p.Category,
		&p.Description, &p.ImageURL,
		&p.Price, &p.SalePrice, &p.Stock, &p.WeightKg,
		&p.IsActive, &p.Featured, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *ProductRepository) List(ctx context.Context, filters catalog.Filters) ([]catalog.Product, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.queryer().Query(ctx, productColumns+`
 WHERE p.is_active
   AND ($1 = '' OR c.slug = $1)
   AND ($2 = '' OR b.slug = $2)
   AND ($3 = '' OR p.name ILIKE '%' || $3 || '%' OR p.description ILIKE '%' || $3 || '%')
   AND (NOT $4 OR p.featured)
 ORDER BY p.featured DESC, p.created_at DESC, p.id
 LIMIT $5 OFFSET $6`,
		filters.Category, filters.Brand, escapeILIKEPattern(filters.Query), filters.Featured, limit, filters.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	items := make([]catalog.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return items, nil
}

func (r *ProductRepository) getOne(ctx context.Context, where string, arg any) (*catalog.Product, error) {
	p, err := scanProduct(r.queryer().QueryRow(ctx, productColumns+" WHERE "+where, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetBySlug returns an active product.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	return r.getOne(ctx, "p.slug = $1 AND p.is_active", slug)
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, catalog.ErrNotFound
	}
	return r.getOne(ctx, "p.id = $1", id)
}

// GetMany returns the products that exist among ids, active or not.
// Malformed ids are ignored.
func (r *ProductRepository) GetMany(ctx context.Context, ids []string) ([]catalog.Product, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	rows, err := r.queryer().Query(ctx, productColumns+` WHERE p.id = ANY($1::uuid[])`, valid)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()

	var items []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *ProductRepository) Categories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.queryer().Query(ctx, `SELECT id, name, slug FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name, &c.Slug)
		return c, err
	})
}

func (r *ProductRepository) Brands(ctx context.Context) ([]catalog.Brand, error) {
	rows, err := r.queryer().Query(ctx, `SELECT id, name, slug FROM brands ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Brand, error) {
		var b catalog.Brand
		err := row.Scan(&b.ID, &b.Name, &b.Slug)
		return b, err
	})
}
