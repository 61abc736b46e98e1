package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conectados420/storefront/internal/domain/shipping"
)

var _ shipping.ZoneRepository = (*ZoneRepository)(nil)

type ZoneRepository struct {
	conn
}

const zoneColumns = `id, comuna, region, base_price, estimated_days, express_price, express_days,
       free_shipping_threshold, is_active, created_at, updated_at`

func scanZone(row pgx.Row) (*shipping.Zone, error) {
	var z shipping.Zone
	err := row.Scan(
		&z.ID, &z.Comuna, &z.Region, &z.BasePrice, &z.EstimatedDays, &z.ExpressPrice, &z.ExpressDays,
		&z.FreeShippingThreshold, &z.IsActive, &z.CreatedAt, &z.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shipping.ErrZoneNotFound
	}
	if err != nil {
		return nil, err
	}
	return &z, nil
}

func (r *ZoneRepository) FindActiveZone(ctx context.Context, comuna, region string) (*shipping.Zone, error) {
	z, err := scanZone(r.queryer().QueryRow(ctx, `
SELECT `+zoneColumns+`
  FROM shipping_zones
 WHERE is_active AND lower(comuna) = lower($1) AND lower(region) = lower($2)`, comuna, region))
	if err != nil && !errors.Is(err, shipping.ErrZoneNotFound) {
		return nil, fmt.Errorf("find zone: %w", err)
	}
	return z, err
}

func (r *ZoneRepository) FindActiveZoneByComuna(ctx context.Context, comuna string) (*shipping.Zone, error) {
	z, err := scanZone(r.queryer().QueryRow(ctx, `
SELECT `+zoneColumns+`
  FROM shipping_zones
 WHERE is_active AND lower(comuna) = lower($1)
 ORDER BY created_at
 LIMIT 1`, comuna))
	if err != nil && !errors.Is(err, shipping.ErrZoneNotFound) {
		return nil, fmt.Errorf("find zone by comuna: %w", err)
	}
	return z, err
}

func (r *ZoneRepository) ListZones(ctx context.Context) ([]shipping.Zone, error) {
	rows, err := r.queryer().Query(ctx, `SELECT `+zoneColumns+` FROM shipping_zones ORDER BY region, comuna`)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var out []shipping.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		out = append(out, *z)
	}
	return out, rows.Err()
}

func activeOrDefault(p shipping.ZoneParams) bool {
	if p.IsActive == nil {
		return true
	}
	return *p.IsActive
}

func (r *ZoneRepository) CreateZone(ctx context.Context, p shipping.ZoneParams) (*shipping.Zone, error) {
	z, err := scanZone(r.queryer().QueryRow(ctx, `
INSERT INTO shipping_zones (comuna, region, base_price, estimated_days, express_price, express_days, free_shipping_threshold, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+zoneColumns,
		p.Comuna, p.Region, p.BasePrice, p.EstimatedDays, p.ExpressPrice, p.ExpressDays,
		p.FreeShippingThreshold, activeOrDefault(p),
	))
	if isUniqueViolation(err) {
		return nil, shipping.ErrZoneExists
	}
	if err != nil {
		return nil, fmt.Errorf("create zone: %w", err)
	}
	return z, nil
}

func (r *ZoneRepository) UpdateZone(ctx context.Context, id string, p shipping.ZoneParams) (*shipping.Zone, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, shipping.ErrZoneNotFound
	}
	z, err := scanZone(r.queryer().QueryRow(ctx, `
UPDATE shipping_zones
   SET comuna = $2, region = $3, base_price = $4, estimated_days = $5, express_price = $6,
       express_days = $7, free_shipping_threshold = $8, is_active = COALESCE($9, is_active),
       updated_at = now()
 WHERE id = $1
RETURNING `+zoneColumns,
		id, p.Comuna, p.Region, p.BasePrice, p.EstimatedDays, p.ExpressPrice, p.ExpressDays,
		p.FreeShippingThreshold, p.IsActive,
	))
	if isUniqueViolation(err) {
		return nil, shipping.ErrZoneExists
	}
	if err != nil && !errors.Is(err, shipping.ErrZoneNotFound) {
		return nil, fmt.Errorf("update zone: %w", err)
	}
	return z, err
}

func (r *ZoneRepository) DeleteZone(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return shipping.ErrZoneNotFound
	}
	tag, err := r.queryer().Exec(ctx, `DELETE FROM shipping_zones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete zone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shipping.ErrZoneNotFound
	}
	return nil
}
