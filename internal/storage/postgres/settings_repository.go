package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/conectados420/storefront/internal/domain/settings"
)

var _ settings.Repository = (*SettingsRepository)(nil)

type SettingsRepository struct {
	conn
}

func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	rows, err := r.queryer().Query(ctx, `SELECT key, value FROM store_settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := r.queryer().QueryRow(ctx, `SELECT value FROM store_settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

func (r *SettingsRepository) Set(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for k, v := range values {
		batch.Queue(`
INSERT INTO store_settings (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`, k, v)
	}
	var results pgx.BatchResults
	if r.tx != nil {
		results = r.tx.SendBatch(ctx, batch)
	} else {
		results = r.pool.SendBatch(ctx, batch)
	}
	for range values {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("set setting: %w", err)
		}
	}
	return results.Close()
}
