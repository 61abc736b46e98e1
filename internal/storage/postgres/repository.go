package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conectados420/storefront/internal/auth"
	"github.com/conectados420/storefront/internal/domain/catalog"
	"github.com/conectados420/storefront/internal/domain/coupons"
	"github.com/conectados420/storefront/internal/domain/orders"
	"github.com/conectados420/storefront/internal/domain/settings"
	"github.com/conectados420/storefront/internal/domain/shipping"
	"github.com/conectados420/storefront/internal/metrics"
	"github.com/conectados420/storefront/internal/storage"
)

var (
	_ storage.Repository = (*Repository)(nil)
	_ orders.Store       = OrderStore{}
)

// queryer is satisfied by both the pool and a transaction.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// conn holds the pool and, inside WithTx, the open transaction.
type conn struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (c conn) queryer() queryer {
	if c.tx != nil {
		return c.tx
	}
	return c.pool
}

// Repository implements storage.Repository with PostgreSQL.
type Repository struct {
	conn
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{conn: conn{pool: pool}}, nil
}

// Open connects a pool sized from the configuration.
func Open(ctx context.Context, databaseURL string, maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}
	cfg.ConnConfig.Tracer = metrics.QueryTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func (r *Repository) Pool() *pgxpool.Pool { return r.pool }

func (r *Repository) Products() catalog.Repository   { return &ProductRepository{conn: r.conn} }
func (r *Repository) Coupons() coupons.Repository    { return &CouponRepository{conn: r.conn} }
func (r *Repository) Zones() shipping.ZoneRepository { return &ZoneRepository{conn: r.conn} }
func (r *Repository) Settings() settings.Repository  { return &SettingsRepository{conn: r.conn} }
func (r *Repository) Orders() orders.Repository      { return &OrderRepository{conn: r.conn} }
func (r *Repository) Profiles() auth.ProfileStore    { return &ProfileRepository{conn: r.conn} }

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// WithTx runs fn in a transaction. Nested calls reuse the open transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{conn: conn{pool: r.pool, tx: tx}}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// OrderStore adapts Repository to orders.Store.
type OrderStore struct {
	Repo *Repository
}

func (s OrderStore) Orders() orders.Repository   { return s.Repo.Orders() }
func (s OrderStore) Coupons() coupons.Repository { return s.Repo.Coupons() }

func (s OrderStore) WithTx(ctx context.Context, fn func(context.Context, orders.Store) error) error {
	return s.Repo.WithTx(ctx, func(ctx context.Context, tx storage.Repository) error {
		return fn(ctx, OrderStore{Repo: tx.(*Repository)})
	})
}

// inTx runs fn on the open transaction, or in a new one.
func (c conn) inTx(ctx context.Context, fn func(q queryer) error) error {
	if c.tx != nil {
		return fn(c.tx)
	}
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
