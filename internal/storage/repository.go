// Package storage declares the aggregate data-access boundary used by the
// HTTP layer, jobs and CLI.
package storage

import (
	"context"

	"github.com/conectados420/storefront/internal/auth"
	"github.com/conectados420/storefront/internal/domain/catalog"
	"github.com/conectados420/storefront/internal/domain/coupons"
	"github.com/conectados420/storefront/internal/domain/orders"
	"github.com/conectados420/storefront/internal/domain/settings"
	"github.com/conectados420/storefront/internal/domain/shipping"
)

// Repository groups data access by domain.
type Repository interface {
	Products() catalog.Repository
	Coupons() coupons.Repository
	Zones() shipping.ZoneRepository
	Settings() settings.Repository
	Orders() orders.Repository
	Profiles() auth.ProfileStore

	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Ping(ctx context.Context) error
}
