package shipping

import (
	"context"
	"errors"
	"time"
)

var (
	ErrZoneNotFound = errors.New("shipping zone not found")
	// ErrZoneExists is returned when a (comuna, region) pair already has a zone.
	ErrZoneExists = errors.New("shipping zone already exists")
)

type Address struct {
	Street    string `json:"street,omitempty"`
	Number    string `json:"number,omitempty"`
	Apartment string `json:"apartment,omitempty"`
	Comuna    string `json:"comuna"`
	Region    string `json:"region"`
}

// Zone is a configured price for deliveries to one comuna.
type Zone struct {
	ID                    string    `json:"id"`
	Comuna                string    `json:"comuna"`
	Region                string    `json:"region"`
	BasePrice             int64     `json:"base_price"`
	EstimatedDays         int       `json:"estimated_days"`
	ExpressPrice          int64     `json:"express_price"`
	ExpressDays           int       `json:"express_days"`
	FreeShippingThreshold *int64    `json:"free_shipping_threshold,omitempty"`
	IsActive              bool      `json:"is_active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

type ZoneParams struct {
	Comuna                string `json:"comuna" validate:"required,max=100"`
	Region                string `json:"region" validate:"required,max=100"`
	BasePrice             int64  `json:"base_price" validate:"gte=0"`
	EstimatedDays         int    `json:"estimated_days" validate:"gte=0,lte=60"`
	ExpressPrice          int64  `json:"express_price" validate:"gte=0"`
	ExpressDays           int    `json:"express_days" validate:"gte=0,lte=60"`
	FreeShippingThreshold *int64 `json:"free_shipping_threshold" validate:"omitempty,gte=0"`
	IsActive              *bool  `json:"is_active"`
}

type ZoneRepository interface {
	// FindActiveZone returns the active zone for (comuna, region).
	FindActiveZone(ctx context.Context, comuna, region string) (*Zone, error)
	// FindActiveZoneByComuna returns any active zone for comuna.
	FindActiveZoneByComuna(ctx context.Context, comuna string) (*Zone, error)
	ListZones(ctx context.Context) ([]Zone, error)
	CreateZone(ctx context.Context, params ZoneParams) (*Zone, error)
	UpdateZone(ctx context.Context, id string, params ZoneParams) (*Zone, error)
	DeleteZone(ctx context.Context, id string) error
}

// SettingsReader exposes the store_settings flags the calculator depends on.
type SettingsReader interface {
	Bool(ctx context.Context, key string) (bool, error)
}
