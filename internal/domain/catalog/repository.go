package catalog

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("product not found")

// Product prices are whole Chilean pesos.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Brand       string    `json:"brand,omitempty"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Price       int64     `json:"price"`
	SalePrice   *int64    `json:"sale_price,omitempty"`
	Stock       int       `json:"stock"`
	WeightKg    *float64  `json:"weight_kg,omitempty"`
	IsActive    bool      `json:"is_active"`
	Featured    bool      `json:"featured"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Filters struct {
	Category string
	Brand    string
	Query    string
	Featured bool
	Limit    int
	Offset   int
}

type Repository interface {
	List(ctx context.Context, filters Filters) ([]Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	GetMany(ctx context.Context, ids []string) ([]Product, error)
	Categories(ctx context.Context) ([]Category, error)
	Brands(ctx context.Context) ([]Brand, error)
}
