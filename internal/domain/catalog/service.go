package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultLimit = 24
	maxLimit     = 100
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EffectivePrice is the sale price when one is set, otherwise the list price.
func EffectivePrice(p Product) int64 {
	if p.SalePrice != nil && *p.SalePrice > 0 {
		return *p.SalePrice
	}
	return p.Price
}

func (s *Service) List(ctx context.Context, filters Filters) ([]Product, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetBySlug(ctx, slug)
}

func (s *Service) GetByID(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// GetMany returns the requested products keyed by id. Missing and inactive
// products are absent from the map.
func (s *Service) GetMany(ctx context.Context, ids []string) (map[string]Product, error) {
	out := make(map[string]Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	products, err := s.repo.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if !p.IsActive {
			continue
		}
		out[p.ID] = p
	}
	return out, nil
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.Categories(ctx)
}

func (s *Service) Brands(ctx context.Context) ([]Brand, error) {
	return s.repo.Brands(ctx)
}

type FilterError struct {
	Field   string
	Message string
}

func (e FilterError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func ParseFilters(values url.Values) (Filters, error) {
	filters := Filters{
		Category: strings.TrimSpace(values.Get("category")),
		Brand:    strings.TrimSpace(values.Get("brand")),
		Query:    strings.TrimSpace(values.Get("q")),
		Limit:    defaultLimit,
	}

	if raw := strings.TrimSpace(values.Get("featured")); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, FilterError{Field: "featured", Message: "must be true or false"}
		}
		filters.Featured = featured
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			return filters, FilterError{Field: "limit", Message: fmt.Sprintf("must be between 1 and %d", maxLimit)}
		}
		filters.Limit = limit
	}
	if raw := strings.TrimSpace(values.Get("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filters, FilterError{Field: "offset", Message: "must be a non-negative integer"}
		}
		filters.Offset = offset
	}
	return filters, nil
}
