// Package settings stores the key/value store configuration edited from the
// admin panel.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownKey   = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid setting value")
)

const (
	KeyBlueExpressEnabled  = "bluexpress_enabled"
	KeyStoreName           = "store_name"
	KeyContactEmail        = "contact_email"
	KeyFreeShippingDefault = "free_shipping_default"
)

type kind int

const (
	kindString kind = iota
	kindBool
	kindInt
)

var known = map[string]kind{
	KeyBlueExpressEnabled:  kindBool,
	KeyStoreName:           kindString,
	KeyContactEmail:        kindString,
	KeyFreeShippingDefault: kindInt,
}

var defaults = map[string]string{
	KeyBlueExpressEnabled:  "false",
	KeyStoreName:           "Conectados 420",
	KeyContactEmail:        "contacto@conectados420.cl",
	KeyFreeShippingDefault: "50000",
}

type Repository interface {
	All(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, values map[string]string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// All returns every known setting, filling unset keys with defaults.
func (s *Service) All(ctx context.Context) (map[string]string, error) {
	stored, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	out := make(map[string]string, len(known))
	for key := range known {
		if value, ok := stored[key]; ok {
			out[key] = value
			continue
		}
		out[key] = defaults[key]
	}
	return out, nil
}

func (s *Service) String(ctx context.Context, key string) (string, error) {
	if _, ok := known[key]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	value, ok, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("load setting %s: %w", key, err)
	}
	if !ok {
		return defaults[key], nil
	}
	return value, nil
}

func (s *Service) Bool(ctx context.Context, key string) (bool, error) {
	value, err := s.String(ctx, key)
	if err != nil {
		return false, err
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("setting %s: %w", key, err)
	}
	return parsed, nil
}

func (s *Service) Int(ctx context.Context, key string) (int64, error) {
	value, err := s.String(ctx, key)
	if err != nil {
		return 0, err
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("setting %s: %w", key, err)
	}
	return parsed, nil
}

// Update validates and stores a partial set of values.
func (s *Service) Update(ctx context.Context, values map[string]any) (map[string]string, error) {
	normalized := make(map[string]string, len(values))
	for key, raw := range values {
		k, ok := known[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		value, err := normalize(k, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
		}
		normalized[key] = value
	}
	if len(normalized) > 0 {
		if err := s.repo.Set(ctx, normalized); err != nil {
			return nil, fmt.Errorf("save settings: %w", err)
		}
	}
	return s.All(ctx)
}

func normalize(k kind, raw any) (string, error) {
	switch k {
	case kindBool:
		switch v := raw.(type) {
		case bool:
			return strconv.FormatBool(v), nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return "", errors.New("expected boolean")
			}
			return strconv.FormatBool(b), nil
		}
		return "", errors.New("expected boolean")
	case kindInt:
		switch v := raw.(type) {
		case float64:
			if v < 0 || v != float64(int64(v)) {
				return "", errors.New("expected non-negative integer")
			}
			return strconv.FormatInt(int64(v), 10), nil
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil || n < 0 {
				return "", errors.New("expected non-negative integer")
			}
			return strconv.FormatInt(n, 10), nil
		}
		return "", errors.New("expected non-negative integer")
	default:
		v, ok := raw.(string)
		if !ok {
			return "", errors.New("expected string")
		}
		return strings.TrimSpace(v), nil
	}
}
