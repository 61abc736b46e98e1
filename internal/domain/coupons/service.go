package coupons

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Input is the admin payload for creating or replacing a coupon.
type Input struct {
	Code              string `json:"code" validate:"required,min=3,max=40"`
	Description       string `json:"description" validate:"max=200"`
	DiscountType      string `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue     int64  `json:"discount_value" validate:"required,gt=0"`
	MinPurchaseAmount *int64 `json:"min_purchase_amount" validate:"omitempty,gte=0"`
	MaxUses           *int   `json:"max_uses" validate:"omitempty,gt=0"`
	ValidUntil        string `json:"valid_until"`
	IsActive          *bool  `json:"is_active"`
}

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Outcome labels reported to the metrics observer.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type Service struct {
	repo      Repository
	logger    zerolog.Logger
	validator *validator.Validate
	now       func() time.Time
	observe   func(outcome string)
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		logger:    logger.With().Str("component", "coupons").Logger(),
		validator: validator.New(),
		now:       time.Now,
		observe:   func(string) {},
	}
}

// WithObserver registers a callback that receives one outcome per Validate call.
func (s *Service) WithObserver(fn func(outcome string)) *Service {
	if fn != nil {
		s.observe = fn
	}
	return s
}

// Validate looks up a shopper-entered code and computes its discount for the
// cart total. Unknown codes are rejections, not errors.
func (s *Service) Validate(ctx context.Context, code string, cartTotal int64) (Result, error) {
	normalized := NormalizeCode(code)
	if normalized == "" {
		s.observe(OutcomeRejected)
		return Result{}, reject(ReasonInvalid)
	}

	coupon, err := s.repo.GetActiveByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.observe(OutcomeRejected)
			return Result{}, reject(ReasonInvalid)
		}
		s.observe(OutcomeError)
		return Result{}, fmt.Errorf("lookup coupon: %w", err)
	}

	discount, err := Check(*coupon, cartTotal, s.now())
	if err != nil {
		s.observe(OutcomeRejected)
		s.logger.Debug().Str("code", normalized).Err(err).Msg("coupon rejected")
		return Result{}, err
	}
	s.observe(OutcomeApplied)
	return Result{Coupon: *coupon, Discount: discount}, nil
}

// Redeem records one use of the coupon.
func (s *Service) Redeem(ctx context.Context, id string) error {
	if err := s.repo.IncrementUses(ctx, id); err != nil {
		return fmt.Errorf("redeem coupon: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]Coupon, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Coupon, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*Coupon, error) {
	params, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("coupon_id", created.ID).Str("code", created.Code).Msg("coupon created")
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*Coupon, error) {
	params, err := s.normalize(in)
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, params)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) normalize(in Input) (SaveParams, error) {
	if err := s.validator.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return SaveParams{}, ValidationError{Field: verrs[0].Field(), Message: verrs[0].Tag()}
		}
		return SaveParams{}, ValidationError{Field: "body", Message: err.Error()}
	}
	if DiscountType(in.DiscountType) == DiscountPercentage && in.DiscountValue > 100 {
		return SaveParams{}, ValidationError{Field: "discount_value", Message: "percentage cannot exceed 100"}
	}

	validUntil, err := ParseValidUntil(in.ValidUntil, s.now())
	if err != nil {
		return SaveParams{}, ValidationError{Field: "valid_until", Message: err.Error()}
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	return SaveParams{
		Code:              NormalizeCode(in.Code),
		Description:       in.Description,
		DiscountType:      DiscountType(in.DiscountType),
		DiscountValue:     in.DiscountValue,
		MinPurchaseAmount: in.MinPurchaseAmount,
		MaxUses:           in.MaxUses,
		ValidUntil:        validUntil,
		IsActive:          active,
	}, nil
}
