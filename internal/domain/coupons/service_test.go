package coupons

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	coupons   map[string]Coupon
	lookupErr error
	created   []SaveParams
	redeemed  []string
}

func (s *stubRepo) GetActiveByCode(_ context.Context, code string) (*Coupon, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	c, ok := s.coupons[code]
	if !ok || !c.IsActive {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (s *stubRepo) Get(_ context.Context, id string) (*Coupon, error) {
	for _, c := range s.coupons {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *stubRepo) List(context.Context) ([]Coupon, error) { return nil, nil }

func (s *stubRepo) Create(_ context.Context, params SaveParams) (*Coupon, error) {
	s.created = append(s.created, params)
	return &Coupon{ID: "new", Code: params.Code, DiscountType: params.DiscountType, DiscountValue: params.DiscountValue, ValidUntil: params.ValidUntil, IsActive: params.IsActive}, nil
}

func (s *stubRepo) Update(_ context.Context, id string, params SaveParams) (*Coupon, error) {
	return &Coupon{ID: id, Code: params.Code}, nil
}

func (s *stubRepo) Delete(context.Context, string) error { return nil }

func (s *stubRepo) IncrementUses(_ context.Context, id string) error {
	s.redeemed = append(s.redeemed, id)
	return nil
}

func ptr[T any](v T) *T { return &v }

var fixedNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(repo Repository) *Service {
	svc := NewService(repo, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestValidate(t *testing.T) {
	repo := &stubRepo{coupons: map[string]Coupon{
		"VERANO10": {ID: "1", Code: "VERANO10", DiscountType: DiscountPercentage, DiscountValue: 10, IsActive: true},
		"FIJO5000": {ID: "2", Code: "FIJO5000", DiscountType: DiscountFixed, DiscountValue: 5000, IsActive: true},
		"VENCIDO":  {ID: "3", Code: "VENCIDO", DiscountType: DiscountFixed, DiscountValue: 1000, IsActive: true, ValidUntil: ptr(fixedNow.Add(-time.Hour)), MaxUses: ptr(1), UsesCount: 1},
		"AGOTADO":  {ID: "4", Code: "AGOTADO", DiscountType: DiscountFixed, DiscountValue: 1000, IsActive: true, MaxUses: ptr(5), UsesCount: 5, MinPurchaseAmount: ptr(int64(999999))},
		"MINIMO":   {ID: "5", Code: "MINIMO", DiscountType: DiscountFixed, DiscountValue: 1000, IsActive: true, MinPurchaseAmount: ptr(int64(20000))},
		"INACTIVO": {ID: "6", Code: "INACTIVO", DiscountType: DiscountFixed, DiscountValue: 1000, IsActive: false},
		"FUTURO":   {ID: "7", Code: "FUTURO", DiscountType: DiscountPercentage, DiscountValue: 15, IsActive: true, ValidUntil: ptr(fixedNow.Add(time.Hour))},
	}}
	svc := newTestService(repo)

	tests := []struct {
		name     string
		code     string
		total    int64
		discount int64
		reason   string
	}{
		{name: "percentage rounds", code: " verano10 ", total: 12345, discount: 1235},
		{name: "fixed", code: "FIJO5000", total: 30000, discount: 5000},
		{name: "fixed capped at cart total", code: "FIJO5000", total: 3000, discount: 3000},
		{name: "unknown code", code: "NOPE", total: 10000, reason: ReasonInvalid},
		{name: "blank code", code: "   ", total: 10000, reason: ReasonInvalid},
		{name: "inactive code", code: "INACTIVO", total: 10000, reason: ReasonInvalid},
		{name: "expiry checked before max uses", code: "VENCIDO", total: 10000, reason: ReasonExpired},
		{name: "max uses checked before minimum", code: "AGOTADO", total: 10000, reason: ReasonMaxUses},
		{name: "minimum purchase", code: "MINIMO", total: 19999, reason: "Compra mínima: $20.000"},
		{name: "minimum purchase met", code: "MINIMO", total: 20000, discount: 1000},
		{name: "not yet expired", code: "FUTURO", total: 10000, discount: 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Validate(context.Background(), tt.code, tt.total)
			if tt.reason != "" {
				require.ErrorIs(t, err, ErrRejected)
				var rejection *RejectionError
				require.ErrorAs(t, err, &rejection)
				require.Equal(t, tt.reason, rejection.Reason)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.discount, result.Discount)
		})
	}
}

func TestValidateLookupErrorIsNotRejection(t *testing.T) {
	svc := newTestService(&stubRepo{lookupErr: errors.New("connection reset")})

	_, err := svc.Validate(context.Background(), "ANY", 1000)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrRejected))
}

func TestValidateReportsOutcomes(t *testing.T) {
	var outcomes []string
	repo := &stubRepo{coupons: map[string]Coupon{
		"OK": {ID: "1", Code: "OK", DiscountType: DiscountFixed, DiscountValue: 100, IsActive: true},
	}}
	svc := newTestService(repo).WithObserver(func(o string) { outcomes = append(outcomes, o) })

	_, _ = svc.Validate(context.Background(), "OK", 1000)
	_, _ = svc.Validate(context.Background(), "NO", 1000)
	require.Equal(t, []string{OutcomeApplied, OutcomeRejected}, outcomes)
}

func TestRedeem(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)
	require.NoError(t, svc.Redeem(context.Background(), "c1"))
	require.Equal(t, []string{"c1"}, repo.redeemed)
}

func TestCreateNormalizesInput(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), Input{
		Code:          " navidad ",
		DiscountType:  "percentage",
		DiscountValue: 20,
		ValidUntil:    "2026-12-31",
	})
	require.NoError(t, err)
	require.Equal(t, "NAVIDAD", created.Code)
	require.True(t, created.IsActive)
	require.NotNil(t, created.ValidUntil)
	require.Equal(t, 31, created.ValidUntil.Day())
	require.Equal(t, time.December, created.ValidUntil.Month())
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := newTestService(&stubRepo{})

	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{name: "missing code", in: Input{DiscountType: "fixed", DiscountValue: 1}, field: "Code"},
		{name: "bad type", in: Input{Code: "ABC", DiscountType: "bogus", DiscountValue: 1}, field: "DiscountType"},
		{name: "percentage over 100", in: Input{Code: "ABC", DiscountType: "percentage", DiscountValue: 150}, field: "discount_value"},
		{name: "bad date", in: Input{Code: "ABC", DiscountType: "fixed", DiscountValue: 1, ValidUntil: "not a date at all"}, field: "valid_until"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestParseValidUntil(t *testing.T) {
	got, err := ParseValidUntil("", fixedNow)
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = ParseValidUntil("2026-07-01T10:00:00Z", fixedNow)
	require.NoError(t, err)
	require.True(t, got.Equal(time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)))

	got, err = ParseValidUntil("31/12/2026", fixedNow)
	require.NoError(t, err)
	require.Equal(t, 2026, got.Year())
	require.Equal(t, time.December, got.Month())
	require.Equal(t, 31, got.Day())
	require.Equal(t, 23, got.Hour())
}

func TestDiscountNeverNegativeOrAboveTotal(t *testing.T) {
	require.Zero(t, Discount(Coupon{DiscountType: DiscountFixed, DiscountValue: 500}, 0))
	require.Equal(t, int64(1000), Discount(Coupon{DiscountType: DiscountPercentage, DiscountValue: 100}, 1000))
	require.Zero(t, Discount(Coupon{DiscountType: "other", DiscountValue: 500}, 1000))
}
