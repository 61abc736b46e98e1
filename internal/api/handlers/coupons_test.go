package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conectados420/storefront/internal/domain/coupons"
)

type stubCoupons struct {
	result  coupons.Result
	err     error
	code    string
	total   int64
	deleted string
}

func (s *stubCoupons) Validate(_ context.Context, code string, total int64) (coupons.Result, error) {
	s.code, s.total = code, total
	return s.result, s.err
}

func (s *stubCoupons) List(context.Context) ([]coupons.Coupon, error) { return nil, s.err }

func (s *stubCoupons) Get(_ context.Context, id string) (*coupons.Coupon, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &coupons.Coupon{ID: id, Code: "BIENVENIDA"}, nil
}

func (s *stubCoupons) Create(_ context.Context, in coupons.Input) (*coupons.Coupon, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &coupons.Coupon{ID: "c1", Code: coupons.NormalizeCode(in.Code), DiscountType: coupons.DiscountType(in.DiscountType)}, nil
}

func (s *stubCoupons) Update(_ context.Context, id string, in coupons.Input) (*coupons.Coupon, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &coupons.Coupon{ID: id, Code: coupons.NormalizeCode(in.Code)}, nil
}

func (s *stubCoupons) Delete(_ context.Context, id string) error {
	s.deleted = id
	return s.err
}

func TestValidateCoupon(t *testing.T) {
	svc := &stubCoupons{result: coupons.Result{
		Coupon:   coupons.Coupon{ID: "c1", Code: "VERANO10", DiscountType: coupons.DiscountPercentage, DiscountValue: 10},
		Discount: 2500,
	}}
	h := NewCouponsHandler(svc, nil, "test")

	w := httptest.NewRecorder()
	h.Validate(w, postJSON("/api/v1/coupons/validate", `{"code":"verano10","cart_total":25000}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "verano10", svc.code)
	assert.EqualValues(t, 25000, svc.total)
	assert.Contains(t, w.Body.String(), `"valid":true`)
	assert.Contains(t, w.Body.String(), `"discount":2500`)
	assert.Contains(t, w.Body.String(), `"code":"VERANO10"`)
}

func TestValidateCouponRejected(t *testing.T) {
	h := NewCouponsHandler(&stubCoupons{err: &coupons.RejectionError{Reason: coupons.ReasonExpired}}, nil, "test")

	w := httptest.NewRecorder()
	h.Validate(w, postJSON("/api/v1/coupons/validate", `{"code":"VIEJO","cart_total":25000}`))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"valid":false,"error":"Este cupón ha expirado"}`, w.Body.String())
}

func TestValidateCouponServerError(t *testing.T) {
	h := NewCouponsHandler(&stubCoupons{err: assert.AnError}, nil, "test")

	w := httptest.NewRecorder()
	h.Validate(w, postJSON("/api/v1/coupons/validate", `{"code":"X","cart_total":1}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCouponsAdmin(t *testing.T) {
	svc := &stubCoupons{}
	auditLogger, buf := captureAudit()
	h := NewCouponsHandler(svc, auditLogger, "test")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /coupons", h.List)
	mux.HandleFunc("POST /coupons", h.Create)
	mux.HandleFunc("GET /coupons/{id}", h.Get)
	mux.HandleFunc("DELETE /coupons/{id}", h.Delete)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, adminRequest(postJSON("/coupons", `{"code":"verano10","discount_type":"percentage","discount_value":10}`)))
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"VERANO10"`)
	assert.Contains(t, buf.String(), "coupon.created")

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/coupons", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[]}`, w.Body.String())

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/coupons/c9", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"c9"`)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, adminRequest(httptest.NewRequest(http.MethodDelete, "/coupons/c9", nil)))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "c9", svc.deleted)
	assert.Contains(t, buf.String(), "coupon.deleted")
}

func TestCouponsAdminErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: coupons.ValidationError{Field: "code", Message: "min"}, status: http.StatusBadRequest},
		{name: "missing", err: coupons.ErrNotFound, status: http.StatusNotFound},
		{name: "duplicate code", err: coupons.ErrCodeTaken, status: http.StatusConflict},
		{name: "database", err: assert.AnError, status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCouponsHandler(&stubCoupons{err: tt.err}, nil, "test")
			mux := http.NewServeMux()
			mux.HandleFunc("PUT /coupons/{id}", h.Update)

			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/coupons/c1", postJSON("/", `{"code":"ABC"}`).Body))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
