package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/conectados420/storefront/internal/api/problem"
	"github.com/conectados420/storefront/internal/audit"
	"github.com/conectados420/storefront/internal/domain/coupons"
)

type CouponService interface {
	Validate(ctx context.Context, code string, cartTotal int64) (coupons.Result, error)
	List(ctx context.Context) ([]coupons.Coupon, error)
	Get(ctx context.Context, id string) (*coupons.Coupon, error)
	Create(ctx context.Context, in coupons.Input) (*coupons.Coupon, error)
	Update(ctx context.Context, id string, in coupons.Input) (*coupons.Coupon, error)
	Delete(ctx context.Context, id string) error
}

type CouponsHandler struct {
	service     CouponService
	auditLogger *audit.Logger
	env         string
}

func NewCouponsHandler(service CouponService, auditLogger *audit.Logger, env string) *CouponsHandler {
	return &CouponsHandler{service: service, auditLogger: auditLogger, env: env}
}

type validateCouponRequest struct {
	Code      string `json:"code"`
	CartTotal int64  `json:"cart_total"`
}

// validateCouponResponse is read by the checkout page; rejections are 200s
// with valid=false and the reason in error.
type validateCouponResponse struct {
	Valid    bool            `json:"valid"`
	Discount int64           `json:"discount,omitempty"`
	Coupon   *coupons.Coupon `json:"coupon,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func (h *CouponsHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}

	result, err := h.service.Validate(r.Context(), req.Code, req.CartTotal)
	var rejection *coupons.RejectionError
	switch {
	case errors.As(err, &rejection):
		writeJSON(w, http.StatusOK, validateCouponResponse{Valid: false, Error: rejection.Reason}, "")
		return
	case err != nil:
		serverError(w, r, err, h.env)
		return
	}

	writeJSON(w, http.StatusOK, validateCouponResponse{Valid: true, Discount: result.Discount, Coupon: &result.Coupon}, "")
}

func (h *CouponsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		serverError(w, r, err, h.env)
		return
	}
	if items == nil {
		items = []coupons.Coupon{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items}, "")
}

func (h *CouponsHandler) Get(w http.ResponseWriter, r *http.Request) {
	coupon, err := h.service.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.adminError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, coupon, "")
}

func (h *CouponsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in coupons.Input
	if !decodeJSON(w, r, &in, h.env) {
		return
	}
	coupon, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.adminError(w, r, err)
		return
	}
	h.auditLogger.LogFromRequest(r, "coupon.created", "coupon", coupon.ID, "success", map[string]string{"code": coupon.Code})
	writeJSON(w, http.StatusCreated, coupon, "")
}

func (h *CouponsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	var in coupons.Input
	if !decodeJSON(w, r, &in, h.env) {
		return
	}
	coupon, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.adminError(w, r, err)
		return
	}
	h.auditLogger.LogFromRequest(r, "coupon.updated", "coupon", coupon.ID, "success", map[string]string{"code": coupon.Code})
	writeJSON(w, http.StatusOK, coupon, "")
}

func (h *CouponsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.adminError(w, r, err)
		return
	}
	h.auditLogger.LogFromRequest(r, "coupon.deleted", "coupon", id, "success", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *CouponsHandler) adminError(w http.ResponseWriter, r *http.Request, err error) {
	var verr coupons.ValidationError
	switch {
	case errors.As(err, &verr):
		validationFailed(w, r, verr.Field, verr.Message, err, h.env)
	case errors.Is(err, coupons.ErrNotFound):
		notFound(w, r, "Coupon not found", err, h.env)
	case errors.Is(err, coupons.ErrCodeTaken):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Coupon code already exists", err, h.env)
	default:
		serverError(w, r, err, h.env)
	}
}
