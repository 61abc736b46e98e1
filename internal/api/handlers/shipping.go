package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/conectados420/storefront/internal/api/problem"
	"github.com/conectados420/storefront/internal/audit"
	"github.com/conectados420/storefront/internal/domain/cart"
	"github.com/conectados420/storefront/internal/domain/shipping"
)

// ShippingQuoter is the calculator surface used by the public quote routes.
type ShippingQuoter interface {
	Calculate(ctx context.Context, addr shipping.Address, cartTotal int64, opts shipping.QuoteOptions) (shipping.Quote, error)
	AvailableOptions(ctx context.Context, addr shipping.Address, cartTotal int64, opts shipping.QuoteOptions) ([]shipping.Option, error)
}

// ZoneManager backs the admin shipping zone routes.
type ZoneManager interface {
	List(ctx context.Context) ([]shipping.Zone, error)
	Create(ctx context.Context, params shipping.ZoneParams) (*shipping.Zone, error)
	Update(ctx context.Context, id string, params shipping.ZoneParams) (*shipping.Zone, error)
	Delete(ctx context.Context, id string) error
}

type ShippingHandler struct {
	quoter      ShippingQuoter
	zones       ZoneManager
	auditLogger *audit.Logger
	env         string
}

func NewShippingHandler(quoter ShippingQuoter, zones ZoneManager, auditLogger *audit.Logger, env string) *ShippingHandler {
	return &ShippingHandler{quoter: quoter, zones: zones, auditLogger: auditLogger, env: env}
}

type quoteRequest struct {
	Comuna         string      `json:"comuna"`
	Region         string      `json:"region"`
	CartTotal      int64       `json:"cart_total"`
	ShippingOption string      `json:"shipping_option"`
	Items          []cart.Line `json:"items"`
}

func (req quoteRequest) address() shipping.Address {
	return shipping.Address{Comuna: strings.TrimSpace(req.Comuna), Region: strings.TrimSpace(req.Region)}
}

type quoteResponse struct {
	Quote shipping.Quote `json:"quote"`
	Info  shipping.Info  `json:"info"`
}

type shippingOptionResponse struct {
	shipping.Option
	Info shipping.Info `json:"info"`
}

func (h *ShippingHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}
	if req.CartTotal < 0 {
		validationFailed(w, r, "cart_total", "must not be negative", nil, h.env)
		return
	}

	var quote shipping.Quote
	switch req.ShippingOption {
	case shipping.OptionPickup:
		quote = shipping.PickupQuote()
	case "", shipping.OptionStandard, shipping.OptionExpress:
		var err error
		opts := shipping.QuoteOptions{Express: req.ShippingOption == shipping.OptionExpress, Items: req.Items}
		quote, err = h.quoter.Calculate(r.Context(), req.address(), req.CartTotal, opts)
		if err != nil {
			h.quoteError(w, r, err)
			return
		}
	default:
		validationFailed(w, r, "shipping_option", "must be standard, express or pickup", nil, h.env)
		return
	}

	writeJSON(w, http.StatusOK, quoteResponse{Quote: quote, Info: shipping.FormatInfo(quote)}, "")
}

func (h *ShippingHandler) Options(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}

	options, err := h.quoter.AvailableOptions(r.Context(), req.address(), req.CartTotal, shipping.QuoteOptions{Items: req.Items})
	if err != nil {
		h.quoteError(w, r, err)
		return
	}
	out := make([]shippingOptionResponse, 0, len(options))
	for _, opt := range options {
		out = append(out, shippingOptionResponse{Option: opt, Info: shipping.FormatInfo(opt.Quote)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": out}, "")
}

func (h *ShippingHandler) quoteError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shipping.ErrIncompleteAddress) {
		validationFailed(w, r, "address", err.Error(), err, h.env)
		return
	}
	serverError(w, r, err, h.env)
}

func (h *ShippingHandler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.zones.List(r.Context())
	if err != nil {
		serverError(w, r, err, h.env)
		return
	}
	if zones == nil {
		zones = []shipping.Zone{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": zones}, "")
}

func (h *ShippingHandler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var params shipping.ZoneParams
	if !decodeJSON(w, r, &params, h.env) {
		return
	}
	zone, err := h.zones.Create(r.Context(), params)
	if err != nil {
		h.zoneError(w, r, err)
		return
	}
	h.auditLogger.LogFromRequest(r, "shipping_zone.created", "shipping_zone", zone.ID, "success", map[string]string{
		"comuna": zone.Comuna,
		"region": zone.Region,
	})
	writeJSON(w, http.StatusCreated, zone, "")
}

func (h *ShippingHandler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	var params shipping.ZoneParams
	if !decodeJSON(w, r, &params, h.env) {
		return
	}
	zone, err := h.zones.Update(r.Context(), id, params)
	if err != nil {
		h.zoneError(w, r, err)
		return
	}
	h.auditLogger.LogFromRequest(r, "shipping_zone.updated", "shipping_zone", zone.ID, "success", nil)
	writeJSON(w, http.StatusOK, zone, "")
}

func (h *ShippingHandler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := h.zones.Delete(r.Context(), id); err != nil {
		h.zoneError(w, r, err)
		return
	}
	h.auditLogger.LogFromRequest(r, "shipping_zone.deleted", "shipping_zone", id, "success", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ShippingHandler) zoneError(w http.ResponseWriter, r *http.Request, err error) {
	var verr shipping.ValidationError
	switch {
	case errors.As(err, &verr):
		validationFailed(w, r, verr.Field, verr.Message, err, h.env)
	case errors.Is(err, shipping.ErrZoneNotFound):
		notFound(w, r, "Shipping zone not found", err, h.env)
	case errors.Is(err, shipping.ErrZoneExists):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Shipping zone already exists", err, h.env)
	default:
		serverError(w, r, err, h.env)
	}
}
