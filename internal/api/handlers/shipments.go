package handlers

import (
	"context"
	"errors"
	"mime"
	"net/http"

	"github.com/conectados420/storefront/internal/api/problem"
	"github.com/conectados420/storefront/internal/audit"
	"github.com/conectados420/storefront/internal/carrier/bluexpress"
	"github.com/conectados420/storefront/internal/domain/orders"
)

type ShipmentService interface {
	Book(ctx context.Context, orderID string) (*orders.BookedShipment, error)
	Track(ctx context.Context, trackingNumber string) (*bluexpress.Tracking, error)
	Cancel(ctx context.Context, shipmentID string) error
	Label(ctx context.Context, shipmentID string) ([]byte, error)
}

// ShipmentsHandler exposes the carrier booking operations to admins.
type ShipmentsHandler struct {
	service     ShipmentService
	auditLogger *audit.Logger
	env         string
}

func NewShipmentsHandler(service ShipmentService, auditLogger *audit.Logger, env string) *ShipmentsHandler {
	return &ShipmentsHandler{service: service, auditLogger: auditLogger, env: env}
}

func (h *ShipmentsHandler) Book(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	booked, err := h.service.Book(r.Context(), id)
	if err != nil {
		h.carrierError(w, r, err)
		return
	}
	h.auditLogger.LogFromRequest(r, "order.shipment_booked", "order", id, "success", map[string]string{
		"shipment_id":     booked.Shipment.ShipmentID,
		"tracking_number": booked.Shipment.TrackingNumber,
	})
	writeJSON(w, http.StatusCreated, booked, "")
}

func (h *ShipmentsHandler) Track(w http.ResponseWriter, r *http.Request) {
	tracking, err := h.service.Track(r.Context(), pathParam(r, "tracking"))
	if err != nil {
		h.carrierError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracking, "")
}

func (h *ShipmentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	if err := h.service.Cancel(r.Context(), id); err != nil {
		h.carrierError(w, r, err)
		return
	}
	h.auditLogger.LogFromRequest(r, "shipment.cancelled", "shipment", id, "success", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ShipmentsHandler) Label(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	label, err := h.service.Label(r.Context(), id)
	if err != nil {
		h.carrierError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": id + ".pdf"}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(label)
}

func (h *ShipmentsHandler) carrierError(w http.ResponseWriter, r *http.Request, err error) {
	var verr orders.ValidationError
	var cerr *bluexpress.Error
	switch {
	case errors.As(err, &verr):
		validationFailed(w, r, verr.Field, verr.Message, err, h.env)
	case errors.Is(err, orders.ErrNotFound):
		notFound(w, r, "Order not found", err, h.env)
	case errors.Is(err, orders.ErrAlreadyShipped):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Order already shipped", err, h.env)
	case errors.Is(err, bluexpress.ErrNotConfigured):
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Carrier integration not configured", err, h.env)
	case errors.As(err, &cerr):
		problem.Write(w, r, http.StatusBadGateway, problem.TypeUnavailable, "Carrier request failed", err, h.env)
	default:
		serverError(w, r, err, h.env)
	}
}
