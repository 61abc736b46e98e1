package handlers

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/conectados420/storefront/internal/api/problem"
	"github.com/conectados420/storefront/internal/audit"
	"github.com/conectados420/storefront/internal/domain/coupons"
	"github.com/conectados420/storefront/internal/domain/orders"
	"github.com/conectados420/storefront/internal/domain/shipping"
)

type OrderService interface {
	Create(ctx context.Context, in orders.CheckoutInput) (*orders.Order, error)
	Get(ctx context.Context, id string) (*orders.Order, error)
	List(ctx context.Context, filters orders.Filters) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*orders.Order, error)
	SetTracking(ctx context.Context, id, tracking string) (*orders.Order, error)
	Archive(ctx context.Context, ids []string) (int64, error)
	Unarchive(ctx context.Context, ids []string) (int64, error)
	Delete(ctx context.Context, ids []string) (int64, error)
	PurgeTestOrders(ctx context.Context) (orders.PurgeResult, error)
	ShippingQueue(ctx context.Context) ([]orders.Order, error)
	BulkMarkShipped(ctx context.Context, ids []string) (int64, error)
	ExportShipments(ctx context.Context, ids []string, archiver orders.Archiver) (*orders.Export, error)
	ImportTracking(ctx context.Context, r io.Reader) (orders.ImportResult, error)
	Dashboard(ctx context.Context) (*orders.Dashboard, error)
	Receipt(ctx context.Context, id string) (*orders.Receipt, error)
}

type OrdersHandler struct {
	service     OrderService
	archiver    orders.Archiver
	auditLogger *audit.Logger
	env         string
}

// NewOrdersHandler wires the order routes. archiver may be nil, in which
// case exports are never archived.
func NewOrdersHandler(service OrderService, archiver orders.Archiver, auditLogger *audit.Logger, env string) *OrdersHandler {
	return &OrdersHandler{service: service, archiver: archiver, auditLogger: auditLogger, env: env}
}

type checkoutResponse struct {
	Order     *orders.Order `json:"order"`
	Reference string        `json:"reference"`
	Total     int64         `json:"total"`
}

// Checkout creates a pending order from the cart. Prices, discount and
// shipping are computed server-side.
func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var in orders.CheckoutInput
	if !decodeJSON(w, r, &in, h.env) {
		return
	}

	order, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.checkoutError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResponse{
		Order:     order,
		Reference: order.Reference(),
		Total:     order.GrandTotal(),
	}, "")
}

func (h *OrdersHandler) checkoutError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr      orders.ValidationError
		rejection *coupons.RejectionError
	)
	switch {
	case errors.As(err, &verr):
		validationFailed(w, r, verr.Field, verr.Message, err, h.env)
	case errors.As(err, &rejection):
		validationFailed(w, r, "coupon_code", rejection.Reason, err, h.env)
	case errors.Is(err, orders.ErrEmptyCart):
		validationFailed(w, r, "items", "cart is empty", err, h.env)
	case errors.Is(err, shipping.ErrIncompleteAddress):
		validationFailed(w, r, "shipping_address", err.Error(), err, h.env)
	case errors.Is(err, orders.ErrProductUnavailable):
		problem.Write(w, r, http.StatusConflict, problem.TypeConflict, "Product unavailable", err, h.env,
			problem.WithDetail(err.Error()))
	default:
		serverError(w, r, err, h.env)
	}
}

func (h *OrdersHandler) Status(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order.Public(), "")
}

// Receipt serves the voucher without customer contact data.
func (h *OrdersHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.service.Receipt(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt.Public(), "")
}

func (h *OrdersHandler) AdminReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.service.Receipt(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt, "")
}

func (h *OrdersHandler) AdminGet(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), pathParam(r, "id"))
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order, "")
}

func parseOrderFilters(r *http.Request) (orders.Filters, error) {
	q := r.URL.Query()
	filters := orders.Filters{
		Status: strings.TrimSpace(q.Get("status")),
		Query:  strings.TrimSpace(q.Get("q")),
	}
	if raw := q.Get("archived"); raw != "" {
		archived, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, orders.ValidationError{Field: "archived", Message: "must be true or false"}
		}
		filters.Archived = archived
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filters, orders.ValidationError{Field: "limit", Message: "must be a positive integer"}
		}
		filters.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filters, orders.ValidationError{Field: "offset", Message: "must be a non-negative integer"}
		}
		filters.Offset = offset
	}
	return filters, nil
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := parseOrderFilters(r)
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	items, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	if items == nil {
		items = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items}, "")
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	var req statusRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}
	order, err := h.service.UpdateStatus(r.Context(), id, strings.TrimSpace(req.Status))
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	h.auditLogger.LogFromRequest(r, "order.status_changed", "order", id, "success", map[string]string{"status": order.Status})
	writeJSON(w, http.StatusOK, order, "")
}

type trackingRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

func (h *OrdersHandler) SetTracking(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r, "id")
	var req trackingRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}
	order, err := h.service.SetTracking(r.Context(), id, req.TrackingNumber)
	if err != nil {
		h.orderError(w, r, err)
		return
	}
	h.auditLogger.LogFromRequest(r, "order.tracking_set", "order", id, "success", map[string]string{"tracking_number": order.TrackingNumber})
	writeJSON(w, http.StatusOK, order, "")
}

// bulk runs one of the id-list admin actions and audits it.
func (h *OrdersHandler) bulk(action string, run func(context.Context, []string) (int64, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req idsRequest
		if !decodeJSON(w, r, &req, h.env) {
			return
		}
		ids := req.clean()
		if len(ids) == 0 {
			validationFailed(w, r, "ids", "required", nil, h.env)
			return
		}
		n, err := run(r.Context(), ids)
		if err != nil {
			h.orderError(w, r, err)
			return
		}
		h.auditLogger.LogFromRequest(r, action, "order", strings.Join(ids, ","), "success", map[string]string{
			"count": strconv.FormatInt(n, 10),
		})
		writeJSON(w, http.StatusOK, countResponse{Count: n}, "")
	}
}

func (h *OrdersHandler) Archive() http.HandlerFunc {
	return h.bulk("order.archived", h.service.Archive)
}

func (h *OrdersHandler) Unarchive() http.HandlerFunc {
	return h.bulk("order.unarchived", h.service.Unarchive)
}

func (h *OrdersHandler) Delete() http.HandlerFunc {
	return h.bulk("order.deleted", h.service.Delete)
}

func (h *OrdersHandler) MarkShipped() http.HandlerFunc {
	return h.bulk("order.marked_shipped", h.service.BulkMarkShipped)
}

func (h *OrdersHandler) Queue(w http.ResponseWriter, r *http.Request) {
	queue, err := h.service.ShippingQueue(r.Context())
	if err != nil {
		serverError(w, r, err, h.env)
		return
	}
	if queue == nil {
		queue = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": queue}, "")
}

type exportRequest struct {
	IDs     []string `json:"ids"`
	Archive bool     `json:"archive"`
}

// Export downloads the carrier CSV for the shipping queue, or for the
// selected orders when ids are given.
func (h *OrdersHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req, h.env) {
		return
	}

	var archiver orders.Archiver
	if req.Archive {
		if h.archiver == nil {
			problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Export archive not configured", nil, h.env)
			return
		}
		archiver = h.archiver
	}

	export, err := h.service.ExportShipments(r.Context(), idsRequest{IDs: req.IDs}.clean(), archiver)
	if errors.Is(err, orders.ErrNothingToShip) {
		notFound(w, r, "No orders to export", err, h.env)
		return
	}
	if err != nil {
		serverError(w, r, err, h.env)
		return
	}

	details := map[string]string{"orders": strconv.Itoa(export.Orders)}
	if export.ArchiveKey != "" {
		details["archive_key"] = export.ArchiveKey
		w.Header().Set("X-Archive-Key", export.ArchiveKey)
	}
	h.auditLogger.LogFromRequest(r, "order.exported", "order", export.Filename, "success", details)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Body)
}

// ImportTracking accepts the carrier CSV as a multipart "file" field or as
// the raw request body.
func (h *OrdersHandler) ImportTracking(w http.ResponseWriter, r *http.Request) {
	body := io.Reader(r.Body)
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeValidation, "Request body too large", err, h.env)
				return
			}
			validationFailed(w, r, "file", "a CSV file is required", err, h.env)
			return
		}
		defer func() { _ = file.Close() }()
		body = file
	}

	result, err := h.service.ImportTracking(r.Context(), body)
	switch {
	case errors.Is(err, orders.ErrEmptyFile):
		validationFailed(w, r, "file", "file is empty", err, h.env)
		return
	case errors.Is(err, orders.ErrMissingColumns):
		validationFailed(w, r, "file", err.Error(), err, h.env)
		return
	case err != nil:
		serverError(w, r, err, h.env)
		return
	}

	h.auditLogger.LogFromRequest(r, "order.tracking_imported", "order", "", "success", map[string]string{
		"updated": strconv.Itoa(result.Updated),
		"errors":  strconv.Itoa(result.Errors),
		"total":   strconv.Itoa(result.Total),
	})
	writeJSON(w, http.StatusOK, result, "")
}

func (h *OrdersHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		serverError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, dashboard, "")
}

func (h *OrdersHandler) PurgeTest(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.PurgeTestOrders(r.Context())
	if err != nil {
		h.auditLogger.LogFromRequest(r, "order.purged", "order", "", "failure", nil)
		serverError(w, r, err, h.env)
		return
	}
	h.auditLogger.LogFromRequest(r, "order.purged", "order", "", "success", map[string]string{
		"orders":       strconv.FormatInt(result.Orders, 10),
		"order_items":  strconv.FormatInt(result.Items, 10),
		"payment_logs": strconv.FormatInt(result.PaymentLogs, 10),
	})
	writeJSON(w, http.StatusOK, result, "")
}

func (h *OrdersHandler) orderError(w http.ResponseWriter, r *http.Request, err error) {
	var verr orders.ValidationError
	switch {
	case errors.As(err, &verr):
		validationFailed(w, r, verr.Field, verr.Message, err, h.env)
	case errors.Is(err, orders.ErrInvalidStatus):
		validationFailed(w, r, "status", "unknown order status", err, h.env)
	case errors.Is(err, orders.ErrNotFound):
		notFound(w, r, "Order not found", err, h.env)
	default:
		serverError(w, r, err, h.env)
	}
}
