package handlers

import (
	"errors"
	"net/http"

	"github.com/conectados420/storefront/internal/api/middleware"
	"github.com/conectados420/storefront/internal/api/problem"
	"github.com/conectados420/storefront/internal/api/render"
	"github.com/conectados420/storefront/internal/domain/catalog"
	"github.com/conectados420/storefront/internal/jsonld"
	"github.com/conectados420/storefront/internal/jsonld/schema"
)

type CatalogHandler struct {
	Service    *catalog.Service
	Serializer *jsonld.Serializer
	PublicURL  string
	Env        string
}

func NewCatalogHandler(service *catalog.Service, serializer *jsonld.Serializer, publicURL, env string) *CatalogHandler {
	return &CatalogHandler{Service: service, Serializer: serializer, PublicURL: publicURL, Env: env}
}

type productListResponse struct {
	Items  []catalog.Product `json:"items"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, err := catalog.ParseFilters(r.URL.Query())
	if err != nil {
		var fe catalog.FilterError
		if errors.As(err, &fe) {
			validationFailed(w, r, fe.Field, fe.Message, err, h.Env)
			return
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, h.Env)
		return
	}

	items, err := h.Service.List(r.Context(), filters)
	if err != nil {
		serverError(w, r, err, h.Env)
		return
	}
	if items == nil {
		items = []catalog.Product{}
	}
	writeJSON(w, http.StatusOK, productListResponse{Items: items, Limit: filters.Limit, Offset: filters.Offset}, "")
}

// Get serves a product as plain JSON, compacted schema.org JSON-LD, N-Quads
// or an HTML page depending on the negotiated representation.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	slug := pathParam(r, "slug")
	if slug == "" {
		validationFailed(w, r, "slug", "slug is required", nil, h.Env)
		return
	}

	product, err := h.Service.GetBySlug(r.Context(), slug)
	if errors.Is(err, catalog.ErrNotFound) {
		notFound(w, r, "Product not found", err, h.Env)
		return
	}
	if err != nil {
		serverError(w, r, err, h.Env)
		return
	}

	switch middleware.NegotiatedContentType(r) {
	case middleware.ContentJSONLD:
		doc, err := h.Serializer.Compact(ProductDocument(*product, h.PublicURL))
		if err != nil {
			serverError(w, r, err, h.Env)
			return
		}
		writeJSON(w, http.StatusOK, doc, middleware.ContentJSONLD)
	case middleware.ContentNQuads:
		quads, err := h.Serializer.NQuads(ProductDocument(*product, h.PublicURL))
		if err != nil {
			serverError(w, r, err, h.Env)
			return
		}
		w.Header().Set("Content-Type", middleware.ContentNQuads)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(quads))
	case middleware.ContentHTML:
		product := ProductDocument(*product, h.PublicURL)
		doc, err := h.Serializer.Compact(product)
		if err != nil {
			serverError(w, r, err, h.Env)
			return
		}
		page, err := render.ProductHTML(product, doc)
		if err != nil {
			serverError(w, r, err, h.Env)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(page))
	default:
		writeJSON(w, http.StatusOK, product, "")
	}
}

// ProductDocument maps a catalog product onto schema.org Product.
func ProductDocument(p catalog.Product, publicURL string) *schema.Product {
	uri := schema.ProductURI(publicURL, p.Slug)
	doc := schema.NewProduct(p.Name)
	doc.ID = uri
	doc.URL = uri
	doc.SKU = p.ID
	doc.Description = p.Description
	doc.Image = p.ImageURL
	doc.Category = p.Category
	if p.Brand != "" {
		doc.Brand = schema.NewBrand(p.Brand)
	}
	if p.WeightKg != nil && *p.WeightKg > 0 {
		doc.Weight = schema.NewWeightKg(*p.WeightKg)
	}
	doc.Offers = schema.NewOffer(catalog.EffectivePrice(p), p.Stock > 0, uri)
	return doc
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Categories(r.Context())
	if err != nil {
		serverError(w, r, err, h.Env)
		return
	}
	if items == nil {
		items = []catalog.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items}, "")
}

func (h *CatalogHandler) Brands(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Brands(r.Context())
	if err != nil {
		serverError(w, r, err, h.Env)
		return
	}
	if items == nil {
		items = []catalog.Brand{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items}, "")
}
