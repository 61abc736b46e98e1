package tools

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/conectados420/storefront/internal/api/handlers"
	"github.com/conectados420/storefront/internal/domain/catalog"
	"github.com/conectados420/storefront/internal/jsonld"
)

type ProductCatalog interface {
	List(ctx context.Context, filters catalog.Filters) ([]catalog.Product, error)
	GetBySlug(ctx context.Context, slug string) (*catalog.Product, error)
}

// CatalogTools exposes the public product catalog.
type CatalogTools struct {
	catalog    ProductCatalog
	serializer *jsonld.Serializer
	publicURL  string
}

func NewCatalogTools(catalog ProductCatalog, serializer *jsonld.Serializer, publicURL string) *CatalogTools {
	return &CatalogTools{catalog: catalog, serializer: serializer, publicURL: strings.TrimSpace(publicURL)}
}

func (t *CatalogTools) ListProductsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_products",
		Description: "List active products in the catalog, optionally filtered by category, brand, search text or featured flag. Prices are in CLP.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search text matched against name, brand and description",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Category slug",
				},
				"brand": map[string]interface{}{
					"type":        "string",
					"description": "Brand name",
				},
				"featured": map[string]interface{}{
					"type":        "boolean",
					"description": "Only featured products",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of products to return (default: 24, max: 100)",
					"default":     24,
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Number of products to skip",
				},
			},
		},
	}
}

func (t *CatalogTools) ListProductsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.catalog == nil {
		return mcp.NewToolResultError("catalog not configured"), nil
	}

	args := struct {
		Query    string `json:"query"`
		Category string `json:"category"`
		Brand    string `json:"brand"`
		Featured bool   `json:"featured"`
		Limit    int    `json:"limit"`
		Offset   int    `json:"offset"`
	}{}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	// Route through ParseFilters so limits match the HTTP listing.
	values := url.Values{}
	values.Set("q", args.Query)
	values.Set("category", args.Category)
	values.Set("brand", args.Brand)
	if args.Featured {
		values.Set("featured", "true")
	}
	if args.Limit > 0 {
		values.Set("limit", strconv.Itoa(args.Limit))
	}
	if args.Offset > 0 {
		values.Set("offset", strconv.Itoa(args.Offset))
	}
	filters, err := catalog.ParseFilters(values)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("invalid filters", err), nil
	}

	products, err := t.catalog.List(ctx, filters)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to list products", err), nil
	}

	items := make([]map[string]any, 0, len(products))
	for _, p := range products {
		items = append(items, map[string]any{
			"id":       p.ID,
			"slug":     p.Slug,
			"name":     p.Name,
			"brand":    p.Brand,
			"category": p.Category,
			"price":    catalog.EffectivePrice(p),
			"in_stock": p.Stock > 0,
		})
	}
	return toolResultJSON(map[string]any{"items": items, "count": len(items)})
}

func (t *CatalogTools) GetProductTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_product",
		Description: "Get a product by slug as a schema.org Product JSON-LD document.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"slug": map[string]interface{}{
					"type":        "string",
					"description": "Product slug, as shown in the product URL",
				},
			},
			Required: []string{"slug"},
		},
	}
}

func (t *CatalogTools) GetProductHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.catalog == nil {
		return mcp.NewToolResultError("catalog not configured"), nil
	}

	args := struct {
		Slug string `json:"slug"`
	}{}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	slug := strings.TrimSpace(args.Slug)
	if slug == "" {
		return mcp.NewToolResultError("slug is required"), nil
	}

	product, err := t.catalog.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return mcp.NewToolResultError("product not found"), nil
		}
		return mcp.NewToolResultErrorFromErr("failed to get product", err), nil
	}

	doc := handlers.ProductDocument(*product, t.publicURL)
	if t.serializer == nil {
		return toolResultJSON(doc)
	}
	compacted, err := t.serializer.Compact(doc)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to build JSON-LD", err), nil
	}
	return toolResultJSON(compacted)
}
