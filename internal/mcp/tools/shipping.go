package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/conectados420/storefront/internal/domain/regions"
	"github.com/conectados420/storefront/internal/domain/shipping"
)

type ShippingQuoter interface {
	Calculate(ctx context.Context, addr shipping.Address, cartTotal int64, opts shipping.QuoteOptions) (shipping.Quote, error)
	AvailableOptions(ctx context.Context, addr shipping.Address, cartTotal int64, opts shipping.QuoteOptions) ([]shipping.Option, error)
}

type ShippingTools struct {
	quoter ShippingQuoter
}

func NewShippingTools(quoter ShippingQuoter) *ShippingTools {
	return &ShippingTools{quoter: quoter}
}

func (t *ShippingTools) QuoteShippingTool() mcp.Tool {
	return mcp.Tool{
		Name:        "quote_shipping",
		Description: "Quote delivery to a Chilean comuna for a cart total in CLP. With all_options it returns standard, express and store pickup.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"comuna": map[string]interface{}{
					"type":        "string",
					"description": "Destination comuna, e.g. Providencia",
				},
				"region": map[string]interface{}{
					"type":        "string",
					"description": "Destination region; inferred from the comuna when omitted",
				},
				"cart_total": map[string]interface{}{
					"type":        "integer",
					"description": "Cart subtotal in CLP, used for free shipping thresholds",
				},
				"express": map[string]interface{}{
					"type":        "boolean",
					"description": "Quote express instead of standard delivery",
				},
				"all_options": map[string]interface{}{
					"type":        "boolean",
					"description": "Return every delivery option instead of a single quote",
				},
			},
			Required: []string{"comuna", "cart_total"},
		},
	}
}

func (t *ShippingTools) QuoteShippingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.quoter == nil {
		return mcp.NewToolResultError("shipping not configured"), nil
	}

	args := struct {
		Comuna     string `json:"comuna"`
		Region     string `json:"region"`
		CartTotal  int64  `json:"cart_total"`
		Express    bool   `json:"express"`
		AllOptions bool   `json:"all_options"`
	}{}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	if args.CartTotal < 0 {
		return mcp.NewToolResultError("cart_total must not be negative"), nil
	}

	addr := shipping.Address{Comuna: strings.TrimSpace(args.Comuna), Region: strings.TrimSpace(args.Region)}
	if addr.Region == "" {
		if region, ok := regions.RegionForComuna(addr.Comuna); ok {
			addr.Region = region
		}
	}

	if args.AllOptions {
		options, err := t.quoter.AvailableOptions(ctx, addr, args.CartTotal, shipping.QuoteOptions{})
		if err != nil {
			return quoteError(err), nil
		}
		return toolResultJSON(map[string]any{"address": addr, "options": options})
	}

	quote, err := t.quoter.Calculate(ctx, addr, args.CartTotal, shipping.QuoteOptions{Express: args.Express})
	if err != nil {
		return quoteError(err), nil
	}
	return toolResultJSON(map[string]any{
		"address": addr,
		"quote":   quote,
		"display": shipping.FormatInfo(quote),
	})
}

func quoteError(err error) *mcp.CallToolResult {
	if errors.Is(err, shipping.ErrIncompleteAddress) {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultErrorFromErr("failed to quote shipping", err)
}

func (t *ShippingTools) ListComunasTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_comunas",
		Description: "List Chilean regions, or the comunas of one region when a region is given.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"region": map[string]interface{}{
					"type":        "string",
					"description": "Region name; accents and case are ignored",
				},
			},
		},
	}
}

func (t *ShippingTools) ListComunasHandler(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := struct {
		Region string `json:"region"`
	}{}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	if strings.TrimSpace(args.Region) == "" {
		all := regions.Regions()
		names := make([]string, 0, len(all))
		for _, r := range all {
			names = append(names, r.Name)
		}
		return toolResultJSON(map[string]any{"regions": names})
	}

	comunas := regions.Comunas(args.Region)
	if comunas == nil {
		return mcp.NewToolResultError("unknown region: " + args.Region), nil
	}
	return toolResultJSON(map[string]any{"region": args.Region, "comunas": comunas})
}
