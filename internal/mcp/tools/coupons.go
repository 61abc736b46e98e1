package tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/conectados420/storefront/internal/domain/coupons"
)

type CouponValidator interface {
	Validate(ctx context.Context, code string, cartTotal int64) (coupons.Result, error)
}

type CouponTools struct {
	validator CouponValidator
}

func NewCouponTools(validator CouponValidator) *CouponTools {
	return &CouponTools{validator: validator}
}

func (t *CouponTools) ValidateCouponTool() mcp.Tool {
	return mcp.Tool{
		Name:        "validate_coupon",
		Description: "Check a coupon code against a cart total in CLP and return the discount it would apply. Does not redeem the coupon.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": map[string]interface{}{
					"type":        "string",
					"description": "Coupon code; case is ignored",
				},
				"cart_total": map[string]interface{}{
					"type":        "integer",
					"description": "Cart subtotal in CLP",
				},
			},
			Required: []string{"code", "cart_total"},
		},
	}
}

func (t *CouponTools) ValidateCouponHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.validator == nil {
		return mcp.NewToolResultError("coupons not configured"), nil
	}

	args := struct {
		Code      string `json:"code"`
		CartTotal int64  `json:"cart_total"`
	}{}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}

	result, err := t.validator.Validate(ctx, args.Code, args.CartTotal)
	var rejection *coupons.RejectionError
	switch {
	case errors.As(err, &rejection):
		return toolResultJSON(map[string]any{"valid": false, "error": rejection.Reason})
	case err != nil:
		return mcp.NewToolResultErrorFromErr("failed to validate coupon", err), nil
	}
	return toolResultJSON(map[string]any{
		"valid":    true,
		"discount": result.Discount,
		"coupon":   result.Coupon,
	})
}
