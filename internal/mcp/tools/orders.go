package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/conectados420/storefront/internal/domain/orders"
)

type OrderReader interface {
	Get(ctx context.Context, id string) (*orders.Order, error)
}

type OrderTools struct {
	orders OrderReader
}

func NewOrderTools(reader OrderReader) *OrderTools {
	return &OrderTools{orders: reader}
}

func (t *OrderTools) GetOrderStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_order_status",
		Description: "Get the public status of an order: order and payment status, totals, items and tracking number. Customer contact details are never returned.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Full order UUID",
				},
			},
			Required: []string{"id"},
		},
	}
}

func (t *OrderTools) GetOrderStatusHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t == nil || t.orders == nil {
		return mcp.NewToolResultError("orders not configured"), nil
	}

	args := struct {
		ID string `json:"id"`
	}{}
	if err := decodeArgs(request, &args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
	}
	id := strings.TrimSpace(args.ID)
	if _, err := uuid.Parse(id); err != nil {
		return mcp.NewToolResultError("id must be a full order UUID"), nil
	}

	order, err := t.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return mcp.NewToolResultError("order not found"), nil
		}
		return mcp.NewToolResultErrorFromErr("failed to get order", err), nil
	}
	return toolResultJSON(order.Public())
}
