package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	orderSupportPrompt = "order_support"
	productCopyPrompt  = "product_copy"
	shippingHelpPrompt = "shipping_help"
)

type PromptTemplates struct{}

func NewPromptTemplates() *PromptTemplates {
	return &PromptTemplates{}
}

func (p *PromptTemplates) OrderSupportPrompt() mcp.Prompt {
	return mcp.NewPrompt(
		orderSupportPrompt,
		mcp.WithPromptDescription("Draft a reply to a customer question about an order"),
		mcp.WithArgument("order_id", mcp.ArgumentDescription("Full order UUID"), mcp.RequiredArgument()),
		mcp.WithArgument("question", mcp.ArgumentDescription("The customer's message")),
	)
}

func (p *PromptTemplates) ProductCopyPrompt() mcp.Prompt {
	return mcp.NewPrompt(
		productCopyPrompt,
		mcp.WithPromptDescription("Write a catalog description for a product"),
		mcp.WithArgument("name", mcp.ArgumentDescription("Product name"), mcp.RequiredArgument()),
		mcp.WithArgument("brand", mcp.ArgumentDescription("Brand")),
		mcp.WithArgument("category", mcp.ArgumentDescription("Catalog category")),
		mcp.WithArgument("notes", mcp.ArgumentDescription("Materials, sizes or other facts to include")),
	)
}

func (p *PromptTemplates) ShippingHelpPrompt() mcp.Prompt {
	return mcp.NewPrompt(
		shippingHelpPrompt,
		mcp.WithPromptDescription("Explain delivery options and costs to a comuna"),
		mcp.WithArgument("comuna", mcp.ArgumentDescription("Destination comuna"), mcp.RequiredArgument()),
		mcp.WithArgument("cart_total", mcp.ArgumentDescription("Cart subtotal in CLP")),
	)
}

func (p *PromptTemplates) OrderSupportHandler(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	orderID := getArgString(args, "order_id")
	if orderID == "" {
		return nil, fmt.Errorf("order_id is required")
	}
	question := getArgString(args, "question")
	if question == "" {
		question = "(no message; summarize the order status)"
	}

	text := fmt.Sprintf("A customer wrote about order %s. Call get_order_status with that id, then draft a short, friendly reply in Chilean Spanish. "+
		"Quote the order reference, status and tracking number when present. Never ask for or repeat payment details.\n\nCustomer message:\n%s", orderID, question)

	return userPrompt("Reply to a customer about their order", text), nil
}

func (p *PromptTemplates) ProductCopyHandler(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	name := getArgString(args, "name")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	var facts []string
	for _, key := range []string{"brand", "category", "notes"} {
		if v := getArgString(args, key); v != "" {
			facts = append(facts, fmt.Sprintf("%s: %s", key, v))
		}
	}

	text := fmt.Sprintf("Write a catalog description in Spanish for %q, two short paragraphs, no health claims. "+
		"Check list_products first so the tone matches existing products.\n\n%s", name, strings.Join(facts, "\n"))

	return userPrompt("Catalog description for a product", text), nil
}

func (p *PromptTemplates) ShippingHelpHandler(_ context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	comuna := getArgString(args, "comuna")
	if comuna == "" {
		return nil, fmt.Errorf("comuna is required")
	}
	total := getArgString(args, "cart_total")
	if total == "" {
		total = "0"
	}

	text := fmt.Sprintf("Call quote_shipping with comuna %q, cart_total %s and all_options true. "+
		"Explain each option with its cost in CLP and estimated days, and mention how much more the customer needs for free shipping if a threshold applies.", comuna, total)

	return userPrompt("Delivery options for a comuna", text), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}
}

func getArgString(args map[string]string, key string) string {
	if args == nil {
		return ""
	}
	return strings.TrimSpace(args[key])
}
