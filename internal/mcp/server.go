package mcp

import (
	"context"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/conectados420/storefront/internal/jsonld"
	"github.com/conectados420/storefront/internal/mcp/prompts"
	"github.com/conectados420/storefront/internal/mcp/resources"
	"github.com/conectados420/storefront/internal/mcp/tools"
)

// Server exposes the storefront's read-only shopper operations over MCP:
// catalog lookup, shipping quotes, coupon checks and order status.
type Server struct {
	mcp  *mcpserver.MCPServer
	cfg  Config
	deps Deps
}

type Config struct {
	Name      string
	Version   string
	Transport string
}

// Deps are the domain services behind the tools. A nil dependency leaves
// its tools registered but answering "not configured".
type Deps struct {
	Catalog   tools.ProductCatalog
	Shipping  tools.ShippingQuoter
	Coupons   tools.CouponValidator
	Orders    tools.OrderReader
	PublicURL string
	// OpenAPI is the HTTP API description served as a resource.
	OpenAPI []byte
}

func NewServer(cfg Config, deps Deps) *Server {
	mcpServer := mcpserver.NewMCPServer(
		cfg.Name,
		cfg.Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(true, true),
		mcpserver.WithPromptCapabilities(true),
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions("MCP server for the Conectados 420 storefront: browse products, quote shipping to Chilean comunas, check coupons and look up order status. Amounts are in CLP."),
	)

	srv := &Server{mcp: mcpServer, cfg: cfg, deps: deps}
	srv.registerTools()
	srv.registerResources()
	srv.registerPrompts()
	return srv
}

// MCPServer returns the underlying MCP server for use with transports.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

func (s *Server) registerTools() {
	serializer := jsonld.NewSerializer(jsonld.NewContextLoader(nil))

	catalogTools := tools.NewCatalogTools(s.deps.Catalog, serializer, s.deps.PublicURL)
	s.mcp.AddTool(catalogTools.ListProductsTool(), catalogTools.ListProductsHandler)
	s.mcp.AddTool(catalogTools.GetProductTool(), catalogTools.GetProductHandler)

	shippingTools := tools.NewShippingTools(s.deps.Shipping)
	s.mcp.AddTool(shippingTools.QuoteShippingTool(), shippingTools.QuoteShippingHandler)
	s.mcp.AddTool(shippingTools.ListComunasTool(), shippingTools.ListComunasHandler)

	couponTools := tools.NewCouponTools(s.deps.Coupons)
	s.mcp.AddTool(couponTools.ValidateCouponTool(), couponTools.ValidateCouponHandler)

	orderTools := tools.NewOrderTools(s.deps.Orders)
	s.mcp.AddTool(orderTools.GetOrderStatusTool(), orderTools.GetOrderStatusHandler)
}

func (s *Server) registerResources() {
	schemas := resources.NewSchemaResources(s.deps.OpenAPI)
	s.mcp.AddResource(schemas.OpenAPIResource(), schemas.OpenAPIReadHandler())
	s.mcp.AddResource(schemas.InfoResource(), schemas.InfoReadHandler(resources.ServerInfo{
		Name:         s.cfg.Name,
		Version:      s.cfg.Version,
		PublicURL:    s.deps.PublicURL,
		Capabilities: resources.ServerCapabilities{Tools: true, Resources: true, Prompts: true},
		Transport:    s.cfg.Transport,
	}))

	contexts := resources.NewContextResources(nil)
	s.mcp.AddResource(contexts.Resource(jsonld.DefaultContextVersion), contexts.ReadHandler(jsonld.DefaultContextVersion))
}

func (s *Server) registerPrompts() {
	templates := prompts.NewPromptTemplates()
	s.mcp.AddPrompt(templates.OrderSupportPrompt(), templates.OrderSupportHandler)
	s.mcp.AddPrompt(templates.ProductCopyPrompt(), templates.ProductCopyHandler)
	s.mcp.AddPrompt(templates.ShippingHelpPrompt(), templates.ShippingHelpHandler)
}

// Shutdown releases server resources. The tools hold none today; the
// transports stop on context cancellation.
func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}
