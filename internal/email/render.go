package email

import (
	"embed"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/osteele/liquid"

	"github.com/conectados420/storefront/internal/money"
)

//go:embed templates/*.html
var templateFS embed.FS

type layoutInfo struct {
	title      string
	badge      string
	badgeClass string
	accent     string
}

var layouts = map[string]layoutInfo{
	TemplateOrderConfirmed:  {title: "Pago Confirmado", badge: "APROBADO", badgeClass: "status-success"},
	TemplateOrderShipped:    {title: "Pedido Enviado", badge: "EN CAMINO", badgeClass: "status-shipping"},
	TemplateOrderDelivered:  {title: "Pedido Entregado", badge: "ENTREGADO", badgeClass: "status-delivered"},
	TemplatePaymentRejected: {title: "Pago No Procesado", badge: "RECHAZADO", badgeClass: "status-error", accent: "#ef4444"},
}

var rejectionReasons = []string{
	"Fondos insuficientes",
	"Tarjeta vencida o bloqueada",
	"Limite de compra excedido",
	"Datos incorrectos",
}

// Renderer turns a Message into HTML using the embedded Liquid templates.
type Renderer struct {
	engine      *liquid.Engine
	layout      *liquid.Template
	bodies      map[string]*liquid.Template
	storeURL    string
	trackingURL string
}

func NewRenderer(storeURL, trackingURL string) (*Renderer, error) {
	engine := liquid.NewEngine()
	registerFilters(engine)

	r := &Renderer{
		engine:      engine,
		bodies:      make(map[string]*liquid.Template, len(layouts)),
		storeURL:    strings.TrimRight(storeURL, "/"),
		trackingURL: trackingURL,
	}

	src, err := templateFS.ReadFile("templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	if r.layout, err = engine.ParseTemplate(src); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	for name := range layouts {
		src, err := templateFS.ReadFile("templates/" + name + ".html")
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", name, err)
		}
		tpl, err := engine.ParseTemplate(src)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.bodies[name] = tpl
	}
	return r, nil
}

// Render returns the full HTML document for msg.
func (r *Renderer) Render(msg Message) (string, error) {
	body, ok := r.bodies[msg.Template]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTemplate, msg.Template)
	}
	bindings := liquid.Bindings{}
	for k, v := range msg.Data {
		bindings[k] = v
	}
	bindings["storeURL"] = r.storeURL
	bindings["trackingURL"] = r.trackingURL
	bindings["reasons"] = rejectionReasons

	content, err := body.RenderString(bindings)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", msg.Template, err)
	}

	info := layouts[msg.Template]
	out, err := r.layout.RenderString(liquid.Bindings{
		"title":      info.title,
		"badge":      info.badge,
		"badgeClass": info.badgeClass,
		"accent":     info.accent,
		"content":    content,
	})
	if err != nil {
		return "", fmt.Errorf("render layout: %w", err)
	}
	return out, nil
}

func registerFilters(engine *liquid.Engine) {
	// {{ first_name | default: "Cliente" }}
	engine.RegisterFilter("default", func(value any, fallback string) any {
		if value == nil {
			return fallback
		}
		if s := fmt.Sprintf("%v", value); s == "" || s == "<nil>" {
			return fallback
		}
		return value
	})

	// {{ orderTotal | clp }} renders $12.990
	engine.RegisterFilter("clp", func(value any) string {
		return money.CLP(toInt64(value))
	})

	engine.RegisterFilter("escape", func(s string) string {
		return html.EscapeString(s)
	})
	engine.RegisterFilter("urlencode", func(s string) string {
		return url.QueryEscape(s)
	})
}

func toInt64(value any) int64 {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case float32:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return int64(n)
	default:
		return 0
	}
}
