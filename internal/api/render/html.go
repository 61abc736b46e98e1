package render

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/conectados420/storefront/internal/jsonld/schema"
	"github.com/conectados420/storefront/internal/money"
)

// ProductHTML renders a minimal product page with the compacted JSON-LD
// document embedded for crawlers.
func ProductHTML(product *schema.Product, doc any) (string, error) {
	if product == nil {
		return "", fmt.Errorf("render product: nil product")
	}
	// json.Marshal escapes <, > and & so the payload cannot close the script tag.
	jsonldBytes, err := json.MarshalIndent(doc, "  ", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON-LD: %w", err)
	}
	return buildHTML(product.Name, product.Image, productBody(product), string(jsonldBytes)), nil
}

func buildHTML(title, image, body, jsonld string) string {
	var img string
	if image != "" {
		img = fmt.Sprintf("\n  <img src=\"%s\" alt=\"%s\">", html.EscapeString(image), html.EscapeString(title))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s | Conectados 420</title>
  <style>
    body { font-family: system-ui, -apple-system, sans-serif; max-width: 800px; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; }
    img { max-width: 100%%; border-radius: 8px; }
    .field { margin-bottom: 1rem; }
    .label { font-weight: 600; color: #555; }
    .price { font-size: 1.5rem; color: #2e7d32; }
    footer { margin-top: 3rem; padding-top: 2rem; border-top: 1px solid #ddd; color: #666; font-size: 0.9rem; }
  </style>
  <script type="application/ld+json">
  %s
  </script>
</head>
<body>
  <h1>%s</h1>%s
%s
  <footer>
    <p><a href="https://conectados420.cl">Conectados 420</a></p>
  </footer>
</body>
</html>`, html.EscapeString(title), jsonld, html.EscapeString(title), img, body)
}

func productBody(p *schema.Product) string {
	var parts []string
	if p.Offers != nil {
		availability := "Agotado"
		if p.Offers.Availability == schema.AvailabilityInStock {
			availability = "Disponible"
		}
		parts = append(parts,
			fmt.Sprintf(`  <div class="price">%s</div>`, html.EscapeString(money.CLP(p.Offers.Price))),
			field("Disponibilidad", availability))
	}
	if p.Brand != nil && p.Brand.Name != "" {
		parts = append(parts, field("Marca", p.Brand.Name))
	}
	if p.Category != "" {
		parts = append(parts, field("Categoría", p.Category))
	}
	if p.Description != "" {
		parts = append(parts, field("Descripción", p.Description))
	}
	return strings.Join(parts, "\n")
}

func field(label, value string) string {
	return fmt.Sprintf(`  <div class="field">
    <div class="label">%s</div>
    <div class="value">%s</div>
  </div>`, html.EscapeString(label), html.EscapeString(value))
}
