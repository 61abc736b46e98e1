package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conectados420/storefront/internal/jsonld/schema"
)

func TestProductHTML(t *testing.T) {
	p := schema.NewProduct("Vaporizador Mighty+")
	p.Brand = schema.NewBrand("Storz & Bickel")
	p.Category = "Vaporizadores"
	p.Description = "Vaporizador portátil"
	p.Image = "https://cdn.conectados420.cl/mighty.jpg"
	p.Offers = schema.NewOffer(349990, true, "")

	page, err := ProductHTML(p, map[string]any{"@type": "Product", "name": p.Name})
	require.NoError(t, err)

	require.Contains(t, page, "<title>Vaporizador Mighty+ | Conectados 420</title>")
	require.Contains(t, page, `<script type="application/ld+json">`)
	require.Contains(t, page, `"@type": "Product"`)
	require.Contains(t, page, "$349.990")
	require.Contains(t, page, "Disponible")
	require.Contains(t, page, "Storz &amp; Bickel")
	require.Contains(t, page, `<img src="https://cdn.conectados420.cl/mighty.jpg"`)
}

func TestProductHTML_EscapesContent(t *testing.T) {
	p := schema.NewProduct(`<script>alert("x")</script>`)
	p.Offers = schema.NewOffer(1000, false, "")

	page, err := ProductHTML(p, map[string]any{"name": "</script><script>alert(1)</script>"})
	require.NoError(t, err)

	require.NotContains(t, page, `<script>alert("x")</script>`)
	require.NotContains(t, page, "</script><script>alert(1)")
	require.Equal(t, 1, strings.Count(page, "</script>"))
	require.Contains(t, page, "Agotado")
}

func TestProductHTML_NilProduct(t *testing.T) {
	_, err := ProductHTML(nil, nil)
	require.Error(t, err)
}
