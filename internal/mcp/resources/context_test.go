package resources

import (
	"context"
	"encoding/json"
	"testing"
	"testing/fstest"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/conectados420/storefront/internal/jsonld"
)

func TestContextResources_Resource(t *testing.T) {
	r := NewContextResources(nil)
	resource := r.Resource("v1")
	require.Equal(t, "context://storefront/v1", resource.URI)
	require.Equal(t, contextMIMEType, resource.MIMEType)
}

func TestContextResources_ReadEmbedded(t *testing.T) {
	r := NewContextResources(nil)

	contents, err := r.ReadHandler(jsonld.DefaultContextVersion)(context.Background(), readRequest(""))
	require.NoError(t, err)

	text := contents[0].(mcp.TextResourceContents)
	require.Equal(t, r.URI(jsonld.DefaultContextVersion), text.URI)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &doc))
	require.Contains(t, doc, "@context")
}

func TestContextResources_ReadMissing(t *testing.T) {
	loader := jsonld.NewContextLoader(fstest.MapFS{
		"v1.jsonld": {Data: []byte(`{"@context":{"@vocab":"https://schema.org/"}}`)},
	})
	r := NewContextResources(loader)

	_, err := r.ReadHandler("v9")(context.Background(), readRequest(""))
	require.ErrorIs(t, err, jsonld.ErrContextNotFound)

	contents, err := r.ReadHandler("v1")(context.Background(), readRequest(""))
	require.NoError(t, err)
	require.Contains(t, contents[0].(mcp.TextResourceContents).Text, "schema.org")
}
