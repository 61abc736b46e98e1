package jsonld

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestContextLoaderLoadSuccessAndCache(t *testing.T) {
	fsys := fstest.MapFS{
		"v1.jsonld": {Data: []byte(`{"@context":{"name":"schema:name"}}`)},
	}
	loader := NewContextLoader(fsys)

	first, err := loader.Load("v1")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"@context": map[string]any{"name": "schema:name"}}, first)

	fsys["v1.jsonld"] = &fstest.MapFile{Data: []byte(`{"@context":{"name":"schema:other"}}`)}

	second, err := loader.Load("v1")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestContextLoaderErrors(t *testing.T) {
	loader := NewContextLoader(fstest.MapFS{
		"bare.jsonld":   {Data: []byte(`{}`)},
		"broken.jsonld": {Data: []byte(`{`)},
	})

	_, err := loader.Load("")
	require.ErrorIs(t, err, ErrInvalidVersion)

	_, err = loader.Load("missing")
	require.ErrorIs(t, err, ErrContextNotFound)

	_, err = loader.Load("bare")
	require.ErrorIs(t, err, ErrMissingContext)

	_, err = loader.Load("broken")
	require.Error(t, err)
}

func TestEmbeddedDefaultContext(t *testing.T) {
	doc, err := LoadDefaultContext()
	require.NoError(t, err)

	ctx, ok := doc["@context"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "https://schema.org/", ctx["@vocab"])
}
