package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/conectados420/storefront/internal/jsonld"
)

const (
	contextMIMEType = "application/ld+json"
	contextResource = "context://storefront/%s"
)

// ContextResources serves the JSON-LD contexts used for product documents.
type ContextResources struct {
	loader *jsonld.ContextLoader
}

func NewContextResources(loader *jsonld.ContextLoader) *ContextResources {
	if loader == nil {
		loader = jsonld.NewContextLoader(nil)
	}
	return &ContextResources{loader: loader}
}

// URI names the resource for a context version.
func (r *ContextResources) URI(version string) string {
	return fmt.Sprintf(contextResource, version)
}

func (r *ContextResources) Resource(version string) mcp.Resource {
	return mcp.NewResource(
		r.URI(version),
		"Product JSON-LD context "+version,
		mcp.WithResourceDescription("schema.org context applied to product JSON-LD documents"),
		mcp.WithMIMEType(contextMIMEType),
	)
}

func (r *ContextResources) ReadHandler(version string) func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		doc, err := r.loader.Load(version)
		if err != nil {
			return nil, fmt.Errorf("read context %s: %w", version, err)
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return textContents(request, r.URI(version), contextMIMEType, string(data)), nil
	}
}
