package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"sigs.k8s.io/yaml"
)

const (
	schemaMIMEType     = "application/json"
	openAPIResource    = "schema://openapi"
	serverInfoResource = "info://server"
)

type ServerCapabilities struct {
	Tools     bool `json:"tools"`
	Resources bool `json:"resources"`
	Prompts   bool `json:"prompts"`
}

type ServerInfo struct {
	Name         string             `json:"name"`
	Version      string             `json:"version,omitempty"`
	PublicURL    string             `json:"public_url,omitempty"`
	Capabilities ServerCapabilities `json:"capabilities"`
	Transport    string             `json:"transport,omitempty"`
}

// SchemaResources serves the HTTP API description and server metadata.
type SchemaResources struct {
	openAPIYAML []byte

	openAPIOnce sync.Once
	openAPIJSON string
	openAPIErr  error
}

// NewSchemaResources serves openAPIYAML, converted to JSON on first read.
func NewSchemaResources(openAPIYAML []byte) *SchemaResources {
	return &SchemaResources{openAPIYAML: openAPIYAML}
}

func (r *SchemaResources) OpenAPIResource() mcp.Resource {
	return mcp.NewResource(
		openAPIResource,
		"OpenAPI Schema",
		mcp.WithResourceDescription("OpenAPI description of the storefront HTTP API"),
		mcp.WithMIMEType(schemaMIMEType),
	)
}

func (r *SchemaResources) InfoResource() mcp.Resource {
	return mcp.NewResource(
		serverInfoResource,
		"Server Info",
		mcp.WithResourceDescription("MCP server metadata and capabilities"),
		mcp.WithMIMEType(schemaMIMEType),
	)
}

func (r *SchemaResources) OpenAPIReadHandler() func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		content, err := r.loadOpenAPI()
		if err != nil {
			return nil, err
		}
		return textContents(request, openAPIResource, schemaMIMEType, content), nil
	}
}

func (r *SchemaResources) InfoReadHandler(info ServerInfo) func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(info)
		if err != nil {
			return nil, fmt.Errorf("load server info: %w", err)
		}
		return textContents(request, serverInfoResource, schemaMIMEType, string(data)), nil
	}
}

func (r *SchemaResources) loadOpenAPI() (string, error) {
	r.openAPIOnce.Do(func() {
		if len(r.openAPIYAML) == 0 {
			r.openAPIErr = errors.New("no document")
			return
		}
		jsonData, err := yaml.YAMLToJSON(r.openAPIYAML)
		if err != nil {
			r.openAPIErr = err
			return
		}
		r.openAPIJSON = string(jsonData)
	})

	if r.openAPIErr != nil {
		return "", fmt.Errorf("load openapi: %w", r.openAPIErr)
	}
	return r.openAPIJSON, nil
}

// textContents answers with the URI the client asked for, or fallbackURI.
func textContents(request mcp.ReadResourceRequest, fallbackURI, mimeType, text string) []mcp.ResourceContents {
	uri := fallbackURI
	if request.Params.URI != "" {
		uri = request.Params.URI
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeType,
			Text:     text,
		},
	}
}
