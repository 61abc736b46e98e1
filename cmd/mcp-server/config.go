package main

import (
	"fmt"
	"os"

	"github.com/conectados420/storefront/internal/config"
	"github.com/conectados420/storefront/internal/mcp"
)

// MCPConfig extends the base application config with MCP server settings.
type MCPConfig struct {
	// Base application configuration (database, auth, etc.)
	Base config.Config

	MCP MCPServerConfig

	Transport *mcp.TransportConfig
}

// MCPServerConfig holds MCP server metadata.
type MCPServerConfig struct {
	Name    string
	Version string
	// RequireAuth puts the HTTP transports behind admin bearer tokens.
	RequireAuth bool
}

// LoadConfig loads configuration from environment variables.
// MCP-specific environment variables:
//   - MCP_SERVER_NAME: Server name for MCP identification (default: "Conectados 420 Storefront MCP")
//   - MCP_SERVER_VERSION: Server version (default: "1.0.0")
//   - MCP_TRANSPORT: Transport type - "stdio", "sse", or "http" (default: "stdio")
//   - MCP_REQUIRE_AUTH: "false" opens the HTTP transports (default: true)
//   - PORT: HTTP port for SSE/HTTP transports (default: 8080)
//   - HOST: Bind address for SSE/HTTP transports (default: "0.0.0.0")
//
// All standard application environment variables from config.Load() are also supported.
func LoadConfig() (*MCPConfig, error) {
	baseConfig, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	transportConfig, err := mcp.LoadTransportConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load transport config: %w", err)
	}

	return &MCPConfig{
		Base: baseConfig,
		MCP: MCPServerConfig{
			Name:        getEnv("MCP_SERVER_NAME", "Conectados 420 Storefront MCP"),
			Version:     getEnv("MCP_SERVER_VERSION", "1.0.0"),
			RequireAuth: getEnv("MCP_REQUIRE_AUTH", "true") != "false",
		},
		Transport: transportConfig,
	}, nil
}

// getEnv returns the value of an environment variable or a fallback value if not set.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
