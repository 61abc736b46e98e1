// Package mcp exposes read-only storefront operations (catalog, shipping
// quotes, coupons, order status) to MCP clients over stdio, SSE or
// Streamable HTTP.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/conectados420/storefront/internal/api/middleware"
	"github.com/conectados420/storefront/internal/auth"
	"github.com/conectados420/storefront/internal/config"
)

type TransportType string

const (
	// TransportStdio serves a single local client over stdin/stdout.
	TransportStdio TransportType = "stdio"
	TransportSSE   TransportType = "sse"
	// TransportHTTP is Streamable HTTP, the transport for hosted deployments.
	TransportHTTP TransportType = "http"
)

const (
	DefaultTransport = TransportStdio
	DefaultPort      = 8080

	// GracefulShutdownTimeout bounds how long in-flight HTTP requests may
	// run after the context is cancelled.
	GracefulShutdownTimeout = 30 * time.Second
)

// TransportConfig selects the transport. Host and Port are ignored for stdio.
type TransportConfig struct {
	Type TransportType
	Port int
	Host string
}

func (c TransportConfig) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Guard protects the HTTP transports. With a nil JWT the endpoints are only
// rate limited.
type Guard struct {
	JWT       *auth.JWTManager
	Env       string
	RateLimit config.RateLimitConfig
	Logger    zerolog.Logger
}

// LoadTransportConfig reads MCP_TRANSPORT (stdio, sse or http), PORT and
// HOST.
func LoadTransportConfig() (*TransportConfig, error) {
	cfg := &TransportConfig{Type: DefaultTransport, Port: DefaultPort, Host: "0.0.0.0"}

	if raw := os.Getenv("MCP_TRANSPORT"); raw != "" {
		switch t := TransportType(raw); t {
		case TransportStdio, TransportSSE, TransportHTTP:
			cfg.Type = t
		default:
			return nil, fmt.Errorf("invalid MCP_TRANSPORT value: %s (must be stdio, sse, or http)", raw)
		}
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT value: %s (must be a number)", raw)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid PORT value: %d (must be between 1 and 65535)", port)
		}
		cfg.Port = port
	}

	if host := os.Getenv("HOST"); host != "" {
		cfg.Host = host
	}
	return cfg, nil
}

// ServeStdio blocks until the client disconnects or ctx is cancelled.
func ServeStdio(ctx context.Context, mcpServer *server.MCPServer, logger zerolog.Logger) error {
	logger.Info().Msg("serving MCP over stdio")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ServeStdio(mcpServer); err != nil {
			errCh <- fmt.Errorf("stdio server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("stdio server stopping")
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func ServeSSE(ctx context.Context, mcpServer *server.MCPServer, cfg *TransportConfig, guard Guard) error {
	return listen(ctx, TransportSSE, server.NewSSEServer(mcpServer), cfg, guard)
}

func ServeHTTP(ctx context.Context, mcpServer *server.MCPServer, cfg *TransportConfig, guard Guard) error {
	return listen(ctx, TransportHTTP, server.NewStreamableHTTPServer(mcpServer), cfg, guard)
}

// Serve dispatches to the configured transport.
func Serve(ctx context.Context, mcpServer *server.MCPServer, cfg *TransportConfig, guard Guard) error {
	switch cfg.Type {
	case TransportStdio:
		return ServeStdio(ctx, mcpServer, guard.Logger)
	case TransportSSE:
		return ServeSSE(ctx, mcpServer, cfg, guard)
	case TransportHTTP:
		return ServeHTTP(ctx, mcpServer, cfg, guard)
	default:
		return fmt.Errorf("unsupported transport type: %s", cfg.Type)
	}
}

func listen(ctx context.Context, transport TransportType, handler http.Handler, cfg *TransportConfig, guard Guard) error {
	logger := guard.Logger.With().Str("transport", string(transport)).Logger()

	wrapped, err := wrapMCPHandler(handler, guard)
	if err != nil {
		return fmt.Errorf("wrap %s handler: %w", transport, err)
	}
	httpServer := &http.Server{
		Addr:              cfg.addr(),
		Handler:           wrapped,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server error: %w", transport, err)
		}
		close(errCh)
	}()
	logger.Info().Str("addr", httpServer.Addr).Msg("MCP server listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("MCP server shutdown error")
			return fmt.Errorf("%s server shutdown error: %w", transport, err)
		}
		logger.Info().Msg("MCP server stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

// wrapMCPHandler applies the same admin auth, rate limiting and request
// logging as the HTTP API's admin routes.
func wrapMCPHandler(handler http.Handler, guard Guard) (http.Handler, error) {
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}

	wrapped := handler
	if guard.JWT != nil {
		wrapped = middleware.AdminAuth(guard.JWT, guard.Env)(wrapped)
	}
	wrapped = middleware.RateLimit(guard.RateLimit)(wrapped)
	wrapped = middleware.WithRateLimitTierHandler(middleware.TierAdmin)(wrapped)
	wrapped = middleware.RequestLogging(guard.Logger)(wrapped)
	return middleware.CorrelationID(guard.Logger)(wrapped), nil
}
