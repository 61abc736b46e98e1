package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/conectados420/storefront/internal/api"
	"github.com/conectados420/storefront/internal/config"
	"github.com/conectados420/storefront/internal/mcp"
	"github.com/conectados420/storefront/internal/storage/postgres"
)

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown.
	shutdownTimeout = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is separated from main() so deferred cleanup runs before os.Exit.
func run() error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// stdout carries the stdio protocol; logs always go to stderr.
	logger := config.NewLoggerTo(os.Stderr, cfg.Base.Logging)
	log.Logger = logger

	log.Info().
		Str("transport", string(cfg.Transport.Type)).
		Str("mcp_name", cfg.MCP.Name).
		Str("mcp_version", cfg.MCP.Version).
		Str("environment", cfg.Base.Environment).
		Msg("Starting MCP server")

	ctx := context.Background()
	pool, err := postgres.Open(ctx, cfg.Base.Database.URL, cfg.Base.Database.MaxConnections)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	services, err := api.NewServices(ctx, cfg.Base, logger, pool)
	if err != nil {
		return fmt.Errorf("service wiring failed: %w", err)
	}
	defer func() { _ = services.Close() }()

	mcpServer := mcp.NewServer(
		mcp.Config{
			Name:      cfg.MCP.Name,
			Version:   cfg.MCP.Version,
			Transport: string(cfg.Transport.Type),
		},
		mcp.Deps{
			Catalog:   services.Catalog,
			Shipping:  services.Calculator,
			Coupons:   services.Coupons,
			Orders:    services.Orders,
			PublicURL: cfg.Base.Server.PublicURL,
			OpenAPI:   api.OpenAPIYAML(),
		},
	)

	guard := mcp.Guard{Env: cfg.Base.Environment, RateLimit: cfg.Base.RateLimit, Logger: logger}
	if cfg.MCP.RequireAuth {
		guard.JWT = services.Auth.JWT()
	} else if cfg.Transport.Type != mcp.TransportStdio {
		log.Warn().Msg("MCP HTTP transport running without authentication")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := mcp.Serve(ctx, mcpServer.MCPServer(), cfg.Transport, guard); err != nil {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	log.Info().Msg("Initiating graceful shutdown")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := mcpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("MCP server shutdown error")
	}

	select {
	case <-shutdownCtx.Done():
		log.Warn().Msg("Shutdown timeout exceeded")
		return fmt.Errorf("shutdown timeout exceeded")
	case err := <-serverErr:
		if err != nil {
			log.Warn().Err(err).Msg("Server error during shutdown")
		}
	}

	log.Info().Msg("Shutdown complete")
	return nil
}
