package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/conectados420/storefront/internal/api"
	"github.com/conectados420/storefront/internal/config"
	"github.com/conectados420/storefront/internal/metrics"
	"github.com/conectados420/storefront/internal/storage/postgres"
	"github.com/conectados420/storefront/internal/telemetry"
)

var (
	// Server flags (override config/env)
	serverHost  string
	serverPort  int
	skipMigrate bool
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the storefront HTTP server",
		Long: `Start the storefront HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Apply pending database migrations, including the job queue schema
- Ensure the admin profile exists if ADMIN_* env vars are set
- Start the background job workers (emails, tracking sync, cleanup)
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply database migrations on startup")
	return cmd
}

func runServer(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("environment", cfg.Environment).Msg("starting storefront server")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		logger.Warn().Err(err).Msg("tracing disabled")
	} else {
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(stopCtx); err != nil {
				logger.Error().Err(err).Msg("tracing shutdown error")
			}
		}()
	}

	if !skipMigrate {
		if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	poolCtx, poolCancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := postgres.Open(poolCtx, cfg.Database.URL, cfg.Database.MaxConnections)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	if !skipMigrate {
		if err := postgres.MigrateJobQueue(ctx, pool); err != nil {
			return fmt.Errorf("migrate job queue: %w", err)
		}
	}

	dbCollector := metrics.NewDBCollector(pool)
	collectorCtx, collectorCancel := context.WithCancel(context.Background())
	go dbCollector.Start(collectorCtx, 15*time.Second)
	defer collectorCancel()
	defer dbCollector.Stop()

	router := api.NewRouter(cfg, logger, pool, Version, GitCommit, BuildDate)
	if router.Services == nil {
		return errors.New("service wiring failed; see logs")
	}
	defer func() {
		if err := router.Services.Close(); err != nil {
			logger.Error().Err(err).Msg("services shutdown error")
		}
	}()

	bootstrapCtx, bootstrapCancel := context.WithTimeout(ctx, 10*time.Second)
	bootstrapAdmin(bootstrapCtx, cfg, router.Services, logger)
	bootstrapCancel()

	riverCtx, riverCancel := context.WithCancel(context.Background())
	defer riverCancel()

	if router.RiverClient != nil {
		if err := router.RiverClient.Start(riverCtx); err != nil {
			return fmt.Errorf("river workers failed to start: %w", err)
		}
		logger.Info().Msg("river background job workers started")
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			if err := router.RiverClient.Stop(stopCtx); err != nil {
				logger.Error().Err(err).Msg("river workers shutdown error")
			} else {
				logger.Info().Msg("river workers stopped")
			}
		}()
	} else {
		logger.Warn().Msg("river client not initialized, emails will be sent inline")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Handler,
		ReadTimeout:       10 * time.Second, // Total time to read request
		WriteTimeout:      30 * time.Second, // Total time to write response
		ReadHeaderTimeout: 5 * time.Second,  // Time to read headers
		MaxHeaderBytes:    1 << 20,          // 1 MB max header size
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	return gracefulShutdown(server, logger)
}

func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func bootstrapAdmin(ctx context.Context, cfg config.Config, services *api.Services, logger zerolog.Logger) {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Email == "" || bootstrap.Password == "" {
		logger.Debug().Msg("admin bootstrap env vars not set; skipping")
		return
	}
	profile, err := services.Auth.EnsureAdmin(ctx, bootstrap.Name, bootstrap.Email, bootstrap.Password)
	if err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
		return
	}
	// Redact email in production to avoid PII in logs
	if cfg.Environment == "production" {
		logger.Info().Str("profile_id", profile.ID).Msg("bootstrapped admin profile")
	} else {
		logger.Info().Str("profile_id", profile.ID).Str("email", profile.Email).Msg("bootstrapped admin profile")
	}
}

// openServices wires the domain graph for one-shot commands.
func openServices(ctx context.Context) (*api.Services, *pgxpool.Pool, zerolog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, zerolog.Nop(), fmt.Errorf("config error: %w", err)
	}
	logger := config.NewLogger(cfg.Logging)
	pool, err := postgres.Open(ctx, cfg.Database.URL, 4)
	if err != nil {
		return nil, nil, logger, fmt.Errorf("database connection failed: %w", err)
	}
	services, err := api.NewServices(ctx, cfg, logger, pool)
	if err != nil {
		pool.Close()
		return nil, nil, logger, err
	}
	return services, pool, logger, nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
