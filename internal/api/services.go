package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/conectados420/storefront/internal/auth"
	"github.com/conectados420/storefront/internal/carrier/bluexpress"
	"github.com/conectados420/storefront/internal/config"
	"github.com/conectados420/storefront/internal/dedup"
	"github.com/conectados420/storefront/internal/domain/catalog"
	"github.com/conectados420/storefront/internal/domain/coupons"
	"github.com/conectados420/storefront/internal/domain/orders"
	"github.com/conectados420/storefront/internal/domain/payments"
	"github.com/conectados420/storefront/internal/domain/settings"
	"github.com/conectados420/storefront/internal/domain/shipping"
	"github.com/conectados420/storefront/internal/email"
	"github.com/conectados420/storefront/internal/jobs"
	"github.com/conectados420/storefront/internal/mercadopago"
	"github.com/conectados420/storefront/internal/metrics"
	"github.com/conectados420/storefront/internal/storage/exports"
	"github.com/conectados420/storefront/internal/storage/postgres"
)

// JWTIssuer is the iss claim on admin tokens.
const JWTIssuer = "conectados420-storefront"

// Services is the domain graph shared by the HTTP server, the CLI and the
// MCP server.
type Services struct {
	Repo       *postgres.Repository
	Catalog    *catalog.Service
	Coupons    *coupons.Service
	Zones      *shipping.ZoneService
	Settings   *settings.Service
	Calculator *shipping.Calculator
	Orders     *orders.Service
	Payments   *payments.Service
	Email      *email.Service
	Auth       *auth.Service
	Notifier   *jobs.QueueNotifier
	Dedup      *dedup.Guard
	Tracking   *bluexpress.TrackingPage
	Shipments  *orders.Shipments
	// Archiver is nil unless an exports bucket is configured.
	Archiver orders.Archiver

	redis *redis.Client
}

// NewServices wires every domain service onto pool. Optional backends
// (Redis, S3) degrade to disabled with a warning instead of failing.
func NewServices(ctx context.Context, cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool) (*Services, error) {
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return nil, err
	}

	renderer, err := email.NewRenderer(cfg.Server.PublicURL, cfg.Carrier.TrackingURL)
	if err != nil {
		return nil, fmt.Errorf("email templates: %w", err)
	}
	emailSvc, err := email.NewService(ctx, cfg.Email, renderer, logger)
	if err != nil {
		return nil, fmt.Errorf("email service: %w", err)
	}
	emailSvc.WithObserver(metrics.ObserveEmail)
	notifier := jobs.NewQueueNotifier(email.Inline{Service: emailSvc}, cfg.Jobs.RetryEmail, logger)

	jwtKey, err := auth.DeriveAdminJWTKey([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("admin jwt key: %w", err)
	}

	settingsSvc := settings.NewService(repo.Settings())
	couponSvc := coupons.NewService(repo.Coupons(), logger).WithObserver(metrics.ObserveCoupon)
	catalogSvc := catalog.NewService(repo.Products())

	static := shipping.NewStaticStrategy(repo.Zones(), logger)
	carrier := bluexpress.NewClient(bluexpress.Config{
		Enabled:       cfg.Carrier.Enabled,
		APIKey:        cfg.Carrier.APIKey,
		APISecret:     cfg.Carrier.APISecret,
		AccountNumber: cfg.Carrier.AccountNumber,
		Sandbox:       cfg.Carrier.Sandbox,
	}, bluexpress.WithHTTPClient(&http.Client{Timeout: cfg.Carrier.RequestTimeout}))
	calculator := shipping.NewCalculator(settingsSvc, logger,
		static,
		shipping.NewBlueExpressStrategy(carrier, static, cfg.Carrier.FreeThreshold, cfg.Carrier.OriginComuna, logger),
		shipping.NewChilexpressStrategy(static),
	).WithObserver(metrics.ObserveShippingQuote)
	calculator.LoadStrategyFromSettings(ctx)

	s := &Services{
		Repo:       repo,
		Catalog:    catalogSvc,
		Coupons:    couponSvc,
		Zones:      shipping.NewZoneService(repo.Zones()),
		Settings:   settingsSvc,
		Calculator: calculator,
		Email:      emailSvc,
		Auth:       auth.NewService(repo.Profiles(), auth.NewJWTManager(jwtKey, cfg.Auth.JWTExpiry, JWTIssuer), logger),
		Notifier:   notifier,
		Tracking:   bluexpress.NewTrackingPage(cfg.Carrier.TrackingURL, logger),
	}
	s.Orders = orders.NewService(postgres.OrderStore{Repo: repo}, catalogSvc, couponSvc, calculator, notifier, logger)
	s.Shipments = orders.NewShipments(s.Orders, carrier, bluexpress.Party{
		Name:    cfg.Carrier.OriginName,
		Address: cfg.Carrier.OriginAddress,
		City:    cfg.Carrier.OriginComuna,
		Phone:   cfg.Carrier.OriginPhone,
	})

	if cfg.Redis.URL != "" {
		client, err := dedup.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; webhook dedup disabled")
		} else {
			s.redis = client
		}
	}
	s.Dedup = dedup.New(s.redis, "mp:webhook:", cfg.Redis.DedupTTL)

	processor := mercadopago.NewClient(cfg.Payments.MercadoPagoAccessToken, mercadopago.WithBaseURL(cfg.Payments.MercadoPagoBaseURL))
	s.Payments = payments.NewService(repo.Orders(), processor, notifier, s.Dedup, payments.Config{
		NotificationURL:   cfg.Server.BaseURL + "/api/v1/webhooks/mercadopago",
		DefaultPayerEmail: cfg.Payments.DefaultPayerEmail,
	}, logger).WithObserver(metrics.ObservePayment)

	if cfg.Exports.S3Bucket != "" {
		archiver, err := exports.NewS3Archiver(ctx, exports.Config{
			Bucket: cfg.Exports.S3Bucket,
			Prefix: cfg.Exports.S3Prefix,
			Region: cfg.Exports.S3Region,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("export archiving disabled")
		} else {
			s.Archiver = archiver
		}
	}

	return s, nil
}

// Workers builds the River workers backed by these services.
func (s *Services) Workers(logger zerolog.Logger) jobs.Deps {
	return jobs.Deps{
		Email:    s.Email,
		Orders:   s.Orders,
		Checker:  s.Tracking,
		Payments: s.Payments,
		Logger:   logger,
	}
}

// Close releases the Redis connection. The pool belongs to the caller.
func (s *Services) Close() error {
	if s == nil || s.redis == nil {
		return nil
	}
	return s.redis.Close()
}
