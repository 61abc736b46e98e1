package api

import (
	"context"
	"crypto/sha256"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"

	"github.com/conectados420/storefront/internal/api/handlers"
	"github.com/conectados420/storefront/internal/api/middleware"
	"github.com/conectados420/storefront/internal/audit"
	"github.com/conectados420/storefront/internal/auth"
	"github.com/conectados420/storefront/internal/config"
	"github.com/conectados420/storefront/internal/jobs"
	"github.com/conectados420/storefront/internal/jsonld"
	"github.com/conectados420/storefront/internal/metrics"
)

// Router is the assembled HTTP handler plus the background machinery the
// serve command starts and stops alongside it.
type Router struct {
	Handler     http.Handler
	RiverClient *river.Client[pgx.Tx]
	Services    *Services
}

// NewRouter wires services, handlers and middleware. Without a pool only the
// probes, version and API description are served.
func NewRouter(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, version, gitCommit, buildDate string) *Router {
	mux := http.NewServeMux()
	router := &Router{}

	var services *Services
	if pool != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		s, err := NewServices(ctx, cfg, logger, pool)
		cancel()
		if err != nil {
			logger.Error().Err(err).Msg("service wiring failed")
		} else {
			services = s
		}
	}
	router.Services = services

	if services != nil {
		router.RiverClient = newRiverClient(cfg, logger, pool, services)
		if router.RiverClient != nil {
			services.Notifier.Attach(router.RiverClient)
		}
	}

	var redis handlers.RedisPinger
	if services != nil {
		redis = services.Dedup
	}
	health := handlers.NewHealthChecker(pool, router.RiverClient != nil, redis, version, gitCommit)
	mux.Handle("GET /healthz", handlers.Healthz())
	mux.Handle("GET /readyz", handlers.Readyz(pool))
	mux.Handle("GET /health", health.Health())
	mux.Handle("GET /version", VersionHandler(version, gitCommit, buildDate))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/api/v1/openapi.json", OpenAPIHandler())

	if services != nil {
		registerRoutes(mux, cfg, logger, services)
	}

	router.Handler = chain(mux, cfg, logger)
	return router
}

func chain(mux *http.ServeMux, cfg config.Config, logger zerolog.Logger) http.Handler {
	var h http.Handler = middleware.CaptureRoute(mux)
	h = middleware.CORS(cfg.CORS, logger)(h)
	h = middleware.SecurityHeaders(cfg.Environment == "production")(h)
	h = metrics.HTTPMiddlewareWithRoute(middleware.RoutePattern)(h)
	h = middleware.RequestLogging(logger)(h)
	h = middleware.CorrelationID(logger)(h)
	h = middleware.Tracing(h)
	return middleware.TrackRoute(h)
}

func registerRoutes(mux *http.ServeMux, cfg config.Config, logger zerolog.Logger, s *Services) {
	env := cfg.Environment
	auditLogger := audit.NewLogger(logger)
	jwt := s.Auth.JWT()

	rateLimit := middleware.RateLimit(cfg.RateLimit)
	tier := func(t middleware.RateLimitTier, h http.Handler) http.Handler {
		return middleware.WithRateLimitTierHandler(t)(rateLimit(h))
	}
	public := func(h http.HandlerFunc) http.Handler {
		return tier(middleware.TierPublic, middleware.PublicRequestSize()(h))
	}
	checkout := func(h http.HandlerFunc) http.Handler {
		return tier(middleware.TierCheckout, middleware.PublicRequestSize()(middleware.Idempotency(h)))
	}

	csrf := middleware.CSRFProtection(csrfKey(cfg.Auth), cfg.Environment == "production")
	adminWith := func(size func(http.Handler) http.Handler, h http.Handler) http.Handler {
		return tier(middleware.TierAdmin, size(middleware.AdminAuth(jwt, env)(csrf(h))))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return adminWith(middleware.AdminRequestSize(), h)
	}

	catalogHandler := handlers.NewCatalogHandler(s.Catalog, jsonld.NewSerializer(jsonld.NewContextLoader(nil)), cfg.Server.PublicURL, env)
	regionsHandler := &handlers.RegionsHandler{Env: env}
	shippingHandler := handlers.NewShippingHandler(s.Calculator, s.Zones, auditLogger, env)
	couponsHandler := handlers.NewCouponsHandler(s.Coupons, auditLogger, env)
	ordersHandler := handlers.NewOrdersHandler(s.Orders, s.Archiver, auditLogger, env)
	shipmentsHandler := handlers.NewShipmentsHandler(s.Shipments, auditLogger, env)
	paymentsHandler := handlers.NewPaymentsHandler(s.Payments, env)
	authHandler := handlers.NewAdminAuthHandler(s.Auth, jwt.Expiry(), cfg.Environment == "production", auditLogger, env)
	settingsHandler := handlers.NewSettingsHandler(s.Settings, s.Calculator, auditLogger, env)
	notificationsHandler := handlers.NewNotificationsHandler(s.Email, auditLogger)

	// Catalog and regions
	mux.Handle("GET /api/v1/products", public(catalogHandler.List))
	mux.Handle("GET /api/v1/products/{slug}", middleware.ContentNegotiation(public(catalogHandler.Get)))
	mux.Handle("GET /api/v1/categories", public(catalogHandler.Categories))
	mux.Handle("GET /api/v1/brands", public(catalogHandler.Brands))
	mux.Handle("GET /api/v1/regions", public(regionsHandler.List))
	mux.Handle("GET /api/v1/regions/{region}/comunas", public(regionsHandler.Comunas))

	// Checkout flow
	mux.Handle("POST /api/v1/shipping/quote", public(shippingHandler.Quote))
	mux.Handle("POST /api/v1/shipping/options", public(shippingHandler.Options))
	mux.Handle("POST /api/v1/coupons/validate", public(couponsHandler.Validate))
	mux.Handle("POST /api/v1/orders", checkout(ordersHandler.Checkout))
	mux.Handle("GET /api/v1/orders/{id}", public(ordersHandler.Status))
	mux.Handle("GET /api/v1/orders/{id}/receipt", public(ordersHandler.Receipt))
	mux.Handle("POST /api/v1/payments/process", checkout(paymentsHandler.ProcessPayment))
	mux.Handle("POST /api/v1/webhooks/mercadopago", tier(middleware.TierWebhook, middleware.WebhookRequestSize()(http.HandlerFunc(paymentsHandler.Webhook))))

	// Admin session
	mux.Handle("POST /api/v1/admin/login", tier(middleware.TierLogin, middleware.PublicRequestSize()(http.HandlerFunc(authHandler.Login))))
	mux.Handle("POST /api/v1/admin/logout", public(authHandler.Logout))
	mux.Handle("GET /api/v1/admin/csrf", admin(authHandler.CSRF))
	mux.Handle("GET /api/v1/admin/me", admin(authHandler.Me))

	// Admin orders
	mux.Handle("GET /api/v1/admin/orders", admin(ordersHandler.List))
	mux.Handle("GET /api/v1/admin/orders/queue", admin(ordersHandler.Queue))
	mux.Handle("GET /api/v1/admin/orders/{id}", admin(ordersHandler.AdminGet))
	mux.Handle("GET /api/v1/admin/orders/{id}/receipt", admin(ordersHandler.AdminReceipt))
	mux.Handle("POST /api/v1/admin/orders/{id}/shipment", admin(shipmentsHandler.Book))
	mux.Handle("GET /api/v1/admin/tracking/{tracking}", admin(shipmentsHandler.Track))
	mux.Handle("GET /api/v1/admin/shipments/{id}/label", admin(shipmentsHandler.Label))
	mux.Handle("DELETE /api/v1/admin/shipments/{id}", admin(shipmentsHandler.Cancel))
	mux.Handle("PUT /api/v1/admin/orders/{id}/status", admin(ordersHandler.UpdateStatus))
	mux.Handle("PUT /api/v1/admin/orders/{id}/tracking", admin(ordersHandler.SetTracking))
	mux.Handle("POST /api/v1/admin/orders/archive", admin(ordersHandler.Archive()))
	mux.Handle("POST /api/v1/admin/orders/unarchive", admin(ordersHandler.Unarchive()))
	mux.Handle("POST /api/v1/admin/orders/delete", admin(ordersHandler.Delete()))
	mux.Handle("POST /api/v1/admin/orders/mark-shipped", admin(ordersHandler.MarkShipped()))
	mux.Handle("POST /api/v1/admin/orders/export", admin(ordersHandler.Export))
	mux.Handle("POST /api/v1/admin/orders/import-tracking", adminWith(middleware.ImportRequestSize(), http.HandlerFunc(ordersHandler.ImportTracking)))
	mux.Handle("POST /api/v1/admin/orders/purge-test", admin(ordersHandler.PurgeTest))
	mux.Handle("GET /api/v1/admin/dashboard", admin(ordersHandler.Dashboard))

	// Admin catalog configuration
	mux.Handle("GET /api/v1/admin/coupons", admin(couponsHandler.List))
	mux.Handle("POST /api/v1/admin/coupons", admin(couponsHandler.Create))
	mux.Handle("GET /api/v1/admin/coupons/{id}", admin(couponsHandler.Get))
	mux.Handle("PUT /api/v1/admin/coupons/{id}", admin(couponsHandler.Update))
	mux.Handle("DELETE /api/v1/admin/coupons/{id}", admin(couponsHandler.Delete))
	mux.Handle("GET /api/v1/admin/shipping-zones", admin(shippingHandler.ListZones))
	mux.Handle("POST /api/v1/admin/shipping-zones", admin(shippingHandler.CreateZone))
	mux.Handle("PUT /api/v1/admin/shipping-zones/{id}", admin(shippingHandler.UpdateZone))
	mux.Handle("DELETE /api/v1/admin/shipping-zones/{id}", admin(shippingHandler.DeleteZone))
	mux.Handle("GET /api/v1/admin/settings", admin(settingsHandler.Get))
	mux.Handle("PUT /api/v1/admin/settings", admin(settingsHandler.Update))
	mux.Handle("POST /api/v1/admin/notifications/email", admin(notificationsHandler.SendEmail))
}

// csrfKey returns the configured 32-byte key, or one derived from the JWT
// secret so a single secret is enough outside production.
func csrfKey(cfg config.AuthConfig) []byte {
	if len(cfg.CSRFKey) >= 32 {
		return []byte(cfg.CSRFKey[:32])
	}
	key, err := auth.DeriveCSRFKey([]byte(cfg.JWTSecret))
	if err != nil {
		// empty secret, which config.Load rejects
		sum := sha256.Sum256([]byte(cfg.JWTSecret))
		return sum[:]
	}
	return key
}

func newRiverClient(cfg config.Config, logger zerolog.Logger, pool *pgxpool.Pool, s *Services) *river.Client[pgx.Tx] {
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var periodic []*river.PeriodicJob
	if !cfg.Jobs.DisablePeriodicJobs {
		periodic = jobs.NewPeriodicJobs(jobs.Schedule{
			TrackingSyncInterval: cfg.Jobs.TrackingSyncInterval,
			PaymentLogRetention:  cfg.Jobs.PaymentLogRetention,
			SyncTracking:         s.Tracking != nil,
		})
	}

	client, err := jobs.NewClient(pool, jobs.NewWorkers(s.Workers(logger)), slogLogger,
		[]rivertype.Hook{metrics.NewRiverMetricsHook()}, periodic)
	if err != nil {
		logger.Error().Err(err).Msg("river client init failed; emails will be sent inline")
		return nil
	}
	return client
}
