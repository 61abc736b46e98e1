package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/conectados420/storefront/internal/validation"
)

type Config struct {
	Server         ServerConfig         `yaml:"server"`
	Database       DatabaseConfig       `yaml:"database"`
	Auth           AuthConfig           `yaml:"auth"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	AdminBootstrap AdminBootstrapConfig `yaml:"admin_bootstrap"`
	Jobs           JobsConfig           `yaml:"jobs"`
	Logging        LoggingConfig        `yaml:"logging"`
	CORS           CORSConfig           `yaml:"cors"`
	Email          EmailConfig          `yaml:"email"`
	Tracing        TracingConfig        `yaml:"tracing"`
	Payments       PaymentsConfig       `yaml:"payments"`
	Carrier        CarrierConfig        `yaml:"carrier"`
	Redis          RedisConfig          `yaml:"redis"`
	Exports        ExportsConfig        `yaml:"exports"`
	Environment    string               `yaml:"environment"`
}

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
	// PublicURL is the storefront origin used in customer-facing links.
	PublicURL string `yaml:"public_url"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
	MaxIdle        int    `yaml:"max_idle"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	JWTExpiry time.Duration `yaml:"jwt_expiry"`
	CSRFKey   string        `yaml:"csrf_key"`
}

type RateLimitConfig struct {
	PublicPerMinute   int      `yaml:"public_per_minute"`
	CheckoutPerMinute int      `yaml:"checkout_per_minute"`
	WebhookPerMinute  int      `yaml:"webhook_per_minute"`
	AdminPerMinute    int      `yaml:"admin_per_minute"`
	LoginPer15Minutes int      `yaml:"login_per_15_minutes"`
	TrustedProxyCIDRs []string `yaml:"trusted_proxy_cidrs"`
}

type AdminBootstrapConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type JobsConfig struct {
	RetryEmail           int           `yaml:"retry_email"`
	TrackingSyncInterval time.Duration `yaml:"tracking_sync_interval"`
	PaymentLogRetention  time.Duration `yaml:"payment_log_retention"`
	DisablePeriodicJobs  bool          `yaml:"disable_periodic_jobs"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CORSConfig struct {
	AllowAllOrigins bool     `yaml:"allow_all_origins"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

type EmailConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Provider     string `yaml:"provider"` // resend, ses
	From         string `yaml:"from"`
	ResendAPIKey string `yaml:"resend_api_key"`
	SESRegion    string `yaml:"ses_region"`
	SESAccessKey string `yaml:"ses_access_key"`
	SESSecretKey string `yaml:"ses_secret_key"`
	SESEndpoint  string `yaml:"ses_endpoint"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

type PaymentsConfig struct {
	MercadoPagoAccessToken string `yaml:"mercadopago_access_token"`
	MercadoPagoBaseURL     string `yaml:"mercadopago_base_url"`
	DefaultPayerEmail      string `yaml:"default_payer_email"`
}

type CarrierConfig struct {
	Enabled        bool          `yaml:"enabled"`
	APIKey         string        `yaml:"api_key"`
	APISecret      string        `yaml:"api_secret"`
	AccountNumber  string        `yaml:"account_number"`
	Sandbox        bool          `yaml:"sandbox"`
	TrackingURL    string        `yaml:"tracking_url"`
	FreeThreshold  int64         `yaml:"free_threshold"`
	OriginComuna   string        `yaml:"origin_comuna"`
	OriginName     string        `yaml:"origin_name"`
	OriginAddress  string        `yaml:"origin_address"`
	OriginPhone    string        `yaml:"origin_phone"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	DedupTTL time.Duration `yaml:"dedup_ttl"`
}

type ExportsConfig struct {
	S3Bucket string `yaml:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix"`
	S3Region string `yaml:"s3_region"`
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a value.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			BaseURL:   "http://localhost:8080",
			PublicURL: "https://conectados420.cl",
		},
		Database: DatabaseConfig{
			MaxConnections: 25,
			MaxIdle:        5,
		},
		Auth: AuthConfig{
			JWTExpiry: 24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			PublicPerMinute:   120,
			CheckoutPerMinute: 20,
			WebhookPerMinute:  600,
			AdminPerMinute:    0,
			LoginPer15Minutes: 5,
		},
		Jobs: JobsConfig{
			RetryEmail:           5,
			TrackingSyncInterval: 6 * time.Hour,
			PaymentLogRetention:  365 * 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Email: EmailConfig{
			Provider:  "resend",
			From:      "Conectados 420 <no-reply@conectados420.cl>",
			SESRegion: "us-east-1",
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "storefront",
			SampleRate:  1.0,
		},
		Payments: PaymentsConfig{
			MercadoPagoBaseURL: "https://api.mercadopago.com",
			DefaultPayerEmail:  "test@test.com",
		},
		Carrier: CarrierConfig{
			Sandbox:        true,
			TrackingURL:    "https://www.blue.cl/seguimiento/",
			FreeThreshold:  50000,
			OriginName:     "Conectados 420",
			RequestTimeout: 10 * time.Second,
		},
		Redis: RedisConfig{
			DedupTTL: 24 * time.Hour,
		},
		Exports: ExportsConfig{
			S3Prefix: "shipments/",
		},
		Environment: "development",
	}
}

// Load reads configuration from the environment on top of Defaults.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile reads an optional YAML file, then applies environment overrides.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Environment == "production" && !cfg.CORS.AllowAllOrigins && len(cfg.CORS.AllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
	}
	if err := validateURLs(cfg); err != nil {
		return Config{}, err
	}
	if cfg.Environment == "development" && len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowAllOrigins = true
	}
	return cfg, nil
}

// validateURLs rejects malformed links before they reach emails, payment
// notifications or carrier calls. Customer-facing links must be HTTPS in
// production.
func validateURLs(cfg Config) error {
	production := cfg.Environment == "production"
	if err := validation.Origin(cfg.Server.PublicURL, "PUBLIC_URL", production); err != nil {
		return err
	}
	if err := validation.Origin(cfg.Server.BaseURL, "SERVER_BASE_URL", false); err != nil {
		return err
	}
	if err := validation.URL(cfg.Payments.MercadoPagoBaseURL, "MP_BASE_URL", false); err != nil {
		return err
	}
	if err := validation.URL(cfg.Email.SESEndpoint, "SES_ENDPOINT", false); err != nil {
		return err
	}
	return validation.URL(cfg.Carrier.TrackingURL, "BLUEX_TRACKING_URL", production)
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.BaseURL = strings.TrimRight(getEnv("SERVER_BASE_URL", cfg.Server.BaseURL), "/")
	cfg.Server.PublicURL = strings.TrimRight(getEnv("PUBLIC_URL", cfg.Server.PublicURL), "/")

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxConnections = getEnvInt("DATABASE_MAX_CONNECTIONS", cfg.Database.MaxConnections)
	cfg.Database.MaxIdle = getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", cfg.Database.MaxIdle)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	if hours := getEnvInt("JWT_EXPIRY_HOURS", 0); hours > 0 {
		cfg.Auth.JWTExpiry = time.Duration(hours) * time.Hour
	}
	cfg.Auth.CSRFKey = getEnv("CSRF_KEY", cfg.Auth.CSRFKey)

	cfg.RateLimit.PublicPerMinute = getEnvInt("RATE_LIMIT_PUBLIC", cfg.RateLimit.PublicPerMinute)
	cfg.RateLimit.CheckoutPerMinute = getEnvInt("RATE_LIMIT_CHECKOUT", cfg.RateLimit.CheckoutPerMinute)
	cfg.RateLimit.WebhookPerMinute = getEnvInt("RATE_LIMIT_WEBHOOK", cfg.RateLimit.WebhookPerMinute)
	cfg.RateLimit.AdminPerMinute = getEnvInt("RATE_LIMIT_ADMIN", cfg.RateLimit.AdminPerMinute)
	cfg.RateLimit.LoginPer15Minutes = getEnvInt("RATE_LIMIT_LOGIN", cfg.RateLimit.LoginPer15Minutes)
	cfg.RateLimit.TrustedProxyCIDRs = getEnvList("TRUSTED_PROXY_CIDRS", cfg.RateLimit.TrustedProxyCIDRs)

	cfg.AdminBootstrap.Name = getEnv("ADMIN_NAME", cfg.AdminBootstrap.Name)
	cfg.AdminBootstrap.Email = getEnv("ADMIN_EMAIL", cfg.AdminBootstrap.Email)
	cfg.AdminBootstrap.Password = getEnv("ADMIN_PASSWORD", cfg.AdminBootstrap.Password)

	cfg.Jobs.RetryEmail = getEnvInt("JOB_RETRY_EMAIL", cfg.Jobs.RetryEmail)
	cfg.Jobs.TrackingSyncInterval = getEnvDuration("JOB_TRACKING_SYNC_INTERVAL", cfg.Jobs.TrackingSyncInterval)
	cfg.Jobs.PaymentLogRetention = getEnvDuration("JOB_PAYMENT_LOG_RETENTION", cfg.Jobs.PaymentLogRetention)
	cfg.Jobs.DisablePeriodicJobs = getEnvBool("JOB_DISABLE_PERIODIC", cfg.Jobs.DisablePeriodicJobs)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	cfg.CORS.AllowAllOrigins = getEnvBool("CORS_ALLOW_ALL", cfg.CORS.AllowAllOrigins)
	cfg.CORS.AllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)

	cfg.Email.Enabled = getEnvBool("EMAIL_ENABLED", cfg.Email.Enabled)
	cfg.Email.Provider = getEnv("EMAIL_PROVIDER", cfg.Email.Provider)
	cfg.Email.From = getEnv("FROM_EMAIL", cfg.Email.From)
	cfg.Email.ResendAPIKey = getEnv("RESEND_API_KEY", cfg.Email.ResendAPIKey)
	cfg.Email.SESRegion = getEnv("SES_REGION", cfg.Email.SESRegion)
	cfg.Email.SESAccessKey = getEnv("SES_ACCESS_KEY_ID", cfg.Email.SESAccessKey)
	cfg.Email.SESSecretKey = getEnv("SES_SECRET_ACCESS_KEY", cfg.Email.SESSecretKey)
	cfg.Email.SESEndpoint = getEnv("SES_ENDPOINT", cfg.Email.SESEndpoint)

	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = getEnv("TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.ServiceName = getEnv("TRACING_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.OTLPEndpoint)
	cfg.Tracing.SampleRate = getEnvFloat("TRACING_SAMPLE_RATE", cfg.Tracing.SampleRate)

	cfg.Payments.MercadoPagoAccessToken = getEnv("MP_ACCESS_TOKEN", cfg.Payments.MercadoPagoAccessToken)
	cfg.Payments.MercadoPagoBaseURL = getEnv("MP_BASE_URL", cfg.Payments.MercadoPagoBaseURL)
	cfg.Payments.DefaultPayerEmail = getEnv("MP_DEFAULT_PAYER_EMAIL", cfg.Payments.DefaultPayerEmail)

	cfg.Carrier.Enabled = getEnvBool("BLUEX_ENABLED", cfg.Carrier.Enabled)
	cfg.Carrier.APIKey = getEnv("BLUEX_API_KEY", cfg.Carrier.APIKey)
	cfg.Carrier.APISecret = getEnv("BLUEX_API_SECRET", cfg.Carrier.APISecret)
	cfg.Carrier.AccountNumber = getEnv("BLUEX_ACCOUNT_NUMBER", cfg.Carrier.AccountNumber)
	cfg.Carrier.Sandbox = getEnvBool("BLUEX_SANDBOX", cfg.Carrier.Sandbox)
	cfg.Carrier.OriginComuna = getEnv("BLUEX_ORIGIN_COMUNA", cfg.Carrier.OriginComuna)
	cfg.Carrier.OriginName = getEnv("BLUEX_ORIGIN_NAME", cfg.Carrier.OriginName)
	cfg.Carrier.OriginAddress = getEnv("BLUEX_ORIGIN_ADDRESS", cfg.Carrier.OriginAddress)
	cfg.Carrier.OriginPhone = getEnv("BLUEX_ORIGIN_PHONE", cfg.Carrier.OriginPhone)
	cfg.Carrier.TrackingURL = getEnv("BLUEX_TRACKING_URL", cfg.Carrier.TrackingURL)

	cfg.Redis.URL = getEnv("REDIS_URL", cfg.Redis.URL)
	cfg.Redis.DedupTTL = getEnvDuration("REDIS_DEDUP_TTL", cfg.Redis.DedupTTL)

	cfg.Exports.S3Bucket = getEnv("EXPORTS_S3_BUCKET", cfg.Exports.S3Bucket)
	cfg.Exports.S3Prefix = getEnv("EXPORTS_S3_PREFIX", cfg.Exports.S3Prefix)
	cfg.Exports.S3Region = getEnv("EXPORTS_S3_REGION", cfg.Exports.S3Region)

	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
