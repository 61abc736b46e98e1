package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// HealthStatus is a gauge that tracks overall server health status
// Values: 0 = unhealthy, 1 = degraded, 2 = healthy
var HealthStatus = promauto.With(Registry).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_status",
		Help:      "Overall server health status (0=unhealthy, 1=degraded, 2=healthy)",
	},
)

// HealthCheckStatus tracks individual health check results
// Values: 0 = fail, 1 = warn, 2 = pass
var HealthCheckStatus = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_check_status",
		Help:      "Individual health check status (0=fail, 1=warn, 2=pass)",
	},
	[]string{"check"},
)

var HealthCheckLatency = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_check_latency_ms",
		Help:      "Health check latency in milliseconds",
	},
	[]string{"check"},
)

// Storefront metrics

// PaymentsProcessed counts card charges and webhook reconciliations by the
// processor status they ended in.
var PaymentsProcessed = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_processed_total",
		Help:      "Total number of payments processed",
	},
	[]string{"source", "status"}, // source: charge|webhook
)

// WebhookNotifications counts Mercado Pago notifications by outcome.
var WebhookNotifications = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_notifications_total",
		Help:      "Total number of payment notifications received",
	},
	[]string{"outcome"}, // outcome: handled|ignored|duplicate|error
)

var EmailsSent = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_total",
		Help:      "Total number of transactional emails by template and outcome",
	},
	[]string{"template", "outcome"}, // outcome: sent|skipped|invalid|error
)

var ShippingQuotes = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "shipping_quotes_total",
		Help:      "Total number of shipping quotes by strategy",
	},
	[]string{"strategy", "fallback"},
)

var CouponValidations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "coupon_validations_total",
		Help:      "Total number of coupon validations by outcome",
	},
	[]string{"outcome"},
)

// Observer hooks passed to the domain services' WithObserver.

func ObservePayment(source, status string) {
	PaymentsProcessed.WithLabelValues(source, status).Inc()
}

func ObserveEmail(template, outcome string) {
	EmailsSent.WithLabelValues(template, outcome).Inc()
}

func ObserveShippingQuote(strategy string, fallback bool) {
	label := "false"
	if fallback {
		label = "true"
	}
	ShippingQuotes.WithLabelValues(strategy, label).Inc()
}

func ObserveCoupon(outcome string) {
	CouponValidations.WithLabelValues(outcome).Inc()
}

// Init initializes the metrics registry and sets version information
func Init(version, commit, buildDate string) {
	// Register default Go metrics (memory, goroutines, GC, etc.)
	Registry.MustRegister(collectors.NewGoCollector())

	// Register process metrics (CPU, memory, file descriptors)
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
