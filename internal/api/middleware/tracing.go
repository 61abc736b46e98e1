package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/conectados420/storefront/internal/api"

// Tracing starts a server span per request, continuing any W3C trace context
// the caller sent. Once the mux has matched, the span is renamed after the
// route pattern (e.g. "GET /api/v1/orders/{id}") and tagged with
// http.route. Mount it inside TrackRoute so the pattern is visible.
func Tracing(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	propagator := otel.GetTextMapPropagator()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		spanName := r.Method + " " + r.URL.Path
		ctx, span := tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(r.Method),
				semconv.HTTPURL(r.URL.String()),
				attribute.String("http.user_agent", r.UserAgent()),
				semconv.HTTPScheme(schemeFromRequest(r)),
				semconv.NetHostName(r.Host),
			),
		)
		defer span.End()

		// Add correlation ID to span if available (set by CorrelationID middleware)
		if requestID := GetRequestID(ctx); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}

		// Wrap response writer to capture status code
		ww := &tracingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK, // Default to 200 if not explicitly set
		}

		// Process request
		next.ServeHTTP(ww, r.WithContext(ctx))

		if pattern := RoutePattern(r.WithContext(ctx)); pattern != "" {
			span.SetName(pattern)
			span.SetAttributes(semconv.HTTPRoute(routePath(pattern)))
		}
		span.SetAttributes(semconv.HTTPStatusCode(ww.statusCode))

		// Mark span as error if status code indicates failure
		if ww.statusCode >= 400 {
			span.SetStatus(codes.Error, http.StatusText(ww.statusCode))
		} else {
			span.SetStatus(codes.Ok, "")
		}
	})
}

// routePath drops the method prefix of a ServeMux pattern.
func routePath(pattern string) string {
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}

// tracingResponseWriter wraps http.ResponseWriter to capture the status code
type tracingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *tracingResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *tracingResponseWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

// schemeFromRequest determines the HTTP scheme (http or https) from the request
func schemeFromRequest(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
