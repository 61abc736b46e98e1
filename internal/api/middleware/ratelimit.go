package middleware

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/conectados420/storefront/internal/api/problem"
	"github.com/conectados420/storefront/internal/config"
)

type RateLimitTier string

const (
	TierPublic   RateLimitTier = "public"
	TierCheckout RateLimitTier = "checkout" // order creation and card payments
	TierAdmin    RateLimitTier = "admin"
	TierLogin    RateLimitTier = "login"
	TierWebhook  RateLimitTier = "webhook"
)

const (
	limiterIdleTTL  = 15 * time.Minute
	limiterSweepDur = 5 * time.Minute
)

type rateLimitKey string

const rateLimitTierKey rateLimitKey = "rateLimitTier"

func WithRateLimitTier(ctx context.Context, tier RateLimitTier) context.Context {
	return context.WithValue(ctx, rateLimitTierKey, tier)
}

// WithRateLimitTierHandler tags requests with tier. It must wrap RateLimit,
// which reads the tag.
func WithRateLimitTierHandler(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithRateLimitTier(r.Context(), tier)))
		})
	}
}

// tierQuota is a token bucket: burst requests, refilled over window.
type tierQuota struct {
	burst  int
	window time.Duration
}

func (q tierQuota) limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(q.window/time.Duration(q.burst)), q.burst)
}

func (q tierQuota) retryAfter() string {
	return strconv.Itoa(int((q.window / time.Duration(q.burst)).Seconds()))
}

// RateLimit applies per-client token buckets by tier. A tier with a zero
// quota is unlimited. Login allows LoginPer15Minutes attempts refilled over
// fifteen minutes; every other tier is per minute.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(map[RateLimitTier]tierQuota{
		TierPublic:   {burst: cfg.PublicPerMinute, window: time.Minute},
		TierCheckout: {burst: cfg.CheckoutPerMinute, window: time.Minute},
		TierAdmin:    {burst: cfg.AdminPerMinute, window: time.Minute},
		TierWebhook:  {burst: cfg.WebhookPerMinute, window: time.Minute},
		TierLogin:    {burst: cfg.LoginPer15Minutes, window: 15 * time.Minute},
	})
	proxies := parseProxies(cfg.TrustedProxyCIDRs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			tier := TierPublic
			if value, ok := r.Context().Value(rateLimitTierKey).(RateLimitTier); ok {
				tier = value
			}

			limiter, quota := store.limiter(tier, clientKey(r, proxies))
			if limiter == nil || limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Retry-After", quota.retryAfter())
			zerolog.Ctx(r.Context()).Warn().
				Str("tier", string(tier)).
				Str("path", r.URL.Path).
				Msg("rate limit exceeded")
			problem.WriteProblem(w, problem.ProblemDetails{
				Type:     problem.TypeRateLimited,
				Title:    "Too many requests",
				Status:   http.StatusTooManyRequests,
				Instance: r.URL.Path,
			})
		})
	}
}

type limiterStore struct {
	mu       sync.Mutex
	quotas   map[RateLimitTier]tierQuota
	limiters map[string]*limiterEntry
	lastGC   time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(quotas map[RateLimitTier]tierQuota) *limiterStore {
	return &limiterStore{
		quotas:   quotas,
		limiters: make(map[string]*limiterEntry),
		lastGC:   time.Now(),
	}
}

// limiter returns the bucket for (tier, key), or nil when tier is unlimited.
// Idle buckets are swept inline so the store needs no goroutine.
func (s *limiterStore) limiter(tier RateLimitTier, key string) (*rate.Limiter, tierQuota) {
	quota := s.quotas[tier]
	if quota.burst <= 0 {
		return nil, quota
	}

	lookup := string(tier) + "|" + key
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastGC) > limiterSweepDur {
		for k, entry := range s.limiters {
			if now.Sub(entry.lastSeen) > limiterIdleTTL {
				delete(s.limiters, k)
			}
		}
		s.lastGC = now
	}

	entry, ok := s.limiters[lookup]
	if !ok {
		entry = &limiterEntry{limiter: quota.limiter()}
		s.limiters[lookup] = entry
	}
	entry.lastSeen = now
	return entry.limiter, quota
}

func parseProxies(cidrs []string) []netip.Prefix {
	var out []netip.Prefix
	for _, raw := range cidrs {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		out = append(out, prefix.Masked())
	}
	return out
}

// clientKey identifies the caller. X-Forwarded-For and X-Real-IP are only
// honoured when the connection comes from a trusted proxy.
func clientKey(r *http.Request, proxies []netip.Prefix) string {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if !fromProxy(remote, proxies) {
		return remote
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	return remote
}

func fromProxy(ip string, proxies []netip.Prefix) bool {
	if len(proxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range proxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
