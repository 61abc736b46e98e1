// Package dedup suppresses duplicate deliveries of the same event using
// Redis SET NX with a TTL.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

// Guard records event keys. A nil *Guard, or one without a client, treats
// every key as new.
type Guard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func New(client *redis.Client, prefix string, ttl time.Duration) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{client: client, prefix: prefix, ttl: ttl}
}

// Connect parses a redis:// URL, falling back to a bare host:port address,
// and pings the server.
func Connect(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		opts = &redis.Options{Addr: rawURL}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Enabled reports whether keys are actually recorded.
func (g *Guard) Enabled() bool {
	return g != nil && g.client != nil
}

// Claim reports whether key is seen for the first time within the TTL.
func (g *Guard) Claim(ctx context.Context, key string) (bool, error) {
	if !g.Enabled() {
		return true, nil
	}
	ok, err := g.client.SetNX(ctx, g.prefix+key, time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

// Release forgets key so a later delivery is processed again.
func (g *Guard) Release(ctx context.Context, key string) error {
	if !g.Enabled() {
		return nil
	}
	if err := g.client.Del(ctx, g.prefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// Ping checks the Redis connection. A disabled guard is always healthy.
func (g *Guard) Ping(ctx context.Context) error {
	if !g.Enabled() {
		return nil
	}
	return g.client.Ping(ctx).Err()
}
