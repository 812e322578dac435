// AngelaMos | 2026
// redis.go

package core

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/storefront-auth/internal/config"
)

const (
	redisDialTimeout = 5 * time.Second
	redisPingTimeout = 2 * time.Second
)

// Redis backs the session deny-list and the shared login rate limit. A nil
// *Redis means the deployment runs without it and every method is safe to
// call.
type Redis struct {
	Client *redis.Client
}

// NewRedis returns nil without error when no URL is configured.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = redisDialTimeout
	opts.ConnMaxIdleTime = 5 * time.Minute

	r := &Redis{Client: redis.NewClient(opts)}
	if err := r.Ping(ctx); err != nil {
		_ = r.Close() //nolint:errcheck // connection never became usable
		return nil, err
	}

	return r, nil
}

// Raw is the underlying client, or nil when Redis is off. Callers that take
// an optional *redis.Client use it to avoid a typed-nil interface.
func (r *Redis) Raw() *redis.Client {
	if r == nil {
		return nil
	}
	return r.Client
}

func (r *Redis) Ping(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("redis ping: not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) PoolStats() *redis.PoolStats {
	if r == nil {
		return nil
	}
	return r.Client.PoolStats()
}

func (r *Redis) Close() error {
	if r == nil {
		return nil
	}
	return r.Client.Close()
}
