// AngelaMos | 2026
// revoker.go

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denyListPrefix = "session:revoked:"

// RedisRevoker keeps revoked token IDs until their tokens would have expired
// anyway.
type RedisRevoker struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisRevoker(client *redis.Client) *RedisRevoker {
	return &RedisRevoker{
		client: client,
		now:    time.Now,
	}
}

func (r *RedisRevoker) Revoke(
	ctx context.Context,
	tokenID string,
	expiresAt time.Time,
) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, denyListKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("deny-list token: %w", err)
	}

	return nil
}

func (r *RedisRevoker) IsRevoked(
	ctx context.Context,
	tokenID string,
) (bool, error) {
	exists, err := r.client.Exists(ctx, denyListKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("check deny-list: %w", err)
	}

	return exists > 0, nil
}

func denyListKey(tokenID string) string {
	return denyListPrefix + tokenID
}
