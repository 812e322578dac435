// AngelaMos | 2026
// revoker_test.go

package auth

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRevokeSkipsExpiredTokens(t *testing.T) {
	r := NewRedisRevoker(unreachableRedis(t))
	r.now = fixedClock(testNow)

	require.NoError(t, r.Revoke(t.Context(), "jti-1", testNow.Add(-time.Second)))
	require.NoError(t, r.Revoke(t.Context(), "jti-1", testNow))
}

func TestRevokerSurfacesBackendErrors(t *testing.T) {
	r := NewRedisRevoker(unreachableRedis(t))
	r.now = fixedClock(testNow)

	err := r.Revoke(t.Context(), "jti-1", testNow.Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deny-list token")

	revoked, err := r.IsRevoked(t.Context(), "jti-1")
	require.Error(t, err)
	assert.False(t, revoked)
}

func TestDenyListKey(t *testing.T) {
	assert.Equal(t, "session:revoked:abc", denyListKey("abc"))
}
