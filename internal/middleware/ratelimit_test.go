// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:   PerWindow(10, 2, time.Minute),
		KeyFunc: KeyByIPAndPath,
	})
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.7:5000", "/api/auth/login").Code)
	assert.Equal(t, http.StatusOK, send("198.51.100.7:5001", "/api/auth/login").Code)

	limited := send("198.51.100.7:5002", "/api/auth/login")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), `"success":false`)

	assert.Equal(t, http.StatusOK, send("198.51.100.7:5003", "/api/auth/register").Code)
	assert.Equal(t, http.StatusOK, send("203.0.113.9:5000", "/api/auth/login").Code)
}

func TestRateLimiterBypass(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{
		Limit:      PerWindow(1, 1, time.Minute),
		BypassFunc: func(*http.Request) bool { return true },
	})
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for range 5 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestClientIPPrefersForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", clientIP(req))

	req.Header.Set("X-Real-IP", "192.0.2.5")
	assert.Equal(t, "192.0.2.5", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.1, 198.51.100.2")
	assert.Equal(t, "198.51.100.2", clientIP(req))
}

func TestLocalBucketsRefillAndSweep(t *testing.T) {
	buckets := newLocalBuckets(PerWindow(60, 1, time.Minute))
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, buckets.allow("k", start).Allowed)

	denied := buckets.allow("k", start)
	assert.Equal(t, 0, denied.Allowed)
	assert.Equal(t, time.Second, denied.RetryAfter)

	assert.Equal(t, 1, buckets.allow("k", start.Add(time.Second)).Allowed)

	buckets.allow("other", start.Add(time.Second))
	buckets.allow("k", start.Add(time.Hour))
	assert.NotContains(t, buckets.buckets, "other")
}
