package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             2,
		WritesPerSecond:   1,
		WriteBurst:        1,
		CleanupInterval:   time.Hour,
		BucketTTL:         time.Minute,
	}
}

func TestRateLimiter_Burst(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	require.True(t, rl.Allow("1.1.1.1").Allowed)
	require.True(t, rl.Allow("1.1.1.1").Allowed)

	info := rl.Allow("1.1.1.1")
	require.False(t, info.Allowed)
	require.GreaterOrEqual(t, info.RetryAfter, 1)

	// buckets are per IP
	require.True(t, rl.Allow("2.2.2.2").Allowed)
}

func TestRateLimiter_Refill(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	now := time.Now()
	require.True(t, rl.take("k", 1, 1, now).Allowed)
	require.False(t, rl.take("k", 1, 1, now).Allowed)
	require.True(t, rl.take("k", 1, 1, now.Add(time.Second)).Allowed)
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()

	rl.Allow("1.1.1.1")
	rl.AllowWrite("1.1.1.1")
	require.Equal(t, 2, rl.BucketCount())

	rl.cleanup(time.Now().Add(2 * time.Minute))
	require.Equal(t, 0, rl.BucketCount())
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter(testConfig())
	defer rl.Stop()
	handler := RateLimitMiddleware(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/v1/strategy", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, do(http.MethodPost).Code)

	// read budget left, write budget spent
	rec := do(http.MethodPost)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = do(http.MethodGet)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	require.Equal(t, "10.0.0.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	require.Equal(t, "10.0.0.2", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	require.Equal(t, "10.0.0.3", ClientIP(req))
}
