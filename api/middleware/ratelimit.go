package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/openalpha/share-vault/metrics"
)

// RateLimiter implements a token bucket rate limiter keyed by client IP.
// Ledger writes (deposit, withdraw, pause, faucet) draw from a second,
// stricter bucket.
type RateLimiter struct {
	config *RateLimitConfig

	buckets   map[string]*Bucket
	bucketsMu sync.Mutex

	cleanupTicker *time.Ticker
	stopCh        chan struct{}
	stopOnce      sync.Once
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             float64

	WritesPerSecond float64
	WriteBurst      float64

	CleanupInterval time.Duration
	BucketTTL       time.Duration
}

// DefaultRateLimitConfig returns default configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerSecond: 50,
		Burst:             100,
		WritesPerSecond:   5,
		WriteBurst:        10,
		CleanupInterval:   5 * time.Minute,
		BucketTTL:         time.Hour,
	}
}

// Bucket represents a token bucket
type Bucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastUpdate time.Time
}

// RateLimitInfo describes the outcome of a bucket check
type RateLimitInfo struct {
	Allowed    bool
	Remaining  int
	Limit      int
	RetryAfter int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	rl := &RateLimiter{
		config:        config,
		buckets:       make(map[string]*Bucket),
		cleanupTicker: time.NewTicker(config.CleanupInterval),
		stopCh:        make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop stops the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopCh)
		rl.cleanupTicker.Stop()
	})
}

func (rl *RateLimiter) cleanupLoop() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.cleanup(time.Now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	threshold := now.Add(-rl.config.BucketTTL)

	rl.bucketsMu.Lock()
	defer rl.bucketsMu.Unlock()
	for key, bucket := range rl.buckets {
		if bucket.lastUpdate.Before(threshold) {
			delete(rl.buckets, key)
		}
	}
}

// Allow consumes one request token for ip
func (rl *RateLimiter) Allow(ip string) *RateLimitInfo {
	return rl.take("ip:"+ip, rl.config.Burst, rl.config.RequestsPerSecond, time.Now())
}

// AllowWrite consumes one write token for ip
func (rl *RateLimiter) AllowWrite(ip string) *RateLimitInfo {
	return rl.take("write:"+ip, rl.config.WriteBurst, rl.config.WritesPerSecond, time.Now())
}

func (rl *RateLimiter) take(key string, maxTokens, refillRate float64, now time.Time) *RateLimitInfo {
	rl.bucketsMu.Lock()
	defer rl.bucketsMu.Unlock()

	bucket, ok := rl.buckets[key]
	if !ok {
		bucket = &Bucket{
			tokens:     maxTokens,
			maxTokens:  maxTokens,
			refillRate: refillRate,
			lastUpdate: now,
		}
		rl.buckets[key] = bucket
	}

	bucket.tokens += now.Sub(bucket.lastUpdate).Seconds() * bucket.refillRate
	if bucket.tokens > bucket.maxTokens {
		bucket.tokens = bucket.maxTokens
	}
	bucket.lastUpdate = now

	if bucket.tokens >= 1 {
		bucket.tokens--
		return &RateLimitInfo{
			Allowed:   true,
			Remaining: int(bucket.tokens),
			Limit:     int(bucket.maxTokens),
		}
	}

	retryAfter := 1
	if bucket.refillRate > 0 {
		retryAfter = int((1-bucket.tokens)/bucket.refillRate) + 1
	}
	return &RateLimitInfo{
		Allowed:    false,
		Remaining:  0,
		Limit:      int(bucket.maxTokens),
		RetryAfter: retryAfter,
	}
}

// BucketCount returns the number of live buckets
func (rl *RateLimiter) BucketCount() int {
	rl.bucketsMu.Lock()
	defer rl.bucketsMu.Unlock()
	return len(rl.buckets)
}

// ============ HTTP Middleware ============

// RateLimitMiddleware limits every request per IP, and non-GET requests
// additionally against the write bucket
func RateLimitMiddleware(rl *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			info := rl.Allow(ip)
			if !info.Allowed {
				reject(w, info, "ip")
				return
			}
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))

			if r.Method == http.MethodPost {
				if writeInfo := rl.AllowWrite(ip); !writeInfo.Allowed {
					reject(w, writeInfo, "write")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func reject(w http.ResponseWriter, info *RateLimitInfo, keyType string) {
	metrics.GetCollector().RecordRateLimitHit(keyType)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
	w.Header().Set("X-RateLimit-Remaining", "0")
	w.Header().Set("Retry-After", fmt.Sprintf("%d", info.RetryAfter))
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":       "rate_limit_exceeded",
		"message":     "Too many requests, please slow down",
		"retry_after": info.RetryAfter,
	})
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	ip := r.RemoteAddr
	if i := strings.LastIndexByte(ip, ':'); i >= 0 {
		return ip[:i]
	}
	return ip
}
