package metrics

import (
	"math/big"
	"net/http"
	"sync"
	"time"

	"cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Share vault metrics collector

var (
	// Singleton collector
	collector     *Collector
	collectorOnce sync.Once
)

// Collector holds all share vault metrics
type Collector struct {
	// Ledger operations
	DepositsTotal    *prometheus.CounterVec
	WithdrawalsTotal *prometheus.CounterVec
	SharesMinted     *prometheus.CounterVec
	SharesBurned     *prometheus.CounterVec
	UnderlyingPaid   *prometheus.CounterVec
	GateRejections   *prometheus.CounterVec

	// Pool state
	TotalShares  *prometheus.GaugeVec
	PoolBalance  *prometheus.GaugeVec
	ExchangeRate *prometheus.GaugeVec
	PauseFlags   *prometheus.GaugeVec

	// Invariants
	InvariantBroken *prometheus.CounterVec

	// WebSocket metrics
	WSConnectionsActive *prometheus.GaugeVec
	WSMessagesTotal     *prometheus.CounterVec

	// API metrics
	APIRequestsTotal  *prometheus.CounterVec
	APIRequestLatency *prometheus.HistogramVec
	RateLimitHits     *prometheus.CounterVec

	// System metrics
	BlockHeight prometheus.Gauge
}

// GetCollector returns the singleton metrics collector
func GetCollector() *Collector {
	collectorOnce.Do(func() {
		collector = newCollector()
	})
	return collector
}

// newCollector creates a new metrics collector
func newCollector() *Collector {
	c := &Collector{}

	c.DepositsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharevault",
			Subsystem: "ledger",
			Name:      "deposits_total",
			Help:      "Deposits processed by result",
		},
		[]string{"denom", "result"},
	)

	c.WithdrawalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharevault",
			Subsystem: "ledger",
			Name:      "withdrawals_total",
			Help:      "Withdrawals processed by result",
		},
		[]string{"denom", "result"},
	)

	c.SharesMinted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharevault",
			Subsystem: "ledger",
			Name:      "shares_minted",
			Help:      "Shares issued to depositors",
		},
		[]string{"denom"},
	)

	c.SharesBurned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharevault",
			Subsystem: "ledger",
			Name:      "shares_burned",
			Help:      "Shares redeemed by withdrawals",
		},
		[]string{"denom"},
	)

	c.UnderlyingPaid = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharevault",
			Subsystem: "ledger",
			Name:      "underlying_paid",
			Help:      "Underlying paid out to beneficiaries",
		},
		[]string{"denom"},
	)

	c.GateRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharevault",
			Subsystem: "ledger",
			Name:      "rejections_total",
			Help:      "Rejected ledger operations by reason",
		},
		[]string{"operation", "reason"},
	)

	c.TotalShares = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sharevault",
			Subsystem: "pool",
			Name:      "total_shares",
			Help:      "Outstanding shares",
		},
		[]string{"denom"},
	)

	c.PoolBalance = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sharevault",
			Subsystem: "pool",
			Name:      "balance",
			Help:      "Underlying held by the pool",
		},
		[]string{"denom"},
	)

	c.ExchangeRate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sharevault",
			Subsystem: "pool",
			Name:      "exchange_rate",
			Help:      "Underlying per 1e18 shares",
		},
		[]string{"denom"},
	)

	c.PauseFlags = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sharevault",
			Subsystem: "pauser",
			Name:      "flag",
			Help:      "1 when the flag is set",
		},
		[]string{"flag"},
	)

	c.InvariantBroken = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharevault",
			Subsystem: "pool",
			Name:      "invariant_broken_total",
			Help:      "Invariant checks that failed",
		},
		[]string{"route"},
	)

	c.WSConnectionsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sharevault",
			Subsystem: "websocket",
			Name:      "connections_active",
			Help:      "Number of active WebSocket connections",
		},
		[]string{},
	)

	c.WSMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharevault",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages sent",
		},
		[]string{"channel"},
	)

	c.APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharevault",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	c.APIRequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sharevault",
			Subsystem: "api",
			Name:      "request_latency_ms",
			Help:      "API request latency in milliseconds",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"method", "path"},
	)

	c.RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharevault",
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"key_type"},
	)

	c.BlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sharevault",
			Subsystem: "chain",
			Name:      "block_height",
			Help:      "Last block height observed by the end blocker",
		},
	)

	c.register()
	return c
}

func (c *Collector) register() {
	prometheus.MustRegister(c.DepositsTotal)
	prometheus.MustRegister(c.WithdrawalsTotal)
	prometheus.MustRegister(c.SharesMinted)
	prometheus.MustRegister(c.SharesBurned)
	prometheus.MustRegister(c.UnderlyingPaid)
	prometheus.MustRegister(c.GateRejections)

	prometheus.MustRegister(c.TotalShares)
	prometheus.MustRegister(c.PoolBalance)
	prometheus.MustRegister(c.ExchangeRate)
	prometheus.MustRegister(c.PauseFlags)
	prometheus.MustRegister(c.InvariantBroken)

	prometheus.MustRegister(c.WSConnectionsActive)
	prometheus.MustRegister(c.WSMessagesTotal)

	prometheus.MustRegister(c.APIRequestsTotal)
	prometheus.MustRegister(c.APIRequestLatency)
	prometheus.MustRegister(c.RateLimitHits)

	prometheus.MustRegister(c.BlockHeight)
}

// ============ Recording Helpers ============

// RecordDeposit records a successful deposit
func (c *Collector) RecordDeposit(denom string, shares math.Int) {
	c.DepositsTotal.WithLabelValues(denom, "success").Inc()
	c.SharesMinted.WithLabelValues(denom).Add(IntToFloat(shares))
}

// RecordWithdrawal records a successful withdrawal
func (c *Collector) RecordWithdrawal(denom string, shares, payout math.Int) {
	c.WithdrawalsTotal.WithLabelValues(denom, "success").Inc()
	c.SharesBurned.WithLabelValues(denom).Add(IntToFloat(shares))
	c.UnderlyingPaid.WithLabelValues(denom).Add(IntToFloat(payout))
}

// RecordRejection records an operation that failed a check
func (c *Collector) RecordRejection(operation, reason string) {
	c.GateRejections.WithLabelValues(operation, reason).Inc()
}

// RecordPoolState updates the pool gauges
func (c *Collector) RecordPoolState(denom string, totalShares, balance, rate math.Int) {
	c.TotalShares.WithLabelValues(denom).Set(IntToFloat(totalShares))
	c.PoolBalance.WithLabelValues(denom).Set(IntToFloat(balance))
	c.ExchangeRate.WithLabelValues(denom).Set(IntToFloat(rate))
}

// RecordPauseFlag sets the gauge for a pause flag
func (c *Collector) RecordPauseFlag(flag string, paused bool) {
	v := 0.0
	if paused {
		v = 1
	}
	c.PauseFlags.WithLabelValues(flag).Set(v)
}

// RecordInvariantBroken counts a failed invariant route
func (c *Collector) RecordInvariantBroken(route string) {
	c.InvariantBroken.WithLabelValues(route).Inc()
}

// RecordAPIRequest records an API request
func (c *Collector) RecordAPIRequest(method, path, status string, latencyMs float64) {
	c.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	c.APIRequestLatency.WithLabelValues(method, path).Observe(latencyMs)
}

// RecordRateLimitHit counts a rate limited request
func (c *Collector) RecordRateLimitHit(keyType string) {
	c.RateLimitHits.WithLabelValues(keyType).Inc()
}

// RecordWSConnection records WebSocket connection changes
func (c *Collector) RecordWSConnection(delta int) {
	c.WSConnectionsActive.WithLabelValues().Add(float64(delta))
}

// RecordWSMessage records a WebSocket message
func (c *Collector) RecordWSMessage(channel string) {
	c.WSMessagesTotal.WithLabelValues(channel).Inc()
}

// UpdateBlockHeight records the current block height
func (c *Collector) UpdateBlockHeight(height int64) {
	c.BlockHeight.Set(float64(height))
}

// IntToFloat converts an amount for gauge reporting. Precision loss above
// 2^53 is acceptable for dashboards.
func IntToFloat(i math.Int) float64 {
	if i.IsNil() {
		return 0
	}
	f, _ := new(big.Float).SetInt(i.BigInt()).Float64()
	return f
}

// ============ HTTP Handler ============

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for measuring latency
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ElapsedMs returns the elapsed time in milliseconds
func (t *Timer) ElapsedMs() float64 {
	return float64(time.Since(t.start).Microseconds()) / 1000.0
}
