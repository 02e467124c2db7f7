// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Trade metrics
	TradesTotal         *prometheus.CounterVec
	TradeDuration       *prometheus.HistogramVec
	TradeVolumeSOL      *prometheus.CounterVec
	ConfirmationLatency *prometheus.HistogramVec

	// Upstream metrics
	QuoteLatency      prometheus.Histogram
	QuoteErrors       *prometheus.CounterVec
	SwapBuildLatency  prometheus.Histogram
	MarketDataFetches *prometheus.CounterVec

	// Solana metrics
	RPCCallLatency  *prometheus.HistogramVec
	RPCRotations    prometheus.Counter
	WSSubscriptions *prometheus.CounterVec

	// Cache metrics
	BalanceCacheLookups *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Bot metrics
	CommandsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_trade_bot"
	}

	return &Metrics{
		// Trade metrics
		TradesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trade",
			Name:      "total",
			Help:      "Total number of trades by direction and outcome kind",
		}, []string{"direction", "outcome"}),
		TradeDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "trade",
			Name:      "duration_seconds",
			Help:      "End-to-end trade duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		}, []string{"direction"}),
		TradeVolumeSOL: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "trade",
			Name:      "volume_sol_total",
			Help:      "Total SOL traded by direction",
		}, []string{"direction"}),
		ConfirmationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "confirmation_latency_seconds",
			Help:      "Time from submission to confirmation by result",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
		}, []string{"result"}),

		// Upstream metrics
		QuoteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jupiter",
			Name:      "quote_latency_seconds",
			Help:      "Quote request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		QuoteErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "jupiter",
			Name:      "quote_errors_total",
			Help:      "Total number of failed quote requests by reason",
		}, []string{"reason"}),
		SwapBuildLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "jupiter",
			Name:      "swap_build_latency_seconds",
			Help:      "Swap transaction build latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		MarketDataFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "fetches_total",
			Help:      "Total number of market data fetches by outcome",
		}, []string{"outcome"}),

		// Solana metrics
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCRotations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_endpoint_rotations_total",
			Help:      "Total number of RPC endpoint rotations after failures",
		}),
		WSSubscriptions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "ws_subscriptions_total",
			Help:      "Total number of signature subscriptions by result",
		}, []string{"result"}),

		// Cache metrics
		BalanceCacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "balance_lookups_total",
			Help:      "Total number of balance cache lookups by result",
		}, []string{"result"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Bot metrics
		CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bot",
			Name:      "commands_total",
			Help:      "Total number of bot commands handled",
		}, []string{"command"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordTrade records a finished trade attempt. outcome is "ok" or an error kind.
func RecordTrade(direction, outcome string, seconds float64) {
	DefaultMetrics.TradesTotal.WithLabelValues(direction, outcome).Inc()
	DefaultMetrics.TradeDuration.WithLabelValues(direction).Observe(seconds)
}

// RecordTradeVolume adds traded SOL.
func RecordTradeVolume(direction string, sol float64) {
	DefaultMetrics.TradeVolumeSOL.WithLabelValues(direction).Add(sol)
}

// RecordConfirmation records how long a confirmation wait took.
func RecordConfirmation(result string, seconds float64) {
	DefaultMetrics.ConfirmationLatency.WithLabelValues(result).Observe(seconds)
}

// RecordQuote records a quote request; reason is empty on success.
func RecordQuote(seconds float64, reason string) {
	DefaultMetrics.QuoteLatency.Observe(seconds)
	if reason != "" {
		DefaultMetrics.QuoteErrors.WithLabelValues(reason).Inc()
	}
}

// RecordSwapBuild records swap build latency.
func RecordSwapBuild(seconds float64) {
	DefaultMetrics.SwapBuildLatency.Observe(seconds)
}

// RecordMarketDataFetch records a market data fetch outcome.
func RecordMarketDataFetch(outcome string) {
	DefaultMetrics.MarketDataFetches.WithLabelValues(outcome).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordRPCRotation increments the endpoint rotation counter.
func RecordRPCRotation() {
	DefaultMetrics.RPCRotations.Inc()
}

// RecordWSSubscription records a signature subscription attempt.
func RecordWSSubscription(result string) {
	DefaultMetrics.WSSubscriptions.WithLabelValues(result).Inc()
}

// RecordBalanceCache records a cache hit or miss.
func RecordBalanceCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.BalanceCacheLookups.WithLabelValues(result).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordCommand counts a handled bot command.
func RecordCommand(command string) {
	DefaultMetrics.CommandsTotal.WithLabelValues(command).Inc()
}
