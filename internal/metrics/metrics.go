package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "token_watchlist",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "token_watchlist",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "token_watchlist",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Sweep / market data metrics ────────────────────────────────────────

var (
	SweepTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "token_watchlist",
		Subsystem: "sweep",
		Name:      "total",
		Help:      "Total number of watchlist sweeps by outcome.",
	}, []string{"status"})

	SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "token_watchlist",
		Subsystem: "sweep",
		Name:      "duration_seconds",
		Help:      "Duration of a full watchlist sweep in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	SweepLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "token_watchlist",
		Subsystem: "sweep",
		Name:      "last_success_timestamp",
		Help:      "Unix timestamp of the last completed sweep.",
	})

	MarketFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "token_watchlist",
		Subsystem: "market",
		Name:      "fetch_total",
		Help:      "Total market data fetch attempts per chain.",
	}, []string{"chain", "status"})

	MarketFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "token_watchlist",
		Subsystem: "market",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of market data fetches per chain in seconds.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"chain"})
)

// ── Alert delivery metrics ─────────────────────────────────────────────

var (
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "token_watchlist",
		Subsystem: "alerts",
		Name:      "sent_total",
		Help:      "Total alerts successfully delivered.",
	}, []string{"chain"})

	AlertsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "token_watchlist",
		Subsystem: "alerts",
		Name:      "failed_total",
		Help:      "Total alert delivery failures.",
	}, []string{"chain"})

	WatchlistSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "token_watchlist",
		Subsystem: "business",
		Name:      "watchlist_entries",
		Help:      "Number of watchlist entries across all chats.",
	})
)
