package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeplanner",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "routeplanner",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeplanner",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Geocode cache lookups by cache and result (hit, negative_hit, miss)",
	}, []string{"cache", "result"})

	UpstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeplanner",
		Subsystem: "upstream",
		Name:      "calls_total",
		Help:      "Outbound provider calls by provider and outcome",
	}, []string{"provider", "outcome"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "routeplanner",
		Subsystem: "gateway",
		Name:      "rate_limited_total",
		Help:      "Gateway requests rejected by the per-client quota",
	})

	Retries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "routeplanner",
		Subsystem: "resolver",
		Name:      "retries_total",
		Help:      "Geocoding attempts retried after backoff",
	})
)
