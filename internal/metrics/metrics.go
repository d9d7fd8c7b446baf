package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CompareRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phonepick_compare_requests_total",
			Help: "Total number of comparison requests by outcome",
		},
		[]string{"outcome"},
	)

	BackendAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phonepick_backend_attempts_total",
			Help: "Total number of backend attempts by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	AttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "phonepick_backend_attempt_duration_seconds",
			Help: "Duration of individual backend attempts in seconds",
		},
		[]string{"backend"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "phonepick_compare_cache_hits_total",
			Help: "Total number of comparison requests served from the result cache",
		},
	)
)
