package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkeasy",
			Name:      "api_requests_total",
			Help:      "Backend API requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	broadcasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkeasy",
			Name:      "broadcasts_total",
			Help:      "Cross-view broadcasts by direction.",
		},
		[]string{"direction"},
	)

	cacheRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "parkeasy",
			Name:      "slot_cache_refreshes_total",
			Help:      "Slot cache refreshes by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(apiRequests, broadcasts, cacheRefreshes)
	})
}

// IncAPIRequest increments the request counter for an endpoint label.
func IncAPIRequest(endpoint, outcome string) {
	apiRequests.WithLabelValues(endpoint, outcome).Inc()
}

// IncBroadcast counts a sent or received broadcast.
func IncBroadcast(direction string) {
	broadcasts.WithLabelValues(direction).Inc()
}

// IncCacheRefresh counts a slot cache refresh attempt.
func IncCacheRefresh(outcome string) {
	cacheRefreshes.WithLabelValues(outcome).Inc()
}
