package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and owner kind",
	}, []string{"operation", "owner"})

	CatalogListingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_listings_total",
		Help: "Category listings served, by sort key",
	}, []string{"sort"})

	SearchQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_queries_total",
		Help: "Search queries by kind (search, suggest, resolve) and data source",
	}, []string{"kind", "source"})

	CatalogCacheRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_refresh_total",
		Help: "Catalog cache refreshes by result",
	}, []string{"result"})

	AuthAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_attempts_total",
		Help: "Sign-in and sign-up attempts by method and result",
	}, []string{"method", "result"})

	CartSocketsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cart_sockets_connected",
		Help: "Open cart sync websocket connections",
	})
)

// Result labels.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
