// Package metrics exposes Prometheus instrumentation for the analytics
// pipeline and API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts API requests by method, route, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "liquidlens_http_requests_total", Help: "API requests by method, path, and status"},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks API latency per route.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "liquidlens_http_request_duration_seconds",
			Help:    "API request latency by path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	// BooksIngested counts order-book snapshots taken off the feed.
	BooksIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "liquidlens_books_ingested_total", Help: "Book snapshots ingested by venue"},
		[]string{"venue"},
	)

	// ScansTotal counts arbitrage scans by token.
	ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "liquidlens_arbitrage_scans_total", Help: "Arbitrage scans by token"},
		[]string{"token"},
	)

	// OpportunitiesDetected counts profitable dislocations found.
	OpportunitiesDetected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "liquidlens_opportunities_detected_total", Help: "Profitable dislocations detected"},
	)

	// OpportunitySpreadPercent observes the raw spread of detected
	// opportunities.
	OpportunitySpreadPercent = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "liquidlens_opportunity_spread_percent",
			Help:    "Raw spread percentage of detected opportunities",
			Buckets: prometheus.LinearBuckets(0, 0.25, 20),
		},
	)

	// WSClients gauges connected WebSocket clients.
	WSClients = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "liquidlens_ws_clients", Help: "Connected WebSocket clients"},
	)

	// FeedReconnects counts venue feed reconnections.
	FeedReconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "liquidlens_feed_reconnects_total", Help: "Feed reconnects by venue"},
		[]string{"venue"},
	)
)

// NewRegistry builds a registry with all application collectors plus the
// standard Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		BooksIngested,
		ScansTotal,
		OpportunitiesDetected,
		OpportunitySpreadPercent,
		WSClients,
		FeedReconnects,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
