// Package metrics defines the console's Prometheus metrics and the HTTP
// middleware that records them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "woomarket_console_build_info",
			Help: "Build information of the operator console",
		},
		[]string{"version"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woomarket_console_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "woomarket_console_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "woomarket_console_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Store metrics
	SnapshotUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woomarket_console_snapshot_updates_total",
			Help: "Total number of collection snapshots received from the store",
		},
		[]string{"collection"},
	)

	CollectionSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "woomarket_console_collection_size",
			Help: "Number of entities in the current snapshot of each collection",
		},
		[]string{"collection"},
	)

	StoreMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "woomarket_console_store_mutations_total",
			Help: "Total number of store mutations issued by operator actions",
		},
		[]string{"op", "status"},
	)
)

// Middleware returns a chi middleware that records HTTP metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// Use the route pattern if available, otherwise use the path
		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = r.URL.Path
		}

		status := strconv.Itoa(ww.Status())
		duration := time.Since(start).Seconds()

		HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// RecordMutation records the outcome of one store mutation.
func RecordMutation(op string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreMutationsTotal.WithLabelValues(op, status).Inc()
}
