// Package metrics provides Prometheus instrumentation for the pricing engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RecomputesTotal counts full pipeline passes, partitioned by trigger.
	RecomputesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_recomputes_total",
		Help: "Total number of full price recompute passes",
	}, []string{"trigger"})

	// RecomputeLatency tracks how long one pipeline pass takes.
	RecomputeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricing_recompute_duration_seconds",
		Help:    "Recompute pipeline latency in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	// TierOpsTotal counts tier mutations by operation.
	TierOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_tier_operations_total",
		Help: "Total tier mutations by operation",
	}, []string{"op"})

	// ValidationRejections counts mutations rejected at the validation boundary.
	ValidationRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_validation_rejections_total",
		Help: "Mutations rejected by tier validation",
	})

	// BelowCostTiers tracks tiers currently flagged as priced below cost.
	BelowCostTiers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pricing_below_cost_tiers",
		Help: "Tiers whose discounted price sits below HB Naik",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pricing_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; the API surface is small.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
