// Package server provides the HTTP API of fxtree: POST /reduce runs a
// reduction on a registered backend, and /backends, /health and /metrics
// describe the service.
package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects and exposes server metrics in Prometheus format.
// Reduction counts and durations are recorded by the reduction package and
// exposed through the same registry.
type Metrics struct {
	handler http.Handler
}

var (
	activeRequests = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fxtree_http_active_requests",
		Help: "Current number of active HTTP requests",
	})
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fxtree_http_requests_total",
		Help: "Total number of HTTP requests by path and status code",
	}, []string{"path", "code"})
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fxtree_http_request_duration_seconds",
		Help:    "HTTP request latency by path",
		Buckets: prometheus.DefBuckets,
	}, []string{"path"})
)

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		handler: promhttp.Handler(),
	}
}

// Begin marks the start of a request.
func (m *Metrics) Begin() {
	activeRequests.Inc()
}

// End records a finished request.
//
// Parameters:
//   - path: The request path.
//   - code: The response status code.
//   - seconds: The request latency.
func (m *Metrics) End(path string, code int, seconds float64) {
	activeRequests.Dec()
	requestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
	requestDuration.WithLabelValues(path).Observe(seconds)
}

// WritePrometheus writes metrics in Prometheus text format to the HTTP response.
func (m *Metrics) WritePrometheus(w http.ResponseWriter, r *http.Request) {
	m.handler.ServeHTTP(w, r)
}

// handleMetrics is the HTTP handler for the /metrics endpoint.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.metrics.WritePrometheus(w, r)
}
