// Package prometheus exposes the service's operational metrics.  Orchestrators
// record run outcomes and external-call latencies here; the HTTP layer mounts
// Handler() at /metrics.
package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis run outcomes used as the "outcome" label value.
const (
	OutcomeCompleted = "completed"
	OutcomeCloned    = "cloned"
	OutcomeError     = "error"
)

// Metrics aggregates all collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	analysisRuns  *prometheus.CounterVec
	batchItems    *prometheus.CounterVec
	scanRuns      *prometheus.CounterVec
	aiCallSeconds *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
	httpSeconds   *prometheus.HistogramVec
}

// New constructs a Metrics instance with a private registry so tests can
// instantiate it repeatedly without duplicate-registration panics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		analysisRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riskradar",
			Name:      "analysis_runs_total",
			Help:      "Analysis orchestrator runs by outcome.",
		}, []string{"outcome"}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riskradar",
			Name:      "batch_items_total",
			Help:      "Batch items processed by outcome.",
		}, []string{"outcome"}),
		scanRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riskradar",
			Name:      "news_scan_runs_total",
			Help:      "News scan runs by outcome.",
		}, []string{"outcome"}),
		aiCallSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "riskradar",
			Name:      "ai_call_duration_seconds",
			Help:      "External AI capability call latency.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}, []string{"capability"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "riskradar",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, path and status.",
		}, []string{"method", "path", "status"}),
		httpSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "riskradar",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	reg.MustRegister(
		m.analysisRuns, m.batchItems, m.scanRuns,
		m.aiCallSeconds, m.httpRequests, m.httpSeconds,
	)
	return m
}

// ObserveAnalysisRun records one analysis orchestrator run outcome.
func (m *Metrics) ObserveAnalysisRun(outcome string) {
	m.analysisRuns.WithLabelValues(outcome).Inc()
}

// ObserveBatchItem records one batch item outcome.
func (m *Metrics) ObserveBatchItem(outcome string) {
	m.batchItems.WithLabelValues(outcome).Inc()
}

// ObserveScanRun records one news scan run outcome.
func (m *Metrics) ObserveScanRun(outcome string) {
	m.scanRuns.WithLabelValues(outcome).Inc()
}

// ObserveAICall records the latency of one external AI capability call.
// capability is "analysis" or "news_search".
func (m *Metrics) ObserveAICall(capability string, d time.Duration) {
	m.aiCallSeconds.WithLabelValues(capability).Observe(d.Seconds())
}

// ObserveHTTPRequest records one served HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, path, status string, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, status).Inc()
	m.httpSeconds.WithLabelValues(method, path).Observe(d.Seconds())
}

// Handler returns the scrape endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
