package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics for the analysis engine
type Registry struct {
	registry *prometheus.Registry

	// Analysis metrics
	AnalysesTotal     *prometheus.CounterVec
	AnalysesRunning   prometheus.Gauge
	AnalysisDuration  *prometheus.HistogramVec
	IterationsTotal   *prometheus.CounterVec
	StepDuration      *prometheus.HistogramVec
	BestCoverage      *prometheus.GaugeVec
	EvaluationsFailed prometheus.Counter

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.registry.MustRegister(collectors.NewGoCollector())
	r.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r.initAnalysisMetrics()
	r.initHTTPMetrics()

	return r
}

// Handler returns an HTTP handler exposing the registry in Prometheus format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordAnalysisStart marks an analysis as running
func (r *Registry) RecordAnalysisStart() {
	r.AnalysesRunning.Inc()
}

// RecordAnalysisEnd records a finished analysis with its terminal status
func (r *Registry) RecordAnalysisEnd(algorithm, status string, duration time.Duration) {
	r.AnalysesRunning.Dec()
	r.AnalysesTotal.WithLabelValues(algorithm, status).Inc()
	r.AnalysisDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
}

// RecordStep records one search iteration
func (r *Registry) RecordStep(algorithm string, duration time.Duration, coverage float64) {
	r.IterationsTotal.WithLabelValues(algorithm).Inc()
	r.StepDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
	r.BestCoverage.WithLabelValues(algorithm).Set(coverage)
}

// RecordEvaluationFailure counts an aborted fitness evaluation
func (r *Registry) RecordEvaluationFailure() {
	r.EvaluationsFailed.Inc()
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
