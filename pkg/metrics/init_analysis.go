package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initAnalysisMetrics() {
	r.AnalysesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcontrol_analyses_total",
			Help: "Total number of finished analyses",
		},
		[]string{"algorithm", "status"},
	)

	r.AnalysesRunning = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "netcontrol_analyses_running",
			Help: "Number of analyses currently running",
		},
	)

	r.AnalysisDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netcontrol_analysis_duration_seconds",
			Help:    "Wall-clock duration of finished analyses",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 300, 1800},
		},
		[]string{"algorithm"},
	)

	r.IterationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcontrol_iterations_total",
			Help: "Total number of search iterations executed",
		},
		[]string{"algorithm"},
	)

	r.StepDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netcontrol_step_duration_seconds",
			Help:    "Duration of a single search iteration",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"algorithm"},
	)

	r.BestCoverage = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "netcontrol_best_coverage",
			Help: "Best coverage fraction reported by the most recent iteration",
		},
		[]string{"algorithm"},
	)

	r.EvaluationsFailed = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "netcontrol_evaluations_failed_total",
			Help: "Total number of fitness evaluations that aborted an analysis",
		},
	)
}
