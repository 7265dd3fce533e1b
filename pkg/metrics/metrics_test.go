package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestRecordAnalysisEnd(t *testing.T) {
	r := NewRegistry()

	r.RecordAnalysisStart()
	r.RecordAnalysisEnd("Greedy", "Completed", 2*time.Second)

	var metric dto.Metric
	counter, err := r.AnalysesTotal.GetMetricWithLabelValues("Greedy", "Completed")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues failed: %v", err)
	}
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 1 {
		t.Errorf("Expected analyses_total 1, got %f", got)
	}

	var gauge dto.Metric
	if err := r.AnalysesRunning.Write(&gauge); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := gauge.GetGauge().GetValue(); got != 0 {
		t.Errorf("Expected analyses_running back at 0, got %f", got)
	}
}

func TestRecordStep(t *testing.T) {
	r := NewRegistry()

	r.RecordStep("Genetic", 10*time.Millisecond, 0.75)
	r.RecordStep("Genetic", 20*time.Millisecond, 0.8)

	var metric dto.Metric
	counter, err := r.IterationsTotal.GetMetricWithLabelValues("Genetic")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues failed: %v", err)
	}
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Errorf("Expected iterations_total 2, got %f", got)
	}

	var gauge dto.Metric
	cov, err := r.BestCoverage.GetMetricWithLabelValues("Genetic")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues failed: %v", err)
	}
	if err := cov.Write(&gauge); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := gauge.GetGauge().GetValue(); got != 0.8 {
		t.Errorf("Expected best_coverage 0.8, got %f", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("POST", "/analyses", "202", 5*time.Millisecond)

	var metric dto.Metric
	counter, err := r.HTTPRequestsTotal.GetMetricWithLabelValues("POST", "/analyses", "202")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues failed: %v", err)
	}
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 1 {
		t.Errorf("Expected http_requests_total 1, got %f", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	r := NewRegistry()
	if r.Handler() == nil {
		t.Fatal("Expected non-nil metrics handler")
	}
}
