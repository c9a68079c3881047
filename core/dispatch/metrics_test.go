package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	// touch metrics so they are exported
	candidatesRanked.WithLabelValues("normal").Inc()
	evaluationLatency.WithLabelValues("normal").Observe(0.1)
	manualDispatches.WithLabelValues("emergency").Inc()
	ineligibleReasons.WithLabelValues(string(ReasonTooFar)).Inc()
	offerSuccess.Inc()
	offerFailure.Inc()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[*mf.Name] = true
	}
	expected := []string{
		"dispatch_evaluation_latency_seconds",
		"dispatch_candidates_ranked_total",
		"dispatch_manual_total",
		"dispatch_ineligible_total",
		"offer_publish_success_total",
		"offer_publish_failure_total",
	}
	for _, n := range expected {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
}
