package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	evaluationLatency *prometheus.HistogramVec
	candidatesRanked  *prometheus.CounterVec
	manualDispatches  *prometheus.CounterVec
	ineligibleReasons *prometheus.CounterVec
	offerSuccess      prometheus.Counter
	offerFailure      prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_evaluation_latency_seconds",
			Help:    "Latency of a full dispatch evaluation from request to ranked slate",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"priority"},
	)
	ranked := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_candidates_ranked_total",
			Help: "Number of technicians placed on a candidate slate",
		},
		[]string{"priority"},
	)
	manual := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_manual_total",
			Help: "Number of evaluations that fell back to manual dispatch",
		},
		[]string{"priority"},
	)
	inel := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_ineligible_total",
			Help: "Number of technicians excluded from a slate, by reason",
		},
		[]string{"reason"},
	)
	suc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offer_publish_success_total",
			Help: "Number of successful job offer publish operations",
		},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offer_publish_failure_total",
			Help: "Number of failed job offer publish operations",
		},
	)
	return lat, ranked, manual, inel, suc, fail
}

func init() {
	evaluationLatency, candidatesRanked, manualDispatches, ineligibleReasons, offerSuccess, offerFailure = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(evaluationLatency, candidatesRanked, manualDispatches, ineligibleReasons, offerSuccess, offerFailure)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	evaluationLatency, candidatesRanked, manualDispatches, ineligibleReasons, offerSuccess, offerFailure = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
