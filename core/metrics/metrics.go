package metrics

import (
	"time"

	"github.com/fieldops/dispatchd/core/model"
)

// RecommendationRecord is one slate entry from a dispatch evaluation, with
// the full score breakdown as computed by the engine.
type RecommendationRecord struct {
	JobID             string
	Priority          model.JobPriority
	TechnicianID      string
	Rank              int
	DistanceScore     float64
	AvailabilityScore float64
	SkillScore        float64
	PerformanceScore  float64
	WorkloadScore     float64
	TotalScore        float64
	Distance          float64
	Assigned          bool
	EvaluatedAt       time.Time
}

// MetricsSink records dispatch recommendations for observability purposes.
type MetricsSink interface {
	RecordRecommendations(records []RecommendationRecord) error
}

// PoolDiscoveryEvent captures data about a technician discovery cycle.
type PoolDiscoveryEvent struct {
	Pings     int
	Responses int
	Component string
	Time      time.Time
}

// PoolDiscoveryRecorder records discovery cycles.
type PoolDiscoveryRecorder interface {
	RecordPoolDiscovery(ev PoolDiscoveryEvent) error
}

// TechnicianStateEvent is a snapshot of a technician.
type TechnicianStateEvent struct {
	Technician model.Technician
	Context    string
	Component  string
	Time       time.Time
}

// TechnicianStateRecorder records technician snapshots.
type TechnicianStateRecorder interface {
	RecordTechnicianState(ev TechnicianStateEvent) error
}

// OfferEvent represents a job offer pushed to a technician.
type OfferEvent struct {
	OfferID      string
	JobID        string
	TechnicianID string
	Priority     model.JobPriority
	Rank         int
	TotalScore   float64
	Accepted     bool
	Time         time.Time
}

// OfferRecorder records offers pushed to technicians.
type OfferRecorder interface {
	RecordOffer(ev OfferEvent) error
}

// OfferAckEvent captures a technician's reply to an offer.
type OfferAckEvent struct {
	OfferID      string
	JobID        string
	TechnicianID string
	Priority     model.JobPriority
	Accepted     bool
	Latency      time.Duration
	Error        string
	Time         time.Time
}

// OfferAckRecorder records offer replies.
type OfferAckRecorder interface {
	RecordOfferAck(ev OfferAckEvent) error
}

// ManualFallbackEvent records an evaluation that ended in manual dispatch,
// either straight from eligibility or after the offer slate was exhausted.
type ManualFallbackEvent struct {
	JobID    string
	Priority model.JobPriority
	Stage    string
	Reasons  map[string]int
	Time     time.Time
}

// ManualFallbackRecorder records manual-dispatch fallbacks.
type ManualFallbackRecorder interface {
	RecordManualFallback(ev ManualFallbackEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordRecommendations([]RecommendationRecord) error { return nil }

func (NopSink) RecordPoolDiscovery(PoolDiscoveryEvent) error     { return nil }
func (NopSink) RecordTechnicianState(TechnicianStateEvent) error { return nil }
func (NopSink) RecordOffer(OfferEvent) error                     { return nil }
func (NopSink) RecordOfferAck(OfferAckEvent) error               { return nil }
func (NopSink) RecordManualFallback(ManualFallbackEvent) error   { return nil }

// EvaluationLatency is the wall time of one engine evaluation.
type EvaluationLatency struct {
	JobID    string
	Priority model.JobPriority
	Manual   bool
	Latency  time.Duration
}

// LatencyRecorder is implemented by sinks able to record evaluation latency.
type LatencyRecorder interface {
	RecordEvaluationLatency(latencies []EvaluationLatency) error
}

// Ensure NopSink implements LatencyRecorder.
func (NopSink) RecordEvaluationLatency([]EvaluationLatency) error { return nil }

// PoolSizeRecorder records the number of technicians visible to dispatch.
type PoolSizeRecorder interface {
	RecordPoolSize(size int) error
}

// Ensure NopSink implements PoolSizeRecorder.
func (NopSink) RecordPoolSize(int) error { return nil }
