package metrics

// MultiSink fans events out to multiple sinks. Capability events are only
// forwarded to sinks implementing the matching recorder interface.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRecommendations forwards slate records to all sinks, returning the
// first error encountered.
func (m *MultiSink) RecordRecommendations(records []RecommendationRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordRecommendations(records); err != nil {
			return err
		}
	}
	return nil
}

// RecordPoolDiscovery forwards discovery events.
func (m *MultiSink) RecordPoolDiscovery(ev PoolDiscoveryEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PoolDiscoveryRecorder); ok {
			if err := rec.RecordPoolDiscovery(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTechnicianState forwards technician snapshots.
func (m *MultiSink) RecordTechnicianState(ev TechnicianStateEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TechnicianStateRecorder); ok {
			if err := rec.RecordTechnicianState(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordOffer forwards offer events.
func (m *MultiSink) RecordOffer(ev OfferEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(OfferRecorder); ok {
			if err := rec.RecordOffer(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordOfferAck forwards offer replies.
func (m *MultiSink) RecordOfferAck(ev OfferAckEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(OfferAckRecorder); ok {
			if err := rec.RecordOfferAck(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordManualFallback forwards manual-dispatch fallbacks.
func (m *MultiSink) RecordManualFallback(ev ManualFallbackEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ManualFallbackRecorder); ok {
			if err := rec.RecordManualFallback(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordEvaluationLatency forwards latency samples when supported by the sink.
func (m *MultiSink) RecordEvaluationLatency(lat []EvaluationLatency) error {
	for _, s := range m.Sinks {
		if lr, ok := s.(LatencyRecorder); ok {
			if err := lr.RecordEvaluationLatency(lat); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordPoolSize forwards pool size samples when supported by the sink.
func (m *MultiSink) RecordPoolSize(size int) error {
	for _, s := range m.Sinks {
		if pr, ok := s.(PoolSizeRecorder); ok {
			if err := pr.RecordPoolSize(size); err != nil {
				return err
			}
		}
	}
	return nil
}
