package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/fieldops/dispatchd/core/metrics"
)

// PromSink records dispatch events in Prometheus metrics.
type PromSink struct {
	recommendations *prometheus.CounterVec
	offers          *prometheus.CounterVec
	ackLatency      *prometheus.HistogramVec
	pool            prometheus.Gauge
}

// NewPromSink registers dispatch metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using the configured port.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	recommendations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_recommendations_total",
		Help: "Total number of slate entries produced by dispatch evaluations",
	}, []string{"technician_id", "priority", "assigned"})
	offers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_offers_total",
		Help: "Total number of job offers pushed to technicians",
	}, []string{"technician_id", "priority"})
	ackLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_offer_ack_seconds",
		Help:    "Time between offer publish and technician reply",
		Buckets: prometheus.DefBuckets,
	}, []string{"technician_id", "priority", "accepted"})
	pool := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pool_discovery_technicians_total",
		Help: "Number of technicians discovered during pool discovery",
	})

	if err := reg.Register(recommendations); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			recommendations = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(offers); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			offers = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(ackLatency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			ackLatency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(pool); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			pool = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{recommendations: recommendations, offers: offers, ackLatency: ackLatency, pool: pool}, nil
}

// RecordRecommendations increments the counter for each slate entry.
func (s *PromSink) RecordRecommendations(records []coremetrics.RecommendationRecord) error {
	for _, r := range records {
		s.recommendations.WithLabelValues(r.TechnicianID, r.Priority.String(), strconv.FormatBool(r.Assigned)).Inc()
	}
	return nil
}

// RecordOffer counts an offer pushed to a technician.
func (s *PromSink) RecordOffer(ev coremetrics.OfferEvent) error {
	s.offers.WithLabelValues(ev.TechnicianID, ev.Priority.String()).Inc()
	return nil
}

// RecordOfferAck records the offer round-trip latency histogram.
func (s *PromSink) RecordOfferAck(ev coremetrics.OfferAckEvent) error {
	s.ackLatency.WithLabelValues(ev.TechnicianID, ev.Priority.String(), strconv.FormatBool(ev.Accepted)).Observe(ev.Latency.Seconds())
	return nil
}

// RecordPoolSize sets the gauge to the number of discovered technicians.
func (s *PromSink) RecordPoolSize(size int) error {
	if s.pool != nil {
		s.pool.Set(float64(size))
	}
	return nil
}
