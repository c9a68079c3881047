package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/fieldops/dispatchd/core/metrics"
	"github.com/fieldops/dispatchd/core/model"
	"github.com/fieldops/dispatchd/infra/logger"
)

// InfluxSink writes dispatch events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRecommendations writes each slate entry as a line protocol event.
func (s *InfluxSink) RecordRecommendations(records []coremetrics.RecommendationRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, r := range records {
		p := write.NewPointWithMeasurement("dispatch_recommendation").
			AddTag("technician_id", r.TechnicianID).
			AddTag("priority", r.Priority.String()).
			AddTag("assigned", strconv.FormatBool(r.Assigned)).
			AddTag("job_id", r.JobID).
			AddTag("component", "dispatch_manager").
			AddField("rank", r.Rank).
			AddField("total_score", round3(r.TotalScore)).
			AddField("distance_score", round3(r.DistanceScore)).
			AddField("availability_score", round3(r.AvailabilityScore)).
			AddField("skill_score", round3(r.SkillScore)).
			AddField("performance_score", round3(r.PerformanceScore)).
			AddField("workload_score", round3(r.WorkloadScore)).
			AddField("distance_km", round3(r.Distance)).
			SetTime(r.EvaluatedAt)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordPoolDiscovery persists the result of a discovery cycle.
func (s *InfluxSink) RecordPoolDiscovery(ev coremetrics.PoolDiscoveryEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("pool_discovery_event").
		AddTag("component", ev.Component).
		AddField("pings", ev.Pings).
		AddField("responses", ev.Responses).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordTechnicianState writes a snapshot of a technician.
func (s *InfluxSink) RecordTechnicianState(ev coremetrics.TechnicianStateEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	t := ev.Technician
	p := write.NewPointWithMeasurement("technician_state").
		AddTag("technician_id", t.ID)
	if ev.Component != "" {
		p.AddTag("component", ev.Component)
	}
	p = p.AddTag("context", ev.Context).
		AddField("active", t.Active).
		AddField("available", t.Available).
		AddField("current_jobs", t.CurrentJobCount).
		AddField("max_jobs", t.MaxConcurrentJobs).
		AddField("skill_level", t.SkillLevel).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordOffer records an offer being pushed to a technician.
func (s *InfluxSink) RecordOffer(ev coremetrics.OfferEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("offer_sent").
		AddTag("technician_id", ev.TechnicianID).
		AddTag("priority", ev.Priority.String()).
		AddTag("offer_id", ev.OfferID).
		AddTag("job_id", ev.JobID).
		AddTag("component", "dispatch_manager").
		AddField("rank", ev.Rank).
		AddField("total_score", round3(ev.TotalScore)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordOfferAck records a technician's reply to an offer.
func (s *InfluxSink) RecordOfferAck(ev coremetrics.OfferAckEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("offer_ack_received").
		AddTag("technician_id", ev.TechnicianID).
		AddTag("priority", ev.Priority.String()).
		AddTag("accepted", strconv.FormatBool(ev.Accepted)).
		AddTag("offer_id", ev.OfferID).
		AddTag("component", "dispatch_manager").
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000)).
		AddField("errors", ev.Error).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordManualFallback records an evaluation that ended with a human dispatcher.
func (s *InfluxSink) RecordManualFallback(ev coremetrics.ManualFallbackEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("manual_fallback").
		AddTag("priority", ev.Priority.String()).
		AddTag("stage", ev.Stage).
		AddTag("job_id", ev.JobID).
		AddTag("component", "dispatch_manager")
	total := 0
	for code, n := range ev.Reasons {
		p.AddField("reason_"+code, n)
		total += n
	}
	p = p.AddField("attempts", total).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordEvaluationLatency writes the wall time of each evaluation.
func (s *InfluxSink) RecordEvaluationLatency(lats []coremetrics.EvaluationLatency) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	now := time.Now()
	for _, l := range lats {
		p := write.NewPointWithMeasurement("dispatch_evaluation").
			AddTag("priority", l.Priority.String()).
			AddTag("manual", strconv.FormatBool(l.Manual)).
			AddTag("job_id", l.JobID).
			AddTag("component", "dispatch_manager").
			AddField("latency_ms", round3(l.Latency.Seconds()*1000)).
			SetTime(now)
		if err := s.writeAPI.WritePoint(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RecordPoolSize writes the number of technicians visible to dispatch.
func (s *InfluxSink) RecordPoolSize(size int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("pool_size").
		AddTag("component", "pool_discovery").
		AddField("technicians", size).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// LogTechnicianState is a helper to record a technician snapshot with a context tag.
func (s *InfluxSink) LogTechnicianState(t model.Technician, context string) error {
	return s.RecordTechnicianState(coremetrics.TechnicianStateEvent{Technician: t, Context: context, Time: time.Now()})
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
