package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/dispatchd/core/dispatch/logging"
	"github.com/fieldops/dispatchd/core/events"
	"github.com/fieldops/dispatchd/core/logger"
	"github.com/fieldops/dispatchd/core/metrics"
	"github.com/fieldops/dispatchd/core/model"
	"github.com/fieldops/dispatchd/core/monitoring"
	"github.com/fieldops/dispatchd/core/mqtt"
	"github.com/fieldops/dispatchd/core/techstatus"
	"github.com/fieldops/dispatchd/internal/eventbus"
)

// PoolDiscovery retrieves the technicians currently reachable for offers.
// Discover should return within the provided timeout and must be non-blocking.
type PoolDiscovery interface {
	Discover(ctx context.Context, timeout time.Duration) ([]model.Technician, error)
	Close() error
}

// Outcome pairs the engine's recommendation with the offer round that
// followed it. Result is exactly what the engine produced; ManualFallback
// reports that a human dispatcher must take over, either because nobody was
// eligible or because every candidate declined or timed out.
type Outcome struct {
	Result
	DispatchID     string `json:"dispatch_id"`
	AcceptedBy     string `json:"accepted_by,omitempty"`
	OfferAccepted  bool   `json:"offer_accepted"`
	ManualFallback bool   `json:"manual_fallback"`
}

// DispatchManager drives the full dispatch flow around the pure engine:
// pool discovery, evaluation, bus events, metrics, decision logging, status
// tracking and the offer round. Everything except the engine and logger is
// optional; a nil collaborator disables its step.
type DispatchManager struct {
	engine      *Engine
	notifier    mqtt.Client
	discovery   PoolDiscovery
	ackTimeout  time.Duration
	logger      logger.Logger
	metrics     metrics.MetricsSink
	bus         eventbus.EventBus
	store       logging.LogStore
	statusStore techstatus.Store
	mu          sync.Mutex
}

// SetLogStore configures the store used to persist dispatch decisions.
func (m *DispatchManager) SetLogStore(store logging.LogStore) {
	m.mu.Lock()
	m.store = store
	m.mu.Unlock()
}

// SetStatusStore configures the store used to track technician status.
func (m *DispatchManager) SetStatusStore(store techstatus.Store) {
	m.mu.Lock()
	m.statusStore = store
	m.mu.Unlock()
}

// Close releases resources held by the manager.
func (m *DispatchManager) Close() error {
	if m.discovery != nil {
		if err := m.discovery.Close(); err != nil {
			return err
		}
	}
	if m.bus != nil {
		m.bus.Close()
	}
	m.mu.Lock()
	store := m.store
	m.mu.Unlock()
	if store != nil {
		_ = store.Close()
	}
	return nil
}

// Run processes incoming jobs until the context is canceled. For each job
// received on the channel, Dispatch is invoked with a nil pool so the
// configured PoolDiscovery supplies the technicians.
func (m *DispatchManager) Run(ctx context.Context, jobs <-chan model.Job) {
	for {
		select {
		case job := <-jobs:
			if _, err := m.Dispatch(ctx, job, nil); err != nil {
				m.logger.Errorf("dispatch of job %s failed: %v", job.ID, err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// sendOffer publishes the offer and waits for the technician's reply while
// measuring the round-trip latency.
func (m *DispatchManager) sendOffer(technicianID string, job model.Job, rank int) (bool, string, time.Duration, error) {
	start := time.Now()
	offerID, err := m.notifier.SendOffer(technicianID, job, rank)
	if err != nil {
		offerFailure.Inc()
		return false, offerID, time.Since(start), err
	}
	offerSuccess.Inc()
	ack, err := m.notifier.WaitForAck(offerID, m.ackTimeout)
	return ack, offerID, time.Since(start), err
}

// NewDispatchManager creates a new manager.
// ackTimeout defines the maximum duration to wait for a technician to accept
// or decline an offer. If ackTimeout is zero, a default of five seconds is
// used.
func NewDispatchManager(engine *Engine, notifier mqtt.Client, ackTimeout time.Duration, sink metrics.MetricsSink, bus eventbus.EventBus, disc PoolDiscovery, log logger.Logger) (*DispatchManager, error) {
	if engine == nil || log == nil {
		return nil, errors.New("dispatch: nil parameter provided to NewDispatchManager")
	}
	if ackTimeout <= 0 {
		ackTimeout = 5 * time.Second
	}
	return &DispatchManager{
		engine:     engine,
		notifier:   notifier,
		discovery:  disc,
		ackTimeout: ackTimeout,
		logger:     log,
		metrics:    sink,
		bus:        bus,
	}, nil
}

// Dispatch runs the dispatch flow for one job. A nil or empty pool triggers
// discovery when configured. The returned Outcome always carries the
// untouched engine result.
//
//gocyclo:ignore
func (m *DispatchManager) Dispatch(ctx context.Context, job model.Job, pool []model.Technician) (Outcome, error) {
	start := time.Now()
	m.mu.Lock()
	store, statusStore := m.store, m.statusStore
	m.mu.Unlock()

	if len(pool) == 0 && m.discovery != nil {
		dctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if ts, err := m.discovery.Discover(dctx, time.Second); err == nil {
			pool = ts
			if pr, ok := m.metrics.(metrics.PoolSizeRecorder); ok {
				if err := pr.RecordPoolSize(len(ts)); err != nil {
					m.logger.Errorf("pool size metrics error: %v", err)
				}
			}
			m.logger.Infof("discovered %d technicians", len(ts))
		} else {
			m.logger.Errorf("pool discovery failed: %v", err)
		}
	}
	if statusStore != nil {
		seen := time.Now()
		for _, t := range pool {
			statusStore.Set(techstatus.FromTechnician(t, seen))
		}
	}
	if m.bus != nil {
		m.bus.Publish(events.JobEvent{Job: job})
	}

	res, excl, err := m.engine.evaluate(job, pool)
	if err != nil {
		monitoring.CaptureException(err, monitoring.JobTags("dispatch_manager", job.ID))
		return Outcome{}, err
	}
	elapsed := time.Since(start)
	prio := job.Priority.String()
	evaluationLatency.WithLabelValues(prio).Observe(elapsed.Seconds())
	candidatesRanked.WithLabelValues(prio).Add(float64(len(res.TopCandidates)))
	for _, ex := range excl {
		ineligibleReasons.WithLabelValues(string(ex.Code)).Inc()
	}
	m.logger.Infof("job %s: %d of %d technicians eligible", job.ID, len(pool)-len(excl), len(pool))

	outcome := Outcome{Result: res, DispatchID: uuid.NewString()}
	if res.ManualDispatch {
		outcome.ManualFallback = true
		manualDispatches.WithLabelValues(prio).Inc()
		if m.bus != nil {
			m.bus.Publish(events.ManualDispatchEvent{JobID: job.ID, Priority: job.Priority, PoolSize: len(pool), Reasons: reasonCounts(excl)})
		}
		m.recordManualFallback(job, "eligibility", reasonCounts(excl))
	} else {
		if m.bus != nil {
			ids := make([]string, 0, len(res.TopCandidates))
			for _, c := range res.TopCandidates {
				ids = append(ids, c.Technician.ID)
			}
			m.bus.Publish(events.RecommendationEvent{
				JobID:         job.ID,
				Priority:      job.Priority,
				AssignedID:    res.Assigned.Technician.ID,
				CandidateIDs:  ids,
				PoolSize:      len(pool),
				EligibleCount: len(pool) - len(excl),
			})
		}
		if m.notifier != nil {
			acceptedBy, accepted, offerReasons := m.offerCandidates(job, res.TopCandidates, statusStore)
			outcome.AcceptedBy, outcome.OfferAccepted = acceptedBy, accepted
			if !accepted {
				outcome.ManualFallback = true
				manualDispatches.WithLabelValues(prio).Inc()
				if m.bus != nil {
					m.bus.Publish(events.ManualDispatchEvent{JobID: job.ID, Priority: job.Priority, PoolSize: len(pool), Reasons: offerReasons})
				}
				m.recordManualFallback(job, "offers", offerReasons)
			}
		}
	}
	m.recordMetrics(job, res, elapsed)

	if store != nil {
		rec := logging.LogRecord{
			Timestamp:         time.Now(),
			DispatchID:        outcome.DispatchID,
			JobID:             job.ID,
			Priority:          job.Priority,
			PoolSize:          len(pool),
			EligibleCount:     len(pool) - len(excl),
			ManualDispatch:    res.ManualDispatch,
			OfferAccepted:     outcome.OfferAccepted,
			OfferTechnicianID: outcome.AcceptedBy,
		}
		if res.Assigned != nil {
			rec.AssignedID = res.Assigned.Technician.ID
		}
		for i, c := range res.TopCandidates {
			rec.Candidates = append(rec.Candidates, logging.Candidate{
				TechnicianID:      c.Technician.ID,
				Name:              c.Technician.Name,
				Rank:              i + 1,
				DistanceScore:     c.DistanceScore,
				AvailabilityScore: c.AvailabilityScore,
				SkillScore:        c.SkillScore,
				PerformanceScore:  c.PerformanceScore,
				WorkloadScore:     c.WorkloadScore,
				TotalScore:        c.TotalScore,
				Distance:          c.Distance,
			})
		}
		for _, ex := range excl {
			rec.Ineligible = append(rec.Ineligible, logging.Exclusion{
				TechnicianID: ex.Technician.ID,
				Code:         string(ex.Code),
				Reason:       ex.Reason,
			})
		}
		if err := store.Append(ctx, rec); err != nil {
			m.logger.Errorf("dispatch log append failed: %v", err)
		}
	}
	return outcome, nil
}

// offerCandidates walks the slate in rank order and returns the first
// technician to accept. Declines, timeouts and publish errors move on to the
// next candidate; the returned map counts why each attempt failed.
func (m *DispatchManager) offerCandidates(job model.Job, slate []TechnicianScore, statusStore techstatus.Store) (string, bool, map[string]int) {
	reasons := map[string]int{}
	for i, cand := range slate {
		rank := i + 1
		techID := cand.Technician.ID
		ack, offerID, dur, err := m.sendOffer(techID, job, rank)
		accepted := err == nil && ack
		now := time.Now()
		if m.bus != nil {
			m.bus.Publish(events.OfferEvent{
				OfferID:      offerID,
				JobID:        job.ID,
				TechnicianID: techID,
				Priority:     job.Priority,
				Rank:         rank,
				Accepted:     accepted,
				Err:          err,
				Latency:      dur,
			})
		}
		if or, ok := m.metrics.(metrics.OfferRecorder); ok {
			ev := metrics.OfferEvent{
				OfferID:      offerID,
				JobID:        job.ID,
				TechnicianID: techID,
				Priority:     job.Priority,
				Rank:         rank,
				TotalScore:   cand.TotalScore,
				Accepted:     accepted,
				Time:         now,
			}
			if rerr := or.RecordOffer(ev); rerr != nil {
				m.logger.Errorf("offer metrics error: %v", rerr)
			}
		}
		if ar, ok := m.metrics.(metrics.OfferAckRecorder); ok {
			ev := metrics.OfferAckEvent{
				OfferID:      offerID,
				JobID:        job.ID,
				TechnicianID: techID,
				Priority:     job.Priority,
				Accepted:     accepted,
				Latency:      dur,
				Time:         now,
			}
			if err != nil {
				ev.Error = err.Error()
			}
			if rerr := ar.RecordOfferAck(ev); rerr != nil {
				m.logger.Errorf("offer ack metrics error: %v", rerr)
			}
		}
		if statusStore != nil {
			statusStore.RecordOffer(techID, techstatus.LastOffer{
				JobID:      job.ID,
				Priority:   job.Priority.String(),
				Rank:       rank,
				TotalScore: cand.TotalScore,
				Accepted:   accepted,
				Timestamp:  now,
			})
		}
		switch {
		case accepted:
			m.logger.Infof("job %s accepted by %s (rank %d)", job.ID, techID, rank)
			return techID, true, reasons
		case err == nil:
			reasons["declined"]++
		case errors.Is(err, mqtt.ErrAckTimeout):
			reasons["timeout"]++
			m.logger.Warnf("offer to %s timed out", techID)
		default:
			reasons["error"]++
			m.logger.Warnf("offer to %s failed: %v", techID, err)
			monitoring.CaptureException(err, monitoring.TechnicianTags("dispatch_manager", techID))
		}
	}
	return "", false, reasons
}

// recordMetrics persists the recommendation records if a sink is configured.
func (m *DispatchManager) recordMetrics(job model.Job, res Result, elapsed time.Duration) {
	if m.metrics == nil {
		return
	}
	now := time.Now()
	var recs []metrics.RecommendationRecord
	for i, c := range res.TopCandidates {
		recs = append(recs, metrics.RecommendationRecord{
			JobID:             job.ID,
			Priority:          job.Priority,
			TechnicianID:      c.Technician.ID,
			Rank:              i + 1,
			DistanceScore:     c.DistanceScore,
			AvailabilityScore: c.AvailabilityScore,
			SkillScore:        c.SkillScore,
			PerformanceScore:  c.PerformanceScore,
			WorkloadScore:     c.WorkloadScore,
			TotalScore:        c.TotalScore,
			Distance:          c.Distance,
			Assigned:          res.Assigned != nil && res.Assigned.Technician.ID == c.Technician.ID,
			EvaluatedAt:       now,
		})
	}
	if err := m.metrics.RecordRecommendations(recs); err != nil {
		m.logger.Errorf("metrics error: %v", err)
	}
	if lr, ok := m.metrics.(metrics.LatencyRecorder); ok {
		lat := []metrics.EvaluationLatency{{
			JobID:    job.ID,
			Priority: job.Priority,
			Manual:   res.ManualDispatch,
			Latency:  elapsed,
		}}
		if err := lr.RecordEvaluationLatency(lat); err != nil {
			m.logger.Errorf("latency metrics error: %v", err)
		}
	}
}

// recordManualFallback persists a manual-dispatch event if the sink supports
// it. Stage is "eligibility" when nobody qualified and "offers" when the
// slate was exhausted.
func (m *DispatchManager) recordManualFallback(job model.Job, stage string, reasons map[string]int) {
	mr, ok := m.metrics.(metrics.ManualFallbackRecorder)
	if !ok {
		return
	}
	ev := metrics.ManualFallbackEvent{
		JobID:    job.ID,
		Priority: job.Priority,
		Stage:    stage,
		Reasons:  reasons,
		Time:     time.Now(),
	}
	if err := mr.RecordManualFallback(ev); err != nil {
		m.logger.Errorf("manual fallback metrics error: %v", err)
	}
}

func reasonCounts(excl []Ineligible) map[string]int {
	if len(excl) == 0 {
		return nil
	}
	counts := make(map[string]int, len(excl))
	for _, ex := range excl {
		counts[string(ex.Code)]++
	}
	return counts
}
