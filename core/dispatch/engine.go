// Package dispatch implements the scoring and eligibility engine that turns
// a technician pool and a job into a ranked candidate slate.
//
// The engine is pure: every call works on the snapshot it is given, holds
// no state between calls and is safe for unbounded concurrent use. Distance
// and performance inputs come from injected providers, so the same scoring
// formulas run whether travel cost is straight-line kilometres or routed
// drive-time minutes.
package dispatch

import (
	"errors"
	"fmt"

	"github.com/fieldops/dispatchd/core/geo"
	"github.com/fieldops/dispatchd/core/model"
	"github.com/fieldops/dispatchd/core/performance"
)

// Engine evaluates jobs against a technician pool with a fixed weight
// table. Construct one per tenant or configuration.
type Engine struct {
	cfg           ScoringConfig
	distance      geo.DistanceProvider
	perf          performance.Scorer
	deterministic bool
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithDeterministicTieBreak replaces the randomized last-resort tie-break
// with technician-id ordering so repeated runs produce identical slates.
func WithDeterministicTieBreak() Option {
	return func(e *Engine) { e.deterministic = true }
}

// NewEngine validates the weight table and wires the two providers.
func NewEngine(cfg ScoringConfig, distance geo.DistanceProvider, perf performance.Scorer, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: invalid scoring config: %w", err)
	}
	if distance == nil {
		return nil, errors.New("dispatch: nil distance provider")
	}
	if perf == nil {
		return nil, errors.New("dispatch: nil performance scorer")
	}
	e := &Engine{cfg: cfg, distance: distance, perf: perf}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the engine's weight table.
func (e *Engine) Config() ScoringConfig {
	return e.cfg
}

// GetTopCandidates runs filter, scoring and ranking for one job and
// returns either a ranked slate or a manual-dispatch result carrying every
// exclusion reason. A single eligible technician still flows through
// scoring so the recommendation always carries a full breakdown. Errors
// are reserved for malformed jobs and provider failures; business outcomes
// are data.
func (e *Engine) GetTopCandidates(job model.Job, pool []model.Technician) (Result, error) {
	res, _, err := e.evaluate(job, pool)
	return res, err
}

// evaluate is the full pipeline. The second return value always carries
// the complete exclusion list so the manager can log and count reasons
// even when a slate was produced; Result.Ineligible is only populated on
// manual dispatch.
func (e *Engine) evaluate(job model.Job, pool []model.Technician) (Result, []Ineligible, error) {
	if err := job.Validate(); err != nil {
		return Result{}, nil, fmt.Errorf("dispatch: %w", err)
	}

	cands, ineligible, err := e.filterPool(pool, job)
	if err != nil {
		return Result{}, nil, err
	}
	if len(cands) == 0 {
		return Result{
			JobID:          job.ID,
			ManualDispatch: true,
			TopCandidates:  []TechnicianScore{},
			Ineligible:     ineligible,
		}, ineligible, nil
	}

	scores, err := e.scoreCandidates(cands, job)
	if err != nil {
		return Result{}, nil, err
	}
	ranked := e.Rank(scores)
	if len(ranked) > e.cfg.MaxCandidates {
		ranked = ranked[:e.cfg.MaxCandidates]
	}
	assigned := ranked[0]
	return Result{
		JobID:         job.ID,
		Assigned:      &assigned,
		TopCandidates: ranked,
	}, ineligible, nil
}
