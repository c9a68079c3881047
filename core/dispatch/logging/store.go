// Package logging persists dispatch decisions for audit queries. Every
// evaluation appends one LogRecord capturing the job, the ranked slate and
// every exclusion, so a dispatcher can answer "why was this technician
// skipped" days later.
package logging

import (
	"context"
	"time"

	"github.com/fieldops/dispatchd/core/model"
)

// LogRecord captures one dispatch decision and its outcome.
type LogRecord struct {
	Timestamp         time.Time         `json:"timestamp"`
	DispatchID        string            `json:"dispatch_id"`
	JobID             string            `json:"job_id"`
	Priority          model.JobPriority `json:"priority"`
	PoolSize          int               `json:"pool_size"`
	EligibleCount     int               `json:"eligible_count"`
	ManualDispatch    bool              `json:"manual_dispatch"`
	AssignedID        string            `json:"assigned_id,omitempty"`
	Candidates        []Candidate       `json:"candidates,omitempty"`
	Ineligible        []Exclusion       `json:"ineligible,omitempty"`
	OfferAccepted     bool              `json:"offer_accepted"`
	OfferTechnicianID string            `json:"offer_technician_id,omitempty"`
}

// Candidate mirrors dispatch.TechnicianScore for logging purposes.
type Candidate struct {
	TechnicianID      string  `json:"technician_id"`
	Name              string  `json:"name"`
	Rank              int     `json:"rank"`
	DistanceScore     float64 `json:"distance_score"`
	AvailabilityScore float64 `json:"availability_score"`
	SkillScore        float64 `json:"skill_score"`
	PerformanceScore  float64 `json:"performance_score"`
	WorkloadScore     float64 `json:"workload_score"`
	TotalScore        float64 `json:"total_score"`
	Distance          float64 `json:"distance"`
}

// Exclusion mirrors dispatch.Ineligible for logging purposes.
type Exclusion struct {
	TechnicianID string `json:"technician_id"`
	Code         string `json:"code"`
	Reason       string `json:"reason"`
}

// LogQuery defines filters for retrieving records. Zero-value fields match
// everything; Priority compares against JobPriority.String().
type LogQuery struct {
	Start        time.Time
	End          time.Time
	JobID        string
	TechnicianID string
	Priority     string
	ManualOnly   bool
}

func (q LogQuery) matches(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.JobID != "" && r.JobID != q.JobID {
		return false
	}
	if q.Priority != "" && r.Priority.String() != q.Priority {
		return false
	}
	if q.ManualOnly && !r.ManualDispatch {
		return false
	}
	if q.TechnicianID != "" && !r.involves(q.TechnicianID) {
		return false
	}
	return true
}

// involves reports whether the technician appears anywhere in the decision,
// ranked or excluded. Audit queries need both sides.
func (r LogRecord) involves(id string) bool {
	if r.AssignedID == id || r.OfferTechnicianID == id {
		return true
	}
	for _, c := range r.Candidates {
		if c.TechnicianID == id {
			return true
		}
	}
	for _, e := range r.Ineligible {
		if e.TechnicianID == id {
			return true
		}
	}
	return false
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}
