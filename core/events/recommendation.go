package events

import "github.com/fieldops/dispatchd/core/model"

// RecommendationEvent carries the ranked outcome for one evaluated job.
type RecommendationEvent struct {
	JobID         string
	Priority      model.JobPriority
	AssignedID    string
	CandidateIDs  []string
	PoolSize      int
	EligibleCount int
}

// ManualDispatchEvent is published when no technician qualified and the job
// falls back to a human dispatcher. Reasons counts exclusions by reason code.
type ManualDispatchEvent struct {
	JobID    string
	Priority model.JobPriority
	PoolSize int
	Reasons  map[string]int
}
