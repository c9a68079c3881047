package dispatch

import "github.com/fieldops/dispatchd/core/model"

// ReasonCode groups ineligibility reasons for metrics and log filtering.
// The human-readable Reason string carries the per-technician detail.
type ReasonCode string

const (
	ReasonInactive        ReasonCode = "inactive"
	ReasonUnavailable     ReasonCode = "unavailable"
	ReasonInvalidCapacity ReasonCode = "invalid_capacity"
	ReasonMaxJobs         ReasonCode = "max_jobs"
	ReasonNoLocation      ReasonCode = "no_location"
	ReasonTooFar          ReasonCode = "too_far"
	ReasonSkill           ReasonCode = "insufficient_skill"
)

// Ineligible records one excluded technician and the first check it failed.
type Ineligible struct {
	Technician model.Technician `json:"technician"`
	Code       ReasonCode       `json:"code"`
	Reason     string           `json:"reason"`
}

// TechnicianScore is the per-technician scoring breakdown. Distance is the
// raw provider value in the configured unit.
type TechnicianScore struct {
	Technician        model.Technician `json:"technician"`
	DistanceScore     float64          `json:"distance_score"`
	AvailabilityScore float64          `json:"availability_score"`
	SkillScore        float64          `json:"skill_score"`
	PerformanceScore  float64          `json:"performance_score"`
	WorkloadScore     float64          `json:"workload_score"`
	TotalScore        float64          `json:"total_score"`
	Distance          float64          `json:"distance"`
}

// Result is the outcome of one dispatch evaluation. When ManualDispatch is
// true no technician was eligible: Assigned is nil, TopCandidates is empty
// and Ineligible lists every excluded technician with its reason. Otherwise
// Assigned points at the recommended pick, TopCandidates holds the ranked
// slate and Ineligible is left empty.
type Result struct {
	JobID          string            `json:"job_id"`
	ManualDispatch bool              `json:"manual_dispatch"`
	Assigned       *TechnicianScore  `json:"assigned,omitempty"`
	TopCandidates  []TechnicianScore `json:"top_candidates"`
	Ineligible     []Ineligible      `json:"ineligible,omitempty"`
}

// candidate pairs an eligible technician with its already-computed travel
// cost so scoring never calls the distance provider twice.
type candidate struct {
	tech     model.Technician
	distance float64
}
