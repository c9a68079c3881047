package dispatch

import "fmt"

// DistanceUnit names the unit a distance provider returns. Every distance
// threshold in ScoringConfig is expressed in this unit.
type DistanceUnit string

const (
	UnitKilometers DistanceUnit = "km"
	UnitMinutes    DistanceUnit = "min"
)

// DistanceConfig shapes the distance component: full marks up to Excellent,
// linear MaxScore->GoodScore between Excellent and Good, linear
// GoodScore->0 between Good and Max. Beyond Max a technician is ineligible.
type DistanceConfig struct {
	Excellent float64      `json:"excellent"`
	Good      float64      `json:"good"`
	Max       float64      `json:"max"`
	MaxScore  float64      `json:"max_score"`
	GoodScore float64      `json:"good_score"`
	Unit      DistanceUnit `json:"unit"`
}

// AvailabilityConfig shapes the load component: ZeroLoad with no open jobs,
// flat HalfLoad up to half capacity, then linear HalfLoad->0 toward full
// capacity.
type AvailabilityConfig struct {
	ZeroLoad float64 `json:"zero_load"`
	HalfLoad float64 `json:"half_load"`
}

// SkillConfig scores the gap between technician and required skill level.
type SkillConfig struct {
	Exact         float64 `json:"exact"`
	OneOver       float64 `json:"one_over"`
	TwoOrMoreOver float64 `json:"two_or_more_over"`
}

// WorkloadConfig shapes the open-job component: FullScore at zero jobs,
// MidScore at MidJobs, zero at MaxJobs and beyond, linear in between.
type WorkloadConfig struct {
	FullScore float64 `json:"full_score"`
	MidScore  float64 `json:"mid_score"`
	MidJobs   int     `json:"mid_jobs"`
	MaxJobs   int     `json:"max_jobs"`
}

// EmergencyConfig adjusts scoring when a job carries emergency priority.
// The overrides apply after the five base components are computed.
type EmergencyConfig struct {
	DistanceMultiplier  float64 `json:"distance_multiplier"`
	AvailabilityPenalty float64 `json:"availability_penalty"`
	WorkloadPenalty     float64 `json:"workload_penalty"`
	// MaxDistanceFactor scales DistanceConfig.Max for the eligibility cut.
	MaxDistanceFactor float64 `json:"max_distance_factor"`
}

// ScoringConfig is the full weight table for one engine instance. It is
// immutable once handed to NewEngine; per-tenant tuning means constructing
// a second engine with a different table.
type ScoringConfig struct {
	Distance      DistanceConfig     `json:"distance"`
	Availability  AvailabilityConfig `json:"availability"`
	Skill         SkillConfig        `json:"skill"`
	Workload      WorkloadConfig     `json:"workload"`
	Emergency     EmergencyConfig    `json:"emergency"`
	TieThreshold  float64            `json:"tie_threshold"`
	MaxCandidates int                `json:"max_candidates"`
}

// DefaultScoringConfig returns the standard weight table.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Distance: DistanceConfig{
			Excellent: 0,
			Good:      25,
			Max:       50,
			MaxScore:  40,
			GoodScore: 20,
			Unit:      UnitKilometers,
		},
		Availability: AvailabilityConfig{ZeroLoad: 20, HalfLoad: 10},
		Skill:        SkillConfig{Exact: 20, OneOver: 15, TwoOrMoreOver: 10},
		Workload:     WorkloadConfig{FullScore: 10, MidScore: 5, MidJobs: 3, MaxJobs: 6},
		Emergency: EmergencyConfig{
			DistanceMultiplier:  1.5,
			AvailabilityPenalty: 10,
			WorkloadPenalty:     10,
			MaxDistanceFactor:   0.5,
		},
		TieThreshold:  0.1,
		MaxCandidates: 3,
	}
}

// Validate reports the first structural problem in the table.
func (c ScoringConfig) Validate() error {
	d := c.Distance
	if d.Excellent < 0 || d.Good <= d.Excellent || d.Max <= d.Good {
		return fmt.Errorf("distance thresholds must satisfy 0 <= excellent < good < max, got %v/%v/%v", d.Excellent, d.Good, d.Max)
	}
	if d.MaxScore <= 0 || d.GoodScore <= 0 || d.GoodScore >= d.MaxScore {
		return fmt.Errorf("distance scores must satisfy 0 < good_score < max_score, got %v/%v", d.GoodScore, d.MaxScore)
	}
	if c.Availability.ZeroLoad <= 0 || c.Availability.HalfLoad <= 0 {
		return fmt.Errorf("availability scores must be positive, got %v/%v", c.Availability.ZeroLoad, c.Availability.HalfLoad)
	}
	w := c.Workload
	if w.MidJobs <= 0 || w.MaxJobs <= w.MidJobs {
		return fmt.Errorf("workload breakpoints must satisfy 0 < mid_jobs < max_jobs, got %d/%d", w.MidJobs, w.MaxJobs)
	}
	e := c.Emergency
	if e.DistanceMultiplier <= 0 {
		return fmt.Errorf("emergency distance multiplier must be positive, got %v", e.DistanceMultiplier)
	}
	if e.MaxDistanceFactor <= 0 || e.MaxDistanceFactor > 1 {
		return fmt.Errorf("emergency max distance factor must be in (0, 1], got %v", e.MaxDistanceFactor)
	}
	if c.TieThreshold < 0 {
		return fmt.Errorf("tie threshold must be non-negative, got %v", c.TieThreshold)
	}
	if c.MaxCandidates <= 0 {
		return fmt.Errorf("max candidates must be positive, got %d", c.MaxCandidates)
	}
	return nil
}
