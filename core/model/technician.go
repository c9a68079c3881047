package model

import (
	"fmt"
	"math"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether both coordinates are finite and within range.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Technician represents a field-service technician in the dispatch pool.
type Technician struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`    // employment status; inactive technicians are never dispatched
	Available bool   `json:"available"` // current on/off-duty flag

	MaxConcurrentJobs int `json:"max_concurrent_jobs"`
	CurrentJobCount   int `json:"current_job_count"`

	// Location is nil when the roster entry has not been geocoded yet.
	Location *Coordinates `json:"location,omitempty"`

	SkillLevel int `json:"skill_level"`

	// RecentPerformance holds the most recent job outcome scores, newest
	// last, each on a 0-100 scale.
	RecentPerformance []float64 `json:"recent_performance,omitempty"`

	// Optional roster metadata used for status filtering.
	Region string `json:"region,omitempty"`
	Team   string `json:"team,omitempty"`
}

// Validate checks that the roster entry is sound enough to be scored.
func (t Technician) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("technician id is required")
	}
	if t.CurrentJobCount < 0 {
		return fmt.Errorf("technician %s: negative job count", t.ID)
	}
	return nil
}

// HasLocation reports whether the technician carries a usable position.
func (t Technician) HasLocation() bool {
	return t.Location != nil && t.Location.Valid()
}

// AtCapacity reports whether the technician cannot take another job.
func (t Technician) AtCapacity() bool {
	return t.CurrentJobCount >= t.MaxConcurrentJobs
}

// HistorySum returns the sum of the recent outcome scores. Ties for first
// place are broken in favour of the larger sum, so a technician with more
// recorded history outranks one with an equal average but fewer jobs.
func (t Technician) HistorySum() float64 {
	var sum float64
	for _, s := range t.RecentPerformance {
		sum += s
	}
	return sum
}
