package performance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/fieldops/dispatchd/core/model"
)

// JobOutcome is one completed job as recorded by the outcome store.
type JobOutcome struct {
	JobID           string  `json:"job_id"`
	FirstTimeFix    bool    `json:"first_time_fix"`
	CustomerRating  float64 `json:"customer_rating"` // 1-5 stars
	EstimatedMinute float64 `json:"estimated_minutes"`
	ActualMinute    float64 `json:"actual_minutes"`
}

// OutcomeSource returns the recent completed-job records for a technician.
type OutcomeSource interface {
	Outcomes(techID string) ([]JobOutcome, error)
}

// BlendScorer computes a continuous weighted blend of first-time-fix rate,
// normalized customer rating and duration efficiency, each on 0-1, then
// scales the blend onto the 0-10 band shared with BucketScorer. It reads
// outcome records from a store instead of the rolling history on the
// technician record.
type BlendScorer struct {
	source OutcomeSource

	MinSamples int
	Default    float64

	FixWeight      float64
	RatingWeight   float64
	DurationWeight float64
}

// NewBlendScorer returns a blend scorer with the standard weights.
func NewBlendScorer(source OutcomeSource) *BlendScorer {
	return &BlendScorer{
		source:         source,
		MinSamples:     DefaultMinSamples,
		Default:        DefaultScore,
		FixWeight:      0.5,
		RatingWeight:   0.3,
		DurationWeight: 0.2,
	}
}

// Score blends the technician's outcome records into a single 0-10 value.
func (s *BlendScorer) Score(tech model.Technician) (float64, error) {
	outcomes, err := s.source.Outcomes(tech.ID)
	if err != nil {
		return 0, fmt.Errorf("performance: outcomes for technician %s: %w", tech.ID, err)
	}
	if len(outcomes) < s.MinSamples {
		return s.Default, nil
	}

	var fixes float64
	ratings := make([]float64, 0, len(outcomes))
	efficiencies := make([]float64, 0, len(outcomes))
	for _, o := range outcomes {
		if o.FirstTimeFix {
			fixes++
		}
		if r := o.CustomerRating / 5; r >= 0 && r <= 1 {
			ratings = append(ratings, r)
		}
		if o.ActualMinute > 0 && o.EstimatedMinute > 0 {
			eff := o.EstimatedMinute / o.ActualMinute
			if eff > 1 {
				eff = 1
			}
			efficiencies = append(efficiencies, eff)
		}
	}

	fixRate := fixes / float64(len(outcomes))
	rating := meanOrNeutral(ratings)
	efficiency := meanOrNeutral(efficiencies)

	totalWeight := s.FixWeight + s.RatingWeight + s.DurationWeight
	if totalWeight <= 0 {
		return 0, fmt.Errorf("performance: blend weights sum to %v", totalWeight)
	}
	blend := (s.FixWeight*fixRate + s.RatingWeight*rating + s.DurationWeight*efficiency) / totalWeight

	score := blend * 10
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, fmt.Errorf("performance: non-finite blend for technician %s", tech.ID)
	}
	return score, nil
}

// meanOrNeutral averages the usable samples of one blend component. A
// component with no usable samples counts as neutral rather than zero so a
// store without rating data does not sink every technician.
func meanOrNeutral(vals []float64) float64 {
	if len(vals) == 0 {
		return 0.5
	}
	return stat.Mean(vals, nil)
}
