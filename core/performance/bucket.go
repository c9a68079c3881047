package performance

import (
	"fmt"
	"math"

	"github.com/fieldops/dispatchd/core/model"
)

const (
	// DefaultMinSamples is the history length below which the average is
	// not trusted and the neutral default applies.
	DefaultMinSamples = 10
	// DefaultScore is the neutral score for technicians with thin history.
	DefaultScore = 7.0
)

// BucketScorer maps the mean of a technician's RecentPerformance history
// onto a discrete bucket table. Outcome samples live on a 0-100 scale.
type BucketScorer struct {
	MinSamples int
	Default    float64
}

// NewBucketScorer returns a scorer with the standard thresholds.
func NewBucketScorer() BucketScorer {
	return BucketScorer{MinSamples: DefaultMinSamples, Default: DefaultScore}
}

// Score buckets the technician's average outcome. Below MinSamples the
// default applies regardless of the values present.
func (s BucketScorer) Score(tech model.Technician) (float64, error) {
	hist := tech.RecentPerformance
	if len(hist) < s.MinSamples {
		return s.Default, nil
	}

	var sum float64
	for _, v := range hist {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("performance: technician %s has non-finite outcome sample %v", tech.ID, v)
		}
		// Outcomes are 0-100; clamp strays instead of poisoning the mean.
		if v < 0 {
			v = 0
		}
		sum += v
	}
	avg := sum / float64(len(hist))

	switch {
	case avg >= 95:
		return 10, nil
	case avg >= 90:
		return 9, nil
	case avg >= 85:
		return 7, nil
	case avg >= 75:
		return 5, nil
	default:
		return 3, nil
	}
}
