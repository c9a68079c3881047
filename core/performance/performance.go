// Package performance turns technician job history into the performance
// component of a dispatch score.
//
// Two scorers ship side by side: BucketScorer averages the rolling outcome
// history carried on the technician record and maps it onto a discrete
// bucket table, while BlendScorer computes a continuous weighted blend of
// first-time-fix rate, customer rating and duration efficiency from a
// separate outcome store. Both land on the same 0-10 band so either can be
// wired into the engine. BucketScorer is the default.
package performance

import "github.com/fieldops/dispatchd/core/model"

// Scorer converts a technician's recent outcome history into a score on
// the 0-10 band. Implementations return the documented default when the
// history is too thin to be meaningful, and an error when the underlying
// data cannot be read or is malformed.
type Scorer interface {
	Score(tech model.Technician) (float64, error)
}
