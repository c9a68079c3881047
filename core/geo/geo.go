// Package geo provides travel-cost providers for the dispatch engine.
//
// A DistanceProvider converts two positions into a single travel cost. The
// unit is deployment-defined: the providers in this package return
// kilometres, while a routed provider (infra/routing) returns drive-time
// minutes. All scoring thresholds are expressed in the same unit, so
// swapping providers never changes a scoring formula.
package geo

import (
	"fmt"

	"github.com/fieldops/dispatchd/core/model"
)

// DistanceProvider computes the travel cost between two positions.
type DistanceProvider interface {
	Distance(from, to model.Coordinates) (float64, error)
}

// ErrInvalidCoordinates is wrapped by providers rejecting malformed input.
var ErrInvalidCoordinates = fmt.Errorf("geo: invalid coordinates")

func checkCoordinates(from, to model.Coordinates) error {
	if !from.Valid() {
		return fmt.Errorf("%w: from (%v, %v)", ErrInvalidCoordinates, from.Lat, from.Lng)
	}
	if !to.Valid() {
		return fmt.Errorf("%w: to (%v, %v)", ErrInvalidCoordinates, to.Lat, to.Lng)
	}
	return nil
}
