package geo

import (
	"math"

	"github.com/fieldops/dispatchd/core/model"
)

// kmPerDegree approximates the ground length of one degree of latitude.
// Longitude degrees shrink toward the poles, so the planar provider
// overestimates east-west distances at high latitudes. Acceptable for
// metro-scale service areas; use Haversine for anything wider.
const kmPerDegree = 111.0

// Planar computes straight-line distance on a flat-earth approximation:
// Euclidean distance in degree space scaled by kmPerDegree. It is the
// default provider.
type Planar struct{}

// NewPlanar returns the flat-earth provider.
func NewPlanar() Planar {
	return Planar{}
}

// Distance returns the approximate distance between from and to in km.
func (Planar) Distance(from, to model.Coordinates) (float64, error) {
	if err := checkCoordinates(from, to); err != nil {
		return 0, err
	}
	dLat := from.Lat - to.Lat
	dLng := from.Lng - to.Lng
	return math.Sqrt(dLat*dLat+dLng*dLng) * kmPerDegree, nil
}
