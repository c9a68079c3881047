package geo

import (
	"math"

	"github.com/fieldops/dispatchd/core/model"
)

const earthRadiusKm = 6371.0

// Haversine computes great-circle distance between two positions. Slightly
// more expensive than Planar but accurate at any latitude and span.
type Haversine struct{}

// NewHaversine returns the great-circle provider.
func NewHaversine() Haversine {
	return Haversine{}
}

// Distance returns the great-circle distance between from and to in km.
func (Haversine) Distance(from, to model.Coordinates) (float64, error) {
	if err := checkCoordinates(from, to); err != nil {
		return 0, err
	}

	lat1 := from.Lat * math.Pi / 180
	lat2 := to.Lat * math.Pi / 180
	dLat := (to.Lat - from.Lat) * math.Pi / 180
	dLng := (to.Lng - from.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c, nil
}
