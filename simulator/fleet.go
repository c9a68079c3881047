package main

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/fieldops/dispatchd/core/model"
)

// kmPerDegree converts the fleet radius into degree space.
const kmPerDegree = 111.0

var (
	regions = []string{"north", "south", "east", "west"}
	teams   = []string{"hvac", "refrigeration", "controls"}
)

// FleetConfig holds parameters for bulk fleet generation.
type FleetConfig struct {
	Size      int
	CenterLat float64
	CenterLng float64
	RadiusKM  float64
	Shift     [24]float64
	Seed      int64
}

// GenerateFleet creates Size technicians with IDs tech0001..techNNNN spread
// uniformly inside the service radius. The same seed reproduces the same
// roster.
func GenerateFleet(cfg FleetConfig) []SimulatedTechnician {
	if cfg.Size <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	fleet := make([]SimulatedTechnician, cfg.Size)
	for i := 0; i < cfg.Size; i++ {
		id := fmt.Sprintf("tech%04d", i+1)
		// sqrt keeps the density uniform over the disk instead of
		// clustering at the center
		r := cfg.RadiusKM / kmPerDegree * math.Sqrt(rng.Float64())
		theta := rng.Float64() * 2 * math.Pi
		fleet[i] = SimulatedTechnician{
			Tech: model.Technician{
				ID:                id,
				Name:              id,
				Active:            true,
				Available:         true,
				MaxConcurrentJobs: 2 + rng.Intn(3),
				CurrentJobCount:   rng.Intn(2),
				Location: &model.Coordinates{
					Lat: cfg.CenterLat + r*math.Cos(theta),
					Lng: cfg.CenterLng + r*math.Sin(theta),
				},
				SkillLevel: 1 + rng.Intn(5),
				Region:     regions[rng.Intn(len(regions))],
				Team:       teams[rng.Intn(len(teams))],
			},
			Shift: cfg.Shift,
			rng:   rand.New(rand.NewSource(cfg.Seed + int64(i) + 1)),
		}
	}
	return fleet
}

// LoadShiftProfile reads an hourly on-shift probability map keyed by hour
// ("0".."23"). Missing hours stay at zero.
func LoadShiftProfile(data []byte) ([24]float64, error) {
	var prof [24]float64
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return prof, err
	}
	for h, v := range m {
		var hour int
		if _, err := fmt.Sscanf(h, "%d", &hour); err != nil {
			continue
		}
		if hour >= 0 && hour < 24 {
			prof[hour] = v
		}
	}
	return prof, nil
}
