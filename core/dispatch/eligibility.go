package dispatch

import (
	"fmt"
	"math"

	"github.com/fieldops/dispatchd/core/model"
)

// Filter splits the pool into technicians eligible for the job and excluded
// ones with reasons. Checks run in a fixed order per technician and the
// first failing check wins. Business outcomes never error; only a distance
// provider failure does.
func (e *Engine) Filter(techs []model.Technician, job model.Job) ([]model.Technician, []Ineligible, error) {
	cands, ineligible, err := e.filterPool(techs, job)
	if err != nil {
		return nil, nil, err
	}
	eligible := make([]model.Technician, len(cands))
	for i, c := range cands {
		eligible[i] = c.tech
	}
	return eligible, ineligible, nil
}

func (e *Engine) filterPool(techs []model.Technician, job model.Job) ([]candidate, []Ineligible, error) {
	maxDist := e.cfg.Distance.Max
	if job.IsEmergency() {
		maxDist *= e.cfg.Emergency.MaxDistanceFactor
	}

	var eligible []candidate
	var ineligible []Ineligible
	for _, t := range techs {
		if !t.Active {
			ineligible = append(ineligible, Ineligible{Technician: t, Code: ReasonInactive, Reason: "Inactive"})
			continue
		}
		if !t.Available {
			ineligible = append(ineligible, Ineligible{Technician: t, Code: ReasonUnavailable, Reason: "Not available"})
			continue
		}
		// A non-positive capacity would turn the availability ratio into
		// NaN/Inf downstream; call it out instead of reporting "max jobs".
		if t.MaxConcurrentJobs <= 0 {
			ineligible = append(ineligible, Ineligible{Technician: t, Code: ReasonInvalidCapacity, Reason: "Invalid capacity configuration"})
			continue
		}
		if t.CurrentJobCount >= t.MaxConcurrentJobs {
			ineligible = append(ineligible, Ineligible{
				Technician: t,
				Code:       ReasonMaxJobs,
				Reason:     fmt.Sprintf("Max jobs reached (%d/%d)", t.CurrentJobCount, t.MaxConcurrentJobs),
			})
			continue
		}
		if !t.HasLocation() {
			ineligible = append(ineligible, Ineligible{Technician: t, Code: ReasonNoLocation, Reason: "No valid location"})
			continue
		}

		dist, err := e.travelCost(t, job)
		if err != nil {
			return nil, nil, err
		}
		if dist > maxDist {
			ineligible = append(ineligible, Ineligible{
				Technician: t,
				Code:       ReasonTooFar,
				Reason:     fmt.Sprintf("Too far (%.1f%s > %.0f%s)", dist, e.cfg.Distance.Unit, maxDist, e.cfg.Distance.Unit),
			})
			continue
		}
		if t.SkillLevel < job.RequiredSkillLevel {
			ineligible = append(ineligible, Ineligible{
				Technician: t,
				Code:       ReasonSkill,
				Reason:     fmt.Sprintf("Insufficient skill (%d < %d)", t.SkillLevel, job.RequiredSkillLevel),
			})
			continue
		}

		eligible = append(eligible, candidate{tech: t, distance: dist})
	}
	return eligible, ineligible, nil
}

// travelCost queries the distance provider and applies numeric hygiene: a
// non-finite value is an error, a negative one clamps to zero.
func (e *Engine) travelCost(t model.Technician, job model.Job) (float64, error) {
	dist, err := e.distance.Distance(*t.Location, job.Location)
	if err != nil {
		return 0, fmt.Errorf("dispatch: distance for technician %s: %w", t.ID, err)
	}
	if math.IsNaN(dist) || math.IsInf(dist, 0) {
		return 0, fmt.Errorf("dispatch: non-finite distance %v for technician %s", dist, t.ID)
	}
	if dist < 0 {
		dist = 0
	}
	return dist, nil
}
