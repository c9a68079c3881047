package dispatch

import (
	"fmt"
	"math"

	"github.com/fieldops/dispatchd/core/model"
)

// Score computes the five-component breakdown for each technician against
// the job. Callers are expected to pass technicians that already cleared
// Filter; a missing location errors here because no distance exists.
func (e *Engine) Score(techs []model.Technician, job model.Job) ([]TechnicianScore, error) {
	cands := make([]candidate, 0, len(techs))
	for _, t := range techs {
		if !t.HasLocation() {
			return nil, fmt.Errorf("dispatch: technician %s has no valid location", t.ID)
		}
		dist, err := e.travelCost(t, job)
		if err != nil {
			return nil, err
		}
		cands = append(cands, candidate{tech: t, distance: dist})
	}
	return e.scoreCandidates(cands, job)
}

func (e *Engine) scoreCandidates(cands []candidate, job model.Job) ([]TechnicianScore, error) {
	scores := make([]TechnicianScore, 0, len(cands))
	for _, c := range cands {
		s, err := e.scoreOne(c, job)
		if err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, nil
}

func (e *Engine) scoreOne(c candidate, job model.Job) (TechnicianScore, error) {
	distScore := e.distanceScore(c.distance)
	availScore := e.availabilityScore(c.tech)
	skillScore := e.skillScore(c.tech, job)
	workScore := e.workloadScore(c.tech)

	perfScore, err := e.perf.Score(c.tech)
	if err != nil {
		return TechnicianScore{}, fmt.Errorf("dispatch: performance for technician %s: %w", c.tech.ID, err)
	}
	if math.IsNaN(perfScore) || math.IsInf(perfScore, 0) {
		return TechnicianScore{}, fmt.Errorf("dispatch: non-finite performance score %v for technician %s", perfScore, c.tech.ID)
	}
	if perfScore < 0 {
		perfScore = 0
	}

	if job.IsEmergency() {
		distScore *= e.cfg.Emergency.DistanceMultiplier
		availScore = floorZero(availScore - e.cfg.Emergency.AvailabilityPenalty)
		workScore = floorZero(workScore - e.cfg.Emergency.WorkloadPenalty)
	}

	return TechnicianScore{
		Technician:        c.tech,
		DistanceScore:     distScore,
		AvailabilityScore: availScore,
		SkillScore:        skillScore,
		PerformanceScore:  perfScore,
		WorkloadScore:     workScore,
		TotalScore:        distScore + availScore + skillScore + perfScore + workScore,
		Distance:          c.distance,
	}, nil
}

func (e *Engine) distanceScore(dist float64) float64 {
	d := e.cfg.Distance
	switch {
	case dist <= d.Excellent:
		return d.MaxScore
	case dist <= d.Good:
		return d.MaxScore - (dist-d.Excellent)/(d.Good-d.Excellent)*(d.MaxScore-d.GoodScore)
	default:
		return floorZero(d.GoodScore - (dist-d.Good)/(d.Max-d.Good)*d.GoodScore)
	}
}

func (e *Engine) availabilityScore(t model.Technician) float64 {
	a := e.cfg.Availability
	if t.CurrentJobCount == 0 {
		return a.ZeroLoad
	}
	ratio := float64(t.CurrentJobCount) / float64(t.MaxConcurrentJobs)
	if ratio <= 0.5 {
		return a.HalfLoad
	}
	return floorZero(a.HalfLoad - (ratio-0.5)/0.5*a.HalfLoad)
}

func (e *Engine) skillScore(t model.Technician, job model.Job) float64 {
	diff := t.SkillLevel - job.RequiredSkillLevel
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return e.cfg.Skill.Exact
	case diff == 1:
		return e.cfg.Skill.OneOver
	default:
		return e.cfg.Skill.TwoOrMoreOver
	}
}

func (e *Engine) workloadScore(t model.Technician) float64 {
	w := e.cfg.Workload
	cur := t.CurrentJobCount
	switch {
	case cur <= 0:
		return w.FullScore
	case cur >= w.MaxJobs:
		return 0
	case cur <= w.MidJobs:
		return w.FullScore - float64(cur)/float64(w.MidJobs)*(w.FullScore-w.MidScore)
	default:
		return w.MidScore - float64(cur-w.MidJobs)/float64(w.MaxJobs-w.MidJobs)*w.MidScore
	}
}

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
