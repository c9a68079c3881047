package scenarios

import (
	"math"
	"testing"

	"github.com/fieldops/dispatchd/core/dispatch"
	"github.com/fieldops/dispatchd/core/geo"
	"github.com/fieldops/dispatchd/core/performance"
)

// RunScenario evaluates sc against an engine with the default weight table,
// the planar provider and deterministic tie-breaks, then checks every
// expectation. Exclusion expectations run against the filter directly so
// they work whether or not the scenario ends in manual dispatch.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()

	engine, err := dispatch.NewEngine(
		dispatch.DefaultScoringConfig(),
		geo.NewPlanar(),
		performance.NewBucketScorer(),
		dispatch.WithDeterministicTieBreak(),
	)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	job, err := sc.Job.ToModel()
	if err != nil {
		t.Fatalf("job: %v", err)
	}
	pool := sc.Pool()

	res, err := engine.GetTopCandidates(job, pool)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	if res.ManualDispatch != sc.Expect.Manual {
		t.Errorf("manual = %v, want %v", res.ManualDispatch, sc.Expect.Manual)
	}
	if res.ManualDispatch {
		if res.Assigned != nil || len(res.TopCandidates) != 0 {
			t.Errorf("manual dispatch must carry an empty slate, got %v", slateIDs(res))
		}
	} else if res.Assigned == nil {
		t.Error("missing assigned candidate on a non-manual result")
	}

	if len(sc.Expect.Top) > 0 {
		if got := slateIDs(res); len(got) != len(sc.Expect.Top) {
			t.Fatalf("slate %v, want %v", got, sc.Expect.Top)
		}
		for i, id := range sc.Expect.Top {
			if got := res.TopCandidates[i].Technician.ID; got != id {
				t.Errorf("rank %d = %s, want %s", i+1, got, id)
			}
		}
	}

	if len(sc.Expect.Excluded) > 0 {
		_, ineligible, err := engine.Filter(pool, job)
		if err != nil {
			t.Fatalf("filter: %v", err)
		}
		codes := make(map[string]string, len(ineligible))
		for _, e := range ineligible {
			codes[e.Technician.ID] = string(e.Code)
		}
		for id, code := range sc.Expect.Excluded {
			if got, ok := codes[id]; !ok {
				t.Errorf("technician %s not excluded, want %s", id, code)
			} else if got != code {
				t.Errorf("technician %s excluded as %s, want %s", id, got, code)
			}
		}
	}

	for _, want := range sc.Expect.Scores {
		got, ok := component(res, want.ID, want.Component)
		if !ok {
			t.Errorf("no %s score for %s in slate %v", want.Component, want.ID, slateIDs(res))
			continue
		}
		tol := want.Tolerance
		if tol == 0 {
			tol = 1e-9
		}
		if math.Abs(got-want.Value) > tol {
			t.Errorf("%s %s = %v, want %v (tolerance %v)", want.ID, want.Component, got, want.Value, tol)
		}
	}
}

func slateIDs(res dispatch.Result) []string {
	ids := make([]string, len(res.TopCandidates))
	for i, c := range res.TopCandidates {
		ids[i] = c.Technician.ID
	}
	return ids
}

func component(res dispatch.Result, id, name string) (float64, bool) {
	for _, c := range res.TopCandidates {
		if c.Technician.ID != id {
			continue
		}
		switch name {
		case "distance":
			return c.DistanceScore, true
		case "availability":
			return c.AvailabilityScore, true
		case "skill":
			return c.SkillScore, true
		case "performance":
			return c.PerformanceScore, true
		case "workload":
			return c.WorkloadScore, true
		case "total":
			return c.TotalScore, true
		}
		return 0, false
	}
	return 0, false
}
