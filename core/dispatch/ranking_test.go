package dispatch

import (
	"testing"

	"github.com/fieldops/dispatchd/core/model"
)

func TestRankTieBreakByHistorySum(t *testing.T) {
	// Identical totals, different accumulated history: the larger body of
	// work wins the tie even though the average is the same.
	e := mustEngine(t, stubDistance{dist: 5}, stubScorer{score: 7})

	veteran := fieldTech("veteran", 0)
	veteran.RecentPerformance = steadyHistory(90, 20) // sum 1800
	rookie := fieldTech("rookie", 0)
	rookie.RecentPerformance = steadyHistory(90, 10) // sum 900

	scores, err := e.Score([]model.Technician{rookie, veteran}, testJob(model.PriorityNormal))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if scores[0].TotalScore != scores[1].TotalScore {
		t.Fatalf("setup broken, totals differ: %v vs %v", scores[0].TotalScore, scores[1].TotalScore)
	}

	ranked := e.Rank(scores)
	if ranked[0].Technician.ID != "veteran" {
		t.Fatalf("expected veteran first on history sum, got %s", ranked[0].Technician.ID)
	}
}

func TestRankTieBreakByDistance(t *testing.T) {
	// A flat scoring segment up to 15km lets two technicians carry equal
	// totals at different raw distances.
	cfg := DefaultScoringConfig()
	cfg.Distance.Excellent = 15
	e, err := NewEngine(cfg, latDistance{0: 12, 1: 9}, stubScorer{score: 7})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	far := fieldTech("far", 0)
	near := fieldTech("near", 1)

	scores, err := e.Score([]model.Technician{far, near}, testJob(model.PriorityNormal))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if scores[0].TotalScore != scores[1].TotalScore {
		t.Fatalf("setup broken, totals differ: %v vs %v", scores[0].TotalScore, scores[1].TotalScore)
	}

	ranked := e.Rank(scores)
	if ranked[0].Technician.ID != "near" {
		t.Fatalf("expected nearer technician first, got %s", ranked[0].Technician.ID)
	}
}

func TestRankTieBreakByJobCount(t *testing.T) {
	// Under emergency penalties both availability and workload floor at
	// zero, so different job counts can carry identical totals.
	e := mustEngine(t, stubDistance{dist: 5}, stubScorer{score: 7})

	busier := fieldTech("busier", 0)
	busier.CurrentJobCount = 7
	busier.MaxConcurrentJobs = 10
	calmer := fieldTech("calmer", 0)
	calmer.CurrentJobCount = 6
	calmer.MaxConcurrentJobs = 10

	scores, err := e.Score([]model.Technician{busier, calmer}, testJob(model.PriorityEmergency))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if scores[0].TotalScore != scores[1].TotalScore {
		t.Fatalf("setup broken, totals differ: %v vs %v", scores[0].TotalScore, scores[1].TotalScore)
	}

	ranked := e.Rank(scores)
	if ranked[0].Technician.ID != "calmer" {
		t.Fatalf("expected lower job count first, got %s", ranked[0].Technician.ID)
	}
}

func TestRankNearTieWindow(t *testing.T) {
	// Totals 0.08 apart sit inside the tie window, so the history sum
	// outranks the raw total order.
	e := mustEngine(t, latDistance{0: 10.0, 1: 10.1}, stubScorer{score: 7})

	strong := fieldTech("strong", 1) // slightly farther, slightly lower total
	strong.RecentPerformance = steadyHistory(95, 20)
	weak := fieldTech("weak", 0)
	weak.RecentPerformance = steadyHistory(95, 10)

	scores, err := e.Score([]model.Technician{weak, strong}, testJob(model.PriorityNormal))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	ranked := e.Rank(scores)
	if ranked[0].Technician.ID != "strong" {
		t.Fatalf("expected near-tie resolved by history sum, got %s", ranked[0].Technician.ID)
	}
}

func TestRankOutsideTieWindowKeepsTotalOrder(t *testing.T) {
	e := mustEngine(t, latDistance{0: 10, 1: 12}, stubScorer{score: 7})

	closer := fieldTech("closer", 0)
	richer := fieldTech("richer", 1)
	richer.RecentPerformance = steadyHistory(100, 50)

	scores, err := e.Score([]model.Technician{richer, closer}, testJob(model.PriorityNormal))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	// 2km apart is a 1.6 point spread, well past the 0.1 window: history
	// must not reorder.
	ranked := e.Rank(scores)
	if ranked[0].Technician.ID != "closer" {
		t.Fatalf("expected plain total ordering, got %s", ranked[0].Technician.ID)
	}
}

func TestRankDeterministicFallbackUsesID(t *testing.T) {
	e := mustEngine(t, stubDistance{dist: 5}, stubScorer{score: 7}, WithDeterministicTieBreak())

	pool := []model.Technician{fieldTech("c", 0), fieldTech("a", 0), fieldTech("b", 0)}
	scores, err := e.Score(pool, testJob(model.PriorityNormal))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	for i := 0; i < 5; i++ {
		ranked := e.Rank(scores)
		if ranked[0].Technician.ID != "a" || ranked[1].Technician.ID != "b" || ranked[2].Technician.ID != "c" {
			t.Fatalf("run %d: expected id order for full ties, got %s/%s/%s",
				i, ranked[0].Technician.ID, ranked[1].Technician.ID, ranked[2].Technician.ID)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	e := mustEngine(t, latDistance{0: 2, 1: 30}, stubScorer{score: 7})

	pool := []model.Technician{fieldTech("far", 1), fieldTech("near", 0)}
	scores, err := e.Score(pool, testJob(model.PriorityNormal))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}

	before := []string{scores[0].Technician.ID, scores[1].Technician.ID}
	ranked := e.Rank(scores)
	if ranked[0].Technician.ID != "near" {
		t.Fatalf("expected near first, got %s", ranked[0].Technician.ID)
	}
	if scores[0].Technician.ID != before[0] || scores[1].Technician.ID != before[1] {
		t.Fatal("Rank must not reorder its input slice")
	}
}

func TestRankEmptyAndSingle(t *testing.T) {
	e := mustEngine(t, stubDistance{dist: 5}, stubScorer{score: 7})

	if got := e.Rank(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}

	single := []TechnicianScore{{Technician: model.Technician{ID: "solo"}, TotalScore: 42}}
	ranked := e.Rank(single)
	if len(ranked) != 1 || ranked[0].Technician.ID != "solo" {
		t.Fatalf("unexpected single ranking: %+v", ranked)
	}
}
