package performance

import (
	"errors"
	"math"
	"testing"

	"github.com/fieldops/dispatchd/core/model"
)

func histOf(v float64, n int) []float64 {
	h := make([]float64, n)
	for i := range h {
		h[i] = v
	}
	return h
}

func TestBucketScorerThinHistory(t *testing.T) {
	s := NewBucketScorer()

	for _, n := range []int{0, 1, 9} {
		got, err := s.Score(model.Technician{ID: "t1", RecentPerformance: histOf(100, n)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != DefaultScore {
			t.Fatalf("history len %d: expected default %v, got %v", n, DefaultScore, got)
		}
	}
}

func TestBucketScorerBuckets(t *testing.T) {
	s := NewBucketScorer()

	cases := []struct {
		avg  float64
		want float64
	}{
		{100, 10},
		{95, 10},
		{94.9, 9},
		{90, 9},
		{89.9, 7},
		{85, 7},
		{84.9, 5},
		{75, 5},
		{74.9, 3},
		{0, 3},
	}
	for _, c := range cases {
		got, err := s.Score(model.Technician{ID: "t1", RecentPerformance: histOf(c.avg, 10)})
		if err != nil {
			t.Fatalf("avg %v: unexpected error: %v", c.avg, err)
		}
		if got != c.want {
			t.Fatalf("avg %v: expected %v, got %v", c.avg, c.want, got)
		}
	}
}

func TestBucketScorerRejectsNonFinite(t *testing.T) {
	s := NewBucketScorer()
	hist := histOf(90, 10)
	hist[4] = math.NaN()

	if _, err := s.Score(model.Technician{ID: "t1", RecentPerformance: hist}); err == nil {
		t.Fatal("expected error for NaN sample")
	}
	hist[4] = math.Inf(1)
	if _, err := s.Score(model.Technician{ID: "t1", RecentPerformance: hist}); err == nil {
		t.Fatal("expected error for Inf sample")
	}
}

func TestBucketScorerClampsNegativeSamples(t *testing.T) {
	s := NewBucketScorer()
	// Nine perfect outcomes plus one negative stray: the stray counts as 0,
	// giving an average of 90.
	hist := histOf(100, 10)
	hist[0] = -50

	got, err := s.Score(model.Technician{ID: "t1", RecentPerformance: hist})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 9 {
		t.Fatalf("expected bucket 9 after clamping, got %v", got)
	}
}

type stubOutcomes struct {
	outcomes []JobOutcome
	err      error
}

func (s stubOutcomes) Outcomes(string) ([]JobOutcome, error) { return s.outcomes, s.err }

func TestBlendScorerPerfectHistory(t *testing.T) {
	outcomes := make([]JobOutcome, 12)
	for i := range outcomes {
		outcomes[i] = JobOutcome{FirstTimeFix: true, CustomerRating: 5, EstimatedMinute: 60, ActualMinute: 60}
	}
	s := NewBlendScorer(stubOutcomes{outcomes: outcomes})

	got, err := s.Score(model.Technician{ID: "t1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-10) > 1e-9 {
		t.Fatalf("expected 10 for perfect history, got %v", got)
	}
}

func TestBlendScorerThinHistory(t *testing.T) {
	s := NewBlendScorer(stubOutcomes{outcomes: make([]JobOutcome, 3)})
	got, err := s.Score(model.Technician{ID: "t1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DefaultScore {
		t.Fatalf("expected default %v, got %v", DefaultScore, got)
	}
}

func TestBlendScorerSourceError(t *testing.T) {
	wantErr := errors.New("store down")
	s := NewBlendScorer(stubOutcomes{err: wantErr})
	if _, err := s.Score(model.Technician{ID: "t1"}); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
}

func TestBlendScorerMixedHistory(t *testing.T) {
	outcomes := make([]JobOutcome, 10)
	for i := range outcomes {
		outcomes[i] = JobOutcome{
			FirstTimeFix:    i%2 == 0, // 50% fix rate
			CustomerRating:  4,        // 0.8 normalized
			EstimatedMinute: 60,
			ActualMinute:    120, // 0.5 efficiency
		}
	}
	s := NewBlendScorer(stubOutcomes{outcomes: outcomes})

	got, err := s.Score(model.Technician{ID: "t1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 0.5*0.5 + 0.3*0.8 + 0.2*0.5 = 0.59 -> 5.9
	if math.Abs(got-5.9) > 1e-9 {
		t.Fatalf("expected 5.9, got %v", got)
	}
}
