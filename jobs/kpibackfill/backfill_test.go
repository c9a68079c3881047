package kpibackfill

import (
	"testing"
	"time"

	"github.com/fieldops/dispatchd/core/dispatch/logging"
	"github.com/fieldops/dispatchd/core/metrics/kpi"
)

func TestBackfill(t *testing.T) {
	day := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	history := []logging.LogRecord{
		{
			Timestamp:         day,
			JobID:             "job-1",
			AssignedID:        "tech-a",
			OfferAccepted:     true,
			OfferTechnicianID: "tech-a",
		},
		{
			// Engine picked tech-a but tech-b accepted after the walk-down.
			Timestamp:         day.Add(2 * time.Hour),
			JobID:             "job-2",
			AssignedID:        "tech-a",
			OfferAccepted:     true,
			OfferTechnicianID: "tech-b",
		},
		{
			Timestamp:      day.Add(4 * time.Hour),
			JobID:          "job-3",
			ManualDispatch: true,
		},
	}

	store := kpi.NewMemoryStore()
	if err := Backfill(store, history); err != nil {
		t.Fatalf("Backfill: %v", err)
	}

	recsA, err := store.Query("tech-a", day, day)
	if err != nil {
		t.Fatalf("query tech-a: %v", err)
	}
	if len(recsA) != 1 || recsA[0].Assignments != 2 || recsA[0].Acceptances != 1 {
		t.Fatalf("unexpected tech-a aggregate: %+v", recsA)
	}

	recsB, err := store.Query("tech-b", day, day)
	if err != nil {
		t.Fatalf("query tech-b: %v", err)
	}
	if len(recsB) != 1 || recsB[0].Offers != 1 || recsB[0].Acceptances != 1 || recsB[0].Assignments != 0 {
		t.Fatalf("unexpected tech-b aggregate: %+v", recsB)
	}
}
