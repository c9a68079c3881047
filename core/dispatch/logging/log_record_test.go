package logging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fieldops/dispatchd/core/model"
)

func sampleRecord(ts time.Time) LogRecord {
	return LogRecord{
		Timestamp:      ts,
		DispatchID:     "d-1",
		JobID:          "job-1",
		Priority:       model.PriorityEmergency,
		PoolSize:       3,
		EligibleCount:  2,
		ManualDispatch: false,
		AssignedID:     "tech-1",
		Candidates: []Candidate{
			{TechnicianID: "tech-1", Name: "Ana", Rank: 1, TotalScore: 92.5, Distance: 4.2},
			{TechnicianID: "tech-2", Name: "Bo", Rank: 2, TotalScore: 88.0, Distance: 9.7},
		},
		Ineligible: []Exclusion{
			{TechnicianID: "tech-3", Code: "too_far", Reason: "Too far (61.0km > 25km)"},
		},
	}
}

func TestLogRecord_JSON(t *testing.T) {
	rec := sampleRecord(time.Unix(0, 0))
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := []string{"timestamp", "dispatch_id", "job_id", "priority", "pool_size", "eligible_count", "candidates", "ineligible"}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %s", k)
		}
	}
	if m["priority"] != "emergency" {
		t.Errorf("priority = %v, want emergency", m["priority"])
	}
}

func TestLogQuery_Matches(t *testing.T) {
	now := time.Now()
	rec := sampleRecord(now)
	cases := []struct {
		name string
		q    LogQuery
		want bool
	}{
		{"empty matches all", LogQuery{}, true},
		{"window hit", LogQuery{Start: now.Add(-time.Hour), End: now.Add(time.Hour)}, true},
		{"before window", LogQuery{Start: now.Add(time.Hour)}, false},
		{"after window", LogQuery{End: now.Add(-time.Hour)}, false},
		{"job id", LogQuery{JobID: "job-1"}, true},
		{"wrong job id", LogQuery{JobID: "job-2"}, false},
		{"priority", LogQuery{Priority: "emergency"}, true},
		{"wrong priority", LogQuery{Priority: "normal"}, false},
		{"manual only excludes ranked", LogQuery{ManualOnly: true}, false},
		{"assigned technician", LogQuery{TechnicianID: "tech-1"}, true},
		{"ranked technician", LogQuery{TechnicianID: "tech-2"}, true},
		{"excluded technician", LogQuery{TechnicianID: "tech-3"}, true},
		{"unknown technician", LogQuery{TechnicianID: "tech-9"}, false},
	}
	for _, tc := range cases {
		if got := tc.q.matches(rec); got != tc.want {
			t.Errorf("%s: matches = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := t.TempDir() + "/decisions.jsonl"
	store, err := NewJSONLStore(path)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	now := time.Now()
	ranked := sampleRecord(now)
	manual := LogRecord{Timestamp: now, DispatchID: "d-2", JobID: "job-2", ManualDispatch: true}
	if err := store.Append(context.Background(), ranked); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(context.Background(), manual); err != nil {
		t.Fatalf("append: %v", err)
	}
	out, err := store.Query(context.Background(), LogQuery{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	out, err = store.Query(context.Background(), LogQuery{ManualOnly: true})
	if err != nil {
		t.Fatalf("query manual: %v", err)
	}
	if len(out) != 1 || out[0].JobID != "job-2" {
		t.Fatalf("manual query = %+v", out)
	}
	out, err = store.Query(context.Background(), LogQuery{TechnicianID: "tech-3"})
	if err != nil {
		t.Fatalf("query technician: %v", err)
	}
	if len(out) != 1 || out[0].DispatchID != "d-1" {
		t.Fatalf("technician query = %+v", out)
	}
}
