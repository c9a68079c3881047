package technicians

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fieldops/dispatchd/core/metrics/kpi"
	"github.com/fieldops/dispatchd/core/techstatus"
)

func seededStatus() *techstatus.MemoryStore {
	store := techstatus.NewMemoryStore()
	store.Set(techstatus.Status{TechnicianID: "tech-a", Region: "north", Team: "hvac", Available: true, CurrentStatus: "idle"})
	store.Set(techstatus.Status{TechnicianID: "tech-b", Region: "north", Team: "plumbing", Available: false, CurrentStatus: "off_duty"})
	store.Set(techstatus.Status{TechnicianID: "tech-c", Region: "south", Team: "hvac", Available: true, CurrentStatus: "working"})
	return store
}

func listStatus(t *testing.T, h http.Handler, url string) []techstatus.Status {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out []techstatus.Status
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestStatusHandler(t *testing.T) {
	h := NewStatusHandler(seededStatus())

	if out := listStatus(t, h, "/api/technicians/status"); len(out) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out))
	}
	out := listStatus(t, h, "/api/technicians/status?region=north")
	if len(out) != 2 {
		t.Fatalf("region filter failed: %+v", out)
	}
	out = listStatus(t, h, "/api/technicians/status?team=hvac&available=true")
	if len(out) != 2 {
		t.Fatalf("team+available filter failed: %+v", out)
	}
	out = listStatus(t, h, "/api/technicians/status?available=false")
	if len(out) != 1 || out[0].TechnicianID != "tech-b" {
		t.Fatalf("available=false filter failed: %+v", out)
	}
}

func TestStatusHandlerMethod(t *testing.T) {
	h := NewStatusHandler(seededStatus())
	req := httptest.NewRequest(http.MethodPost, "/api/technicians/status", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestKPIHandler(t *testing.T) {
	store := kpi.NewMemoryStore()
	day := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	if err := store.Add(kpi.Record{TechnicianID: "tech-a", Date: day, Offers: 2, Acceptances: 1, Assignments: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	h := NewKPIHandler(store)

	req := httptest.NewRequest(http.MethodGet,
		"/api/technicians/tech-a/kpis?start=2026-03-09T00%3A00%3A00Z&end=2026-03-11T00%3A00%3A00Z", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out []struct {
		Date           string  `json:"date"`
		Offers         int     `json:"offers"`
		AcceptanceRate float64 `json:"acceptance_rate"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 1 || out[0].Date != "2026-03-10" || out[0].Offers != 2 || out[0].AcceptanceRate != 0.5 {
		t.Fatalf("unexpected kpis: %+v", out)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/technicians/tech-a", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for malformed path, got %d", rr.Code)
	}
}
