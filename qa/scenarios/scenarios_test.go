package scenarios

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario files under testdata")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte(":"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestJobDefPriority(t *testing.T) {
	job, err := JobDef{ID: "j", Priority: "emergency", Location: LocationDef{Lat: 1, Lng: 2}}.ToModel()
	if err != nil {
		t.Fatalf("emergency: %v", err)
	}
	if !job.IsEmergency() {
		t.Error("expected emergency priority")
	}
	if job, err := (JobDef{ID: "j"}).ToModel(); err != nil || job.IsEmergency() {
		t.Errorf("empty priority should parse as normal, got %v %v", job.Priority, err)
	}
	if _, err := (JobDef{ID: "j", Priority: "asap"}).ToModel(); err == nil {
		t.Error("expected error for unknown priority")
	}
}

func TestTechnicianDefLocation(t *testing.T) {
	withLoc := TechnicianDef{ID: "a", Location: &LocationDef{Lat: 45.5, Lng: 4.8}}.ToModel()
	if withLoc.Location == nil || withLoc.Location.Lat != 45.5 {
		t.Fatalf("location not carried over: %+v", withLoc.Location)
	}
	if noLoc := (TechnicianDef{ID: "b"}).ToModel(); noLoc.Location != nil {
		t.Fatal("missing location must map to nil, not the origin")
	}
}
