// Package scenarios loads and runs YAML dispatch scenarios: a technician
// pool, one job and the expected outcome. The files under testdata form the
// edge-case suite for the scoring engine.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fieldops/dispatchd/core/model"
)

// LocationDef is a position in degree space.
type LocationDef struct {
	Lat float64 `yaml:"lat"`
	Lng float64 `yaml:"lng"`
}

// TechnicianDef describes one pool member. Flags are explicit so a scenario
// file reads as a complete roster snapshot.
type TechnicianDef struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name,omitempty"`
	Active      bool         `yaml:"active"`
	Available   bool         `yaml:"available"`
	MaxJobs     int          `yaml:"max_jobs"`
	CurrentJobs int          `yaml:"current_jobs"`
	Location    *LocationDef `yaml:"location,omitempty"`
	SkillLevel  int          `yaml:"skill_level"`
	Performance []float64    `yaml:"performance,omitempty"`
}

func (d TechnicianDef) ToModel() model.Technician {
	t := model.Technician{
		ID:                d.ID,
		Name:              d.Name,
		Active:            d.Active,
		Available:         d.Available,
		MaxConcurrentJobs: d.MaxJobs,
		CurrentJobCount:   d.CurrentJobs,
		SkillLevel:        d.SkillLevel,
		RecentPerformance: d.Performance,
	}
	if d.Location != nil {
		t.Location = &model.Coordinates{Lat: d.Location.Lat, Lng: d.Location.Lng}
	}
	return t
}

// JobDef describes the job to staff. An empty priority means normal.
type JobDef struct {
	ID            string      `yaml:"id"`
	Priority      string      `yaml:"priority,omitempty"`
	RequiredSkill int         `yaml:"required_skill"`
	Location      LocationDef `yaml:"location"`
}

func (d JobDef) ToModel() (model.Job, error) {
	prio, err := model.ParseJobPriority(d.Priority)
	if err != nil {
		return model.Job{}, err
	}
	return model.Job{
		ID:                 d.ID,
		Priority:           prio,
		RequiredSkillLevel: d.RequiredSkill,
		Location:           model.Coordinates{Lat: d.Location.Lat, Lng: d.Location.Lng},
	}, nil
}

// ScoreExpect pins one component of one slate member's breakdown.
// Component is one of distance, availability, skill, performance, workload
// or total.
type ScoreExpect struct {
	ID        string  `yaml:"id"`
	Component string  `yaml:"component"`
	Value     float64 `yaml:"value"`
	Tolerance float64 `yaml:"tolerance,omitempty"`
}

// Expected describes the outcome a scenario must produce. Top lists the
// slate in rank order; Excluded maps technician ids to reason codes.
type Expected struct {
	Manual   bool              `yaml:"manual,omitempty"`
	Top      []string          `yaml:"top,omitempty"`
	Excluded map[string]string `yaml:"excluded,omitempty"`
	Scores   []ScoreExpect     `yaml:"scores,omitempty"`
}

type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Technicians []TechnicianDef `yaml:"technicians"`
	Job         JobDef          `yaml:"job"`
	Expect      Expected        `yaml:"expect"`
}

// Pool converts the technician defs into model form.
func (s *Scenario) Pool() []model.Technician {
	pool := make([]model.Technician, len(s.Technicians))
	for i, d := range s.Technicians {
		pool[i] = d.ToModel()
	}
	return pool
}

// Load reads and parses one scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
