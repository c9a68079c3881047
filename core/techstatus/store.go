// Package techstatus keeps the dispatcher-facing view of technician state:
// what the last discovery cycle reported plus the most recent offer each
// technician received. The status API reads from here.
package techstatus

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/fieldops/dispatchd/core/model"
)

// LastOffer summarizes the most recent job offer sent to a technician.
type LastOffer struct {
	JobID      string    `json:"job_id"`
	Priority   string    `json:"priority"`
	Rank       int       `json:"rank"`
	TotalScore float64   `json:"total_score"`
	Accepted   bool      `json:"accepted"`
	Timestamp  time.Time `json:"timestamp"`
}

// Status captures the current known state of a technician.
type Status struct {
	TechnicianID  string             `json:"technician_id"`
	Name          string             `json:"name,omitempty"`
	Region        string             `json:"region,omitempty"`
	Team          string             `json:"team,omitempty"`
	CurrentStatus string             `json:"current_status"`
	Available     bool               `json:"available"`
	JobLoad       string             `json:"job_load,omitempty"`
	Location      *model.Coordinates `json:"location,omitempty"`
	LastSeen      time.Time          `json:"last_seen,omitempty"`
	LastOffer     LastOffer          `json:"last_offer"`
}

// Filter narrows List output. Empty fields match everything.
type Filter struct {
	Region    string
	Team      string
	Available *bool
}

// Store is the status view updated by discovery and offer flows.
type Store interface {
	Set(Status)
	List(Filter) []Status
	RecordOffer(id string, offer LastOffer)
}

// MemoryStore is the in-process Store used by the service.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Status
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]Status{}}
}

func (s *MemoryStore) Set(st Status) {
	s.mu.Lock()
	s.data[st.TechnicianID] = st
	s.mu.Unlock()
}

// RecordOffer attaches the offer to the technician, creating the record if
// discovery has not reported the technician yet.
func (s *MemoryStore) RecordOffer(id string, offer LastOffer) {
	s.mu.Lock()
	st := s.data[id]
	if st.TechnicianID == "" {
		st.TechnicianID = id
	}
	st.LastOffer = offer
	st.CurrentStatus = "offered"
	if offer.Accepted {
		st.CurrentStatus = "assigned"
	}
	s.data[id] = st
	s.mu.Unlock()
}

func (s *MemoryStore) List(f Filter) []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Status, 0, len(s.data))
	for _, st := range s.data {
		if f.Region != "" && st.Region != f.Region {
			continue
		}
		if f.Team != "" && st.Team != f.Team {
			continue
		}
		if f.Available != nil && st.Available != *f.Available {
			continue
		}
		res = append(res, st)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].TechnicianID < res[j].TechnicianID })
	return res
}

// FromTechnician builds a discovery-sourced Status snapshot.
func FromTechnician(t model.Technician, seen time.Time) Status {
	status := "idle"
	switch {
	case !t.Active:
		status = "inactive"
	case !t.Available:
		status = "off_duty"
	case t.CurrentJobCount > 0:
		status = "working"
	}
	return Status{
		TechnicianID:  t.ID,
		Name:          t.Name,
		Region:        t.Region,
		Team:          t.Team,
		CurrentStatus: status,
		Available:     t.Available,
		JobLoad:       jobLoad(t),
		Location:      t.Location,
		LastSeen:      seen,
	}
}

func jobLoad(t model.Technician) string {
	if t.MaxConcurrentJobs <= 0 {
		return ""
	}
	return strconv.Itoa(t.CurrentJobCount) + "/" + strconv.Itoa(t.MaxConcurrentJobs)
}
