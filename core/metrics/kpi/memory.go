package kpi

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore stores records in memory for testing or lightweight usage.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[time.Time]*Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]map[time.Time]*Record{}}
}

// Add accumulates the record into the technician's daily aggregate.
func (s *MemoryStore) Add(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[r.TechnicianID] == nil {
		s.data[r.TechnicianID] = map[time.Time]*Record{}
	}
	d := Day(r.Date)
	rec := s.data[r.TechnicianID][d]
	if rec == nil {
		rec = &Record{TechnicianID: r.TechnicianID, Date: d}
		s.data[r.TechnicianID][d] = rec
	}
	rec.Offers += r.Offers
	rec.Acceptances += r.Acceptances
	rec.Assignments += r.Assignments
	return nil
}

// Query returns records between start and end inclusive.
func (s *MemoryStore) Query(technicianID string, start, end time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start = Day(start)
	end = Day(end)
	var res []Record
	for d, r := range s.data[technicianID] {
		if d.Before(start) || d.After(end) {
			continue
		}
		res = append(res, *r)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Date.Before(res[j].Date) })
	return res, nil
}
