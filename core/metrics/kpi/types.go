package kpi

import "time"

// Record aggregates dispatch KPIs for a technician and day.
type Record struct {
	TechnicianID string
	Date         time.Time
	Offers       int
	Acceptances  int
	Assignments  int
}

// AcceptanceRate returns the share of offers the technician accepted.
func (r Record) AcceptanceRate() float64 {
	if r.Offers == 0 {
		return 0
	}
	return float64(r.Acceptances) / float64(r.Offers)
}

// MissedOffers returns the offers that timed out or were declined.
func (r Record) MissedOffers() int {
	return r.Offers - r.Acceptances
}
