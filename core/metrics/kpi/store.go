// Package kpi aggregates per-technician dispatch KPIs by day: how often a
// technician was picked by the engine, offered a job, and accepted one.
package kpi

import "time"

// Store persists dispatch KPI records.
type Store interface {
	Add(Record) error
	Query(technicianID string, start, end time.Time) ([]Record, error)
}

// Helper to align time to start of day in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
