// Package kpibackfill reconstructs dispatch KPI aggregates from the
// decision log, for deployments that enable KPI tracking after the fact.
package kpibackfill

import (
	"github.com/fieldops/dispatchd/core/dispatch/logging"
	"github.com/fieldops/dispatchd/core/metrics/kpi"
)

// Backfill replays historical decision records into the store. The log
// keeps only the final offer outcome, not every walk-down attempt, so
// backfilled offer counts cover accepted offers only; live collection
// through the event bus stays authoritative for acceptance rates.
func Backfill(store kpi.Store, history []logging.LogRecord) error {
	for _, h := range history {
		day := kpi.Day(h.Timestamp)
		if h.AssignedID != "" {
			rec := kpi.Record{TechnicianID: h.AssignedID, Date: day, Assignments: 1}
			if err := store.Add(rec); err != nil {
				return err
			}
		}
		if h.OfferAccepted && h.OfferTechnicianID != "" {
			rec := kpi.Record{TechnicianID: h.OfferTechnicianID, Date: day, Offers: 1, Acceptances: 1}
			if err := store.Add(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
