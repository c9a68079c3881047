// Package export renders decision log records for external tooling. JSON
// keeps the full record including the scored slate and exclusions; CSV
// flattens each decision to a one-line summary.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/fieldops/dispatchd/core/dispatch/logging"
)

// WriteJSON writes the records to w as a JSON array.
func WriteJSON(w io.Writer, records []logging.LogRecord) error {
	enc := json.NewEncoder(w)
	return enc.Encode(records)
}

// WriteCSV writes one summary row per decision with stable headers.
func WriteCSV(w io.Writer, records []logging.LogRecord) error {
	cw := csv.NewWriter(w)
	header := []string{
		"timestamp", "dispatch_id", "job_id", "priority",
		"pool_size", "eligible_count", "manual_dispatch",
		"assigned_id", "assigned_score", "offer_accepted", "offer_technician_id",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			r.Timestamp.Format(time.RFC3339),
			r.DispatchID,
			r.JobID,
			r.Priority.String(),
			strconv.Itoa(r.PoolSize),
			strconv.Itoa(r.EligibleCount),
			strconv.FormatBool(r.ManualDispatch),
			r.AssignedID,
			assignedScore(r),
			strconv.FormatBool(r.OfferAccepted),
			r.OfferTechnicianID,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// assignedScore returns the total score of the assigned candidate, empty on
// manual dispatch.
func assignedScore(r logging.LogRecord) string {
	for _, c := range r.Candidates {
		if c.TechnicianID == r.AssignedID {
			return strconv.FormatFloat(c.TotalScore, 'f', -1, 64)
		}
	}
	return ""
}
