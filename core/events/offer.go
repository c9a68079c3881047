package events

import (
	"time"

	"github.com/fieldops/dispatchd/core/model"
)

// OfferEvent is published for each job offer outcome: an acceptance, a
// decline or a timeout while walking down the candidate slate.
type OfferEvent struct {
	OfferID      string
	JobID        string
	TechnicianID string
	Priority     model.JobPriority
	Rank         int
	Accepted     bool
	Err          error
	Latency      time.Duration
}
