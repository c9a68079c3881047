package events

import "github.com/fieldops/dispatchd/core/model"

// JobEvent is published when a job is accepted for dispatch evaluation.
type JobEvent struct {
	Job model.Job
}
