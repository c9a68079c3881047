package mqtt

import (
	"errors"
	"time"

	"github.com/fieldops/dispatchd/core/model"
)

// ErrAckTimeout is returned when no reply is received before the timeout.
var ErrAckTimeout = errors.New("timeout waiting for ack")

// Client represents an MQTT client capable of offering jobs to technicians
// and waiting for their accept or decline replies.
type Client interface {
	// SendOffer pushes a job offer to the given technician and returns the
	// offer identifier used to track the reply. Rank is the technician's
	// position in the slate, starting at 1.
	SendOffer(technicianID string, job model.Job, rank int) (offerID string, err error)

	// WaitForAck waits for a reply to the provided offer identifier or until
	// the timeout expires. It returns true only for an explicit acceptance.
	WaitForAck(offerID string, timeout time.Duration) (bool, error)
}
