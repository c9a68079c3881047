package mqtt

import (
	"fmt"
	"sync"
	"time"

	"github.com/fieldops/dispatchd/core/model"
	coremqtt "github.com/fieldops/dispatchd/core/mqtt"
)

// Client mirrors the core mqtt.Client interface.
type Client = coremqtt.Client

// MockNotifier is a simple offer client used in tests.
type MockNotifier struct {
	Offers     map[string]model.Job
	Ranks      map[string]int
	FailIDs    map[string]bool
	Declines   map[string]bool
	AckResults map[string]bool
	mu         sync.Mutex
}

// NewMockNotifier creates a new MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{
		Offers:     make(map[string]model.Job),
		Ranks:      make(map[string]int),
		FailIDs:    make(map[string]bool),
		Declines:   make(map[string]bool),
		AckResults: make(map[string]bool),
	}
}

// SendOffer records the offer or returns an error if configured to fail.
func (m *MockNotifier) SendOffer(technicianID string, job model.Job, rank int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[technicianID] {
		return "", fmt.Errorf("publish failed")
	}
	m.Offers[technicianID] = job
	m.Ranks[technicianID] = rank
	offerID := fmt.Sprintf("offer-%s", technicianID)
	m.AckResults[offerID] = !m.Declines[technicianID]
	return offerID, nil
}

// WaitForAck simulates an immediate reply based on the stored result.
func (m *MockNotifier) WaitForAck(offerID string, timeout time.Duration) (bool, error) {
	m.mu.Lock()
	ok, exists := m.AckResults[offerID]
	m.mu.Unlock()
	if !exists {
		return false, fmt.Errorf("unknown offer")
	}
	return ok, nil
}
