package main

import (
	"fmt"
	"time"
)

// Config holds parameters for the simulator.
type Config struct {
	Broker string
	Count  int

	AcceptRate float64
	DropRate   float64
	AckLatency time.Duration

	Interval time.Duration
	Seed     int64

	CenterLat float64
	CenterLng float64
	RadiusKM  float64

	BroadcastTopic    string
	ResponseTopic     string
	MagicWord         string
	AckTopic          string
	StatePrefix       string
	PollTopic         string
	PollResponseTopic string

	ShiftFile string
	Verbose   bool
}

// Validate rejects parameter combinations that would make the fleet
// meaningless.
func (c *Config) Validate() error {
	if c.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", c.Count)
	}
	if c.AcceptRate < 0 || c.AcceptRate > 1 {
		return fmt.Errorf("accept-rate must be in [0,1], got %v", c.AcceptRate)
	}
	if c.DropRate < 0 || c.DropRate > 1 {
		return fmt.Errorf("drop-rate must be in [0,1], got %v", c.DropRate)
	}
	if c.RadiusKM < 0 {
		return fmt.Errorf("radius must be non-negative, got %v", c.RadiusKM)
	}
	return nil
}
