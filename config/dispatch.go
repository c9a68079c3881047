package config

import (
	"fmt"

	"github.com/fieldops/dispatchd/core/factory"
)

// DispatchConfig defines dispatch-related settings.
type DispatchConfig struct {
	// AckTimeoutSeconds is how long to wait for a technician to answer an
	// offer before walking down to the next candidate.
	AckTimeoutSeconds int `json:"ack_timeout_seconds"`
	// DeterministicTieBreak replaces the randomized last-resort tie-break
	// with technician-id ordering.
	DeterministicTieBreak bool `json:"deterministic_tie_break"`
	// DistanceUnit is the unit reported in ineligibility reasons: "km" for
	// straight-line providers, "min" for routed drive time.
	DistanceUnit string `json:"distance_unit"`
	// Distance selects the distance provider ("planar", "haversine",
	// "drivetime").
	Distance factory.ModuleConfig `json:"distance"`
	// Performance selects the performance scorer ("bucket", "blend").
	Performance factory.ModuleConfig `json:"performance"`
	// Discovery configures MQTT presence discovery of the technician pool.
	Discovery DiscoveryConfig `json:"discovery"`
}

// DiscoveryConfig defines the MQTT topics used for pool discovery.
type DiscoveryConfig struct {
	BroadcastTopic string `json:"broadcast_topic"`
	ResponseTopic  string `json:"response_topic"`
	MagicWord      string `json:"magic_word"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *DispatchConfig) SetDefaults() {
	if c.AckTimeoutSeconds <= 0 {
		c.AckTimeoutSeconds = 5
	}
	if c.DistanceUnit == "" {
		c.DistanceUnit = "km"
	}
	if c.Distance.Type == "" {
		c.Distance.Type = "planar"
	}
	if c.Performance.Type == "" {
		c.Performance.Type = "bucket"
	}
	c.Discovery.SetDefaults()
}

// SetDefaults applies the default discovery topics.
func (c *DiscoveryConfig) SetDefaults() {
	if c.BroadcastTopic == "" {
		c.BroadcastTopic = "dispatch/discovery"
	}
	if c.ResponseTopic == "" {
		c.ResponseTopic = "dispatch/discovery/response/+"
	}
	if c.MagicWord == "" {
		c.MagicWord = "hello"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 1
	}
}

// Validate checks mandatory fields.
func (c DispatchConfig) Validate() error {
	if c.DistanceUnit != "km" && c.DistanceUnit != "min" {
		return fmt.Errorf("unknown distance unit %s", c.DistanceUnit)
	}
	return nil
}
