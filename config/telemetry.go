package config

// TelemetryConfig holds configuration for the technician telemetry manager.
type TelemetryConfig struct {
	Enabled bool `json:"enabled"`
	// Mode is "push" (mobile apps beacon to the state topic), "pull"
	// (the service polls the request topic) or "hybrid" for both.
	Mode            string `json:"mode"`
	IntervalSeconds int    `json:"interval_seconds"`
	RequestTopic    string `json:"request_topic"`
	ResponsePrefix  string `json:"response_topic_prefix"`
	StatePrefix     string `json:"state_topic_prefix"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
}

// SetDefaults applies the default telemetry topics, matching the
// simulator's flag defaults.
func (c *TelemetryConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "push"
	}
	if c.StatePrefix == "" {
		c.StatePrefix = "telemetry/state"
	}
	if c.RequestTopic == "" {
		c.RequestTopic = "telemetry/poll"
	}
	if c.ResponsePrefix == "" {
		c.ResponsePrefix = "telemetry/response"
	}
}

func (c TelemetryConfig) Interval() int {
	if c.IntervalSeconds <= 0 {
		return 10
	}
	return c.IntervalSeconds
}

func (c TelemetryConfig) Timeout() int {
	if c.TimeoutSeconds <= 0 {
		return 3
	}
	return c.TimeoutSeconds
}
