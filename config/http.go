package config

// HTTPConfig defines settings for the dispatch HTTP API.
type HTTPConfig struct {
	// Enabled starts the API server when true.
	Enabled bool `json:"enabled"`
	// Addr is the listen address of the API server.
	Addr string `json:"addr"`
	// Token protects the API with a static bearer token when non-empty.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
