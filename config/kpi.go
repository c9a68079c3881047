package config

import "fmt"

// KPIConfig selects the per-technician dispatch KPI backend. Disabled by
// default; the memory backend aggregates for the lifetime of the process,
// sqlite persists across restarts.
type KPIConfig struct {
	Enabled bool   `json:"enabled"`
	Backend string `json:"backend"`
	Path    string `json:"path"`
}

func (c *KPIConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Path == "" {
		c.Path = "dispatch_kpi.db"
	}
}

func (c *KPIConfig) Validate() error {
	switch c.Backend {
	case "memory", "sqlite":
		return nil
	default:
		return fmt.Errorf("unknown kpi backend: %s", c.Backend)
	}
}
