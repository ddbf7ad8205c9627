package config

import "fmt"

// SimulationConfig controls the runner.
type SimulationConfig struct {
	Steps int `json:"steps"`
	// EligibleSoC is the SoC under which a user counts as needing a charge
	// in step records.
	EligibleSoC float64 `json:"eligible_soc"`
}

// SetDefaults applies fallback values for optional fields.
func (c *SimulationConfig) SetDefaults() {
	if c.Steps == 0 {
		c.Steps = 96
	}
	if c.EligibleSoC == 0 {
		c.EligibleSoC = 80
	}
}

// Validate checks mandatory fields.
func (c SimulationConfig) Validate() error {
	if c.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", c.Steps)
	}
	return nil
}

// ServerConfig configures the HTTP endpoints started by serve.
type ServerConfig struct {
	Addr string `json:"addr"`
	// Token protects the results API with a bearer token when set.
	Token       string `json:"token"`
	MetricsAddr string `json:"metrics_addr"`
}

// SetDefaults applies fallback values for optional fields.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":2112"
	}
}
