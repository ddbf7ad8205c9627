package metrics

import "github.com/kilianp07/evsched/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// EmissionFactor is the grams of CO2 avoided per renewable kWh delivered.
	EmissionFactor float64 `json:"emission_factor"`
}

// DefaultEmissionFactor is used when none is configured.
const DefaultEmissionFactor = 450.0

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.EmissionFactor == 0 {
		c.EmissionFactor = DefaultEmissionFactor
	}
}
