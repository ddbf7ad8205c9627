package env

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/evsched/core/grid"
	"github.com/kilianp07/evsched/core/model"
)

// Config holds the environment section of the configuration.
type Config struct {
	ChargerCount            int         `json:"charger_count"`
	UserCount               int         `json:"user_count"`
	GridID                  string      `json:"grid_id"`
	TimeStepMinutes         int         `json:"time_step_minutes"`
	Seed                    int64       `json:"seed"`
	StartTime               string      `json:"start_time"`
	ConsumptionRange        model.Range `json:"consumption_range"`
	FailureDegradationRange model.Range `json:"failure_degradation_range"`
	Region                  Region      `json:"region"`
}

// Region is the square area in which entities are placed.
type Region struct {
	CenterLat float64 `json:"center_lat"`
	CenterLng float64 `json:"center_lng"`
	SpanDeg   float64 `json:"span_deg"`
}

// ChargerTypeConfig describes one charger type.
type ChargerTypeConfig struct {
	Probability float64 `json:"probability"`
	MaxPower    float64 `json:"max_power"`
}

// ChargerConfig controls charger generation.
type ChargerConfig struct {
	Types              map[string]ChargerTypeConfig `json:"types"`
	HealthScoreRange   model.Range                  `json:"health_score_range"`
	SolarProbability   *float64                     `json:"solar_probability"`
	StorageProbability *float64                     `json:"storage_probability"`
	Locations          []string                     `json:"locations"`
}

// ProfileConfig carries the sensitivities of a behavioural profile.
type ProfileConfig struct {
	TimeSensitivity  float64 `json:"time_sensitivity"`
	PriceSensitivity float64 `json:"price_sensitivity"`
	RangeAnxiety     float64 `json:"range_anxiety"`
}

// UserConfig controls user generation.
type UserConfig struct {
	Types    []string                 `json:"types"`
	Profiles map[string]ProfileConfig `json:"profiles"`
	SoCRange model.Range              `json:"soc_range"`
	MaxRange float64                  `json:"max_range"`
}

// Settings groups every section the environment consumes.
type Settings struct {
	Environment Config        `json:"environment"`
	Grid        grid.Config   `json:"grid"`
	Chargers    ChargerConfig `json:"chargers"`
	Users       UserConfig    `json:"users"`
}

// DefaultSettings returns settings with every default applied.
func DefaultSettings() Settings {
	var s Settings
	s.SetDefaults()
	return s
}

// SetDefaults fills unset fields of every section.
func (s *Settings) SetDefaults() {
	s.Environment.SetDefaults()
	s.Grid.SetDefaults()
	s.Chargers.SetDefaults()
	s.Users.SetDefaults()
}

// Validate checks every section.
func (s Settings) Validate() error {
	if err := s.Environment.Validate(); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if err := s.Grid.Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if err := s.Chargers.Validate(); err != nil {
		return fmt.Errorf("chargers: %w", err)
	}
	if err := s.Users.Validate(); err != nil {
		return fmt.Errorf("users: %w", err)
	}
	return nil
}

// SetDefaults applies the documented defaults. Counts are only defaulted when
// negative or when both are unset, so an explicitly empty pool can still be
// configured alongside a non-empty one.
func (c *Config) SetDefaults() {
	if c.ChargerCount == 0 && c.UserCount == 0 {
		c.ChargerCount = 20
		c.UserCount = 50
	}
	if c.ChargerCount < 0 {
		c.ChargerCount = 20
	}
	if c.UserCount < 0 {
		c.UserCount = 50
	}
	if c.GridID == "" {
		c.GridID = "DEFAULT001"
	}
	if c.TimeStepMinutes <= 0 {
		c.TimeStepMinutes = 15
	}
	if c.StartTime == "" {
		c.StartTime = "2025-01-01T00:00:00Z"
	}
	if len(c.ConsumptionRange) == 0 {
		c.ConsumptionRange = model.Range{0.5, 2.5}
	}
	if len(c.FailureDegradationRange) == 0 {
		c.FailureDegradationRange = model.Range{1, 5}
	}
	if c.Region.SpanDeg <= 0 {
		c.Region.SpanDeg = 0.2
	}
	if c.Region.CenterLat == 0 && c.Region.CenterLng == 0 {
		c.Region.CenterLat = 39.9042
		c.Region.CenterLng = 116.4074
	}
}

// Validate checks the environment section.
func (c Config) Validate() error {
	if _, err := c.Start(); err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	if err := c.ConsumptionRange.Validate(); err != nil {
		return fmt.Errorf("consumption_range: %w", err)
	}
	if c.ConsumptionRange.Min() < 0 {
		return fmt.Errorf("consumption_range must be non-negative")
	}
	if err := c.FailureDegradationRange.Validate(); err != nil {
		return fmt.Errorf("failure_degradation_range: %w", err)
	}
	return nil
}

// Start parses the configured start time.
func (c Config) Start() (time.Time, error) {
	return time.Parse(time.RFC3339, c.StartTime)
}

// StepDuration returns the simulated time advanced by one step.
func (c Config) StepDuration() time.Duration {
	return time.Duration(c.TimeStepMinutes) * time.Minute
}

// SetDefaults fills unset charger generation parameters.
func (c *ChargerConfig) SetDefaults() {
	if len(c.Types) == 0 {
		c.Types = map[string]ChargerTypeConfig{
			string(model.ChargerFast): {Probability: 0.3, MaxPower: 60},
			string(model.ChargerSlow): {Probability: 0.7, MaxPower: 11},
		}
	}
	if len(c.HealthScoreRange) == 0 {
		c.HealthScoreRange = model.Range{70, 99}
	}
	if c.SolarProbability == nil {
		p := 0.3
		c.SolarProbability = &p
	}
	if c.StorageProbability == nil {
		p := 0.2
		c.StorageProbability = &p
	}
	if len(c.Locations) == 0 {
		c.Locations = []string{"residential", "commercial", "office", "highway"}
	}
}

// Validate checks charger generation parameters.
func (c ChargerConfig) Validate() error {
	for name, t := range c.Types {
		if _, err := model.ParseChargerType(name); err != nil {
			return err
		}
		if t.Probability < 0 || t.MaxPower <= 0 {
			return fmt.Errorf("type %s: probability must be >= 0 and max_power > 0", name)
		}
	}
	if err := c.HealthScoreRange.Validate(); err != nil {
		return fmt.Errorf("health_score_range: %w", err)
	}
	return nil
}

// typeNames returns the charger type names in a stable order.
func (c ChargerConfig) typeNames() []string {
	names := make([]string, 0, len(c.Types))
	for n := range c.Types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultProfiles are the built-in behavioural profiles.
var DefaultProfiles = map[string]ProfileConfig{
	"urgent":   {TimeSensitivity: 0.9, PriceSensitivity: 0.3, RangeAnxiety: 0.7},
	"economic": {TimeSensitivity: 0.3, PriceSensitivity: 0.9, RangeAnxiety: 0.4},
	"flexible": {TimeSensitivity: 0.2, PriceSensitivity: 0.5, RangeAnxiety: 0.2},
	"anxious":  {TimeSensitivity: 0.6, PriceSensitivity: 0.5, RangeAnxiety: 0.9},
}

// SetDefaults fills unset user generation parameters.
func (c *UserConfig) SetDefaults() {
	if len(c.Types) == 0 {
		c.Types = []string{
			string(model.UserTaxi), string(model.UserPrivate),
			string(model.UserRideshare), string(model.UserLogistics),
		}
	}
	if len(c.Profiles) == 0 {
		c.Profiles = make(map[string]ProfileConfig, len(DefaultProfiles))
		for k, v := range DefaultProfiles {
			c.Profiles[k] = v
		}
	}
	if len(c.SoCRange) == 0 {
		c.SoCRange = model.Range{15, 90}
	}
	if c.MaxRange <= 0 {
		c.MaxRange = 400
	}
}

// Validate checks user generation parameters.
func (c UserConfig) Validate() error {
	for _, t := range c.Types {
		if _, err := model.ParseUserType(t); err != nil {
			return err
		}
	}
	for name, p := range c.Profiles {
		for _, v := range []float64{p.TimeSensitivity, p.PriceSensitivity, p.RangeAnxiety} {
			if v < 0 || v > 1 {
				return fmt.Errorf("profile %s: sensitivities must be in [0,1]", name)
			}
		}
	}
	if err := c.SoCRange.Validate(); err != nil {
		return fmt.Errorf("soc_range: %w", err)
	}
	return nil
}

func (c UserConfig) profileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for n := range c.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
