package scheduler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/prediction"
)

// Config holds the scheduler tunables. Zero values are replaced by defaults.
type Config struct {
	OptimizationWeights  model.Weights     `json:"optimization_weights" yaml:"optimization_weights"`
	AvgWaitingTime       float64           `json:"avg_waiting_time" yaml:"avg_waiting_time"` // minutes per queued vehicle
	HealthFloor          float64           `json:"health_floor" yaml:"health_floor"`
	PowerFloorRatio      float64           `json:"power_floor_ratio" yaml:"power_floor_ratio"`
	RangeReserve         float64           `json:"range_reserve" yaml:"range_reserve"`
	ScheduleSoCThreshold float64           `json:"schedule_soc_threshold" yaml:"schedule_soc_threshold"`
	EmergencySoC         float64           `json:"emergency_soc" yaml:"emergency_soc"`
	EmergencyCandidates  int               `json:"emergency_candidates" yaml:"emergency_candidates"`
	Estimator            prediction.Config `json:"estimator" yaml:"estimator"`
}

// DefaultConfig returns the configuration with every default applied.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.OptimizationWeights.IsZero() {
		c.OptimizationWeights = model.DefaultWeights
	}
	if c.AvgWaitingTime == 0 {
		c.AvgWaitingTime = 10
	}
	if c.HealthFloor == 0 {
		c.HealthFloor = 70
	}
	if c.PowerFloorRatio == 0 {
		c.PowerFloorRatio = 0.8
	}
	if c.RangeReserve == 0 {
		c.RangeReserve = 1.2
	}
	if c.ScheduleSoCThreshold == 0 {
		c.ScheduleSoCThreshold = 80
	}
	if c.EmergencySoC == 0 {
		c.EmergencySoC = 10
	}
	if c.EmergencyCandidates == 0 {
		c.EmergencyCandidates = 3
	}
}

// Validate rejects values no default can repair.
func (c Config) Validate() error {
	if c.AvgWaitingTime < 0 || c.HealthFloor < 0 || c.PowerFloorRatio < 0 || c.RangeReserve < 0 {
		return errors.New("scheduler thresholds must be non-negative")
	}
	if c.EmergencyCandidates < 0 {
		return errors.New("emergency_candidates must be non-negative")
	}
	if c.Estimator.Enabled() {
		if _, err := prediction.New(c.Estimator); err != nil {
			return err
		}
	}
	return nil
}

// DecodeConfig reads a standalone scheduler configuration from r.
func DecodeConfig(r io.Reader, format string) (Config, error) {
	var cfg Config
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported format: %s", format)
	}
	cfg.SetDefaults()
	return cfg, nil
}
