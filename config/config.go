package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	coreenv "github.com/kilianp07/evsched/core/env"
	"github.com/kilianp07/evsched/core/grid"
	"github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/results"
	"github.com/kilianp07/evsched/core/scheduler"
	"github.com/kilianp07/evsched/infra/mqtt"
)

// EnvPrefix prefixes environment variable overrides, e.g.
// K_ENVIRONMENT__SEED=7 sets environment.seed.
const EnvPrefix = "K_"

type Config struct {
	Environment coreenv.Config        `json:"environment"`
	Grid        grid.Config           `json:"grid"`
	Chargers    coreenv.ChargerConfig `json:"chargers"`
	Users       coreenv.UserConfig    `json:"users"`
	Scheduler   scheduler.Config      `json:"scheduler"`
	Simulation  SimulationConfig      `json:"simulation"`
	Metrics     metrics.Config        `json:"metrics"`
	Results     results.Config        `json:"results"`
	MQTT        mqtt.Config           `json:"mqtt"`
	Server      ServerConfig          `json:"server"`
	Logging     LoggingConfig         `json:"logging"`
	Monitoring  MonitoringConfig      `json:"monitoring"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// Load reads the configuration file at path and applies environment
// overrides. An empty path loads defaults and overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides. The callback already yields dotted
	// keys, so "." is the delimiter koanf splits on.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills unset fields of every section.
func (c *Config) SetDefaults() {
	s := c.Settings()
	s.SetDefaults()
	c.Environment, c.Grid, c.Chargers, c.Users = s.Environment, s.Grid, s.Chargers, s.Users
	c.Scheduler.SetDefaults()
	c.Simulation.SetDefaults()
	c.Metrics.SetDefaults()
	c.Results.SetDefaults()
	c.MQTT.SetDefaults()
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate rejects values no default can repair.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Settings().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	if err := c.Simulation.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("simulation: %w", err))
	}
	if err := c.Results.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("results: %w", err))
	}
	if c.MQTT.Enabled() {
		if err := c.MQTT.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("mqtt: %w", err))
		}
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if err := c.Monitoring.Sentry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("monitoring: %w", err))
	}
	return errors.Join(errs...)
}

// Settings returns the sections consumed by the environment.
func (c *Config) Settings() coreenv.Settings {
	return coreenv.Settings{
		Environment: c.Environment,
		Grid:        c.Grid,
		Chargers:    c.Chargers,
		Users:       c.Users,
	}
}
