// Package scenarios loads YAML scheduling fixtures and checks the scheduler
// decisions they describe.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/scheduler"
)

type UserDef struct {
	ID               string  `yaml:"id"`
	Type             string  `yaml:"type"`
	SoC              float64 `yaml:"soc"`
	MaxWaitTime      float64 `yaml:"max_wait_time"`
	PreferredPower   float64 `yaml:"preferred_power"`
	MaxRange         float64 `yaml:"max_range"`
	Lat              float64 `yaml:"lat"`
	Lng              float64 `yaml:"lng"`
	TimeSensitivity  float64 `yaml:"time_sensitivity"`
	PriceSensitivity float64 `yaml:"price_sensitivity"`
	RangeAnxiety     float64 `yaml:"range_anxiety"`
}

func (u UserDef) ToModel() (model.User, error) {
	typ := model.UserPrivate
	if u.Type != "" {
		t, err := model.ParseUserType(u.Type)
		if err != nil {
			return model.User{}, err
		}
		typ = t
	}
	out := model.User{
		ID:             u.ID,
		Type:           typ,
		SoC:            u.SoC,
		MaxWaitTime:    u.MaxWaitTime,
		PreferredPower: u.PreferredPower,
		MaxRange:       u.MaxRange,
		Lat:            u.Lat,
		Lng:            u.Lng,
		Profile: model.Profile{
			TimeSensitivity:  u.TimeSensitivity,
			PriceSensitivity: u.PriceSensitivity,
			RangeAnxiety:     u.RangeAnxiety,
		},
	}
	if out.MaxWaitTime == 0 {
		out.MaxWaitTime = typ.DefaultMaxWait()
	}
	if out.PreferredPower == 0 {
		out.PreferredPower = typ.DefaultPreferredPower()
	}
	if out.MaxRange == 0 {
		out.MaxRange = 400
	}
	return out, nil
}

type ChargerDef struct {
	ID             string  `yaml:"id"`
	Type           string  `yaml:"type"`
	MaxPower       float64 `yaml:"max_power"`
	AvailablePower float64 `yaml:"available_power"`
	HealthScore    float64 `yaml:"health_score"`
	QueueLength    int     `yaml:"queue_length"`
	Lat            float64 `yaml:"lat"`
	Lng            float64 `yaml:"lng"`
	HasSolar       bool    `yaml:"has_solar"`
	HasStorage     bool    `yaml:"has_storage"`
}

func (c ChargerDef) ToModel() (model.Charger, error) {
	typ := model.ChargerSlow
	if c.Type != "" {
		t, err := model.ParseChargerType(c.Type)
		if err != nil {
			return model.Charger{}, err
		}
		typ = t
	}
	out := model.Charger{
		ID:          c.ID,
		Type:        typ,
		MaxPower:    c.MaxPower,
		QueueLength: c.QueueLength,
		Lat:         c.Lat,
		Lng:         c.Lng,
		HasSolar:    c.HasSolar,
		HasStorage:  c.HasStorage,
	}
	if out.MaxPower == 0 {
		out.MaxPower = 60
	}
	health := c.HealthScore
	if health == 0 {
		health = 95
	}
	out.SetHealth(health)
	if c.AvailablePower > 0 {
		out.AvailablePower = c.AvailablePower
	}
	return out, nil
}

type GridDef struct {
	Hour           int     `yaml:"hour"`
	CurrentLoad    float64 `yaml:"current_load"`
	RenewableRatio float64 `yaml:"renewable_ratio"`
	CurrentPrice   float64 `yaml:"current_price"`
	IsPeak         bool    `yaml:"is_peak"`
	IsValley       bool    `yaml:"is_valley"`
}

func (g GridDef) ToModel() model.GridStatus {
	price := g.CurrentPrice
	if price == 0 {
		price = 0.85
	}
	return model.GridStatus{
		Hour:           g.Hour,
		CurrentLoad:    g.CurrentLoad,
		PredictedLoad:  g.CurrentLoad,
		RenewableRatio: g.RenewableRatio,
		CurrentPrice:   price,
		NormalPrice:    0.85,
		PeakPrice:      1.2,
		ValleyPrice:    0.4,
		IsPeak:         g.IsPeak,
		IsValley:       g.IsValley,
	}
}

// RunDef runs the environment with the fixture populations.
type RunDef struct {
	Steps int   `yaml:"steps"`
	Seed  int64 `yaml:"seed"`
}

type Expected struct {
	// Decisions lists exact assignments for the named users.
	Decisions map[string]string `yaml:"decisions"`
	// Unassigned users must not appear in the decisions.
	Unassigned []string `yaml:"unassigned"`
	// Feasible lists, per user, the feasible chargers in filter order.
	Feasible map[string][]string `yaml:"feasible"`
	// Candidates lists, per user, the recommended chargers in any order.
	Candidates map[string][]string `yaml:"candidates"`
}

type Scenario struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Scheduler   scheduler.Config `yaml:"scheduler"`
	Grid        GridDef          `yaml:"grid"`
	Users       []UserDef        `yaml:"users"`
	Chargers    []ChargerDef     `yaml:"chargers"`
	Run         RunDef           `yaml:"run"`
	Expected    Expected         `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	return &sc, nil
}

// Snapshot builds the state the scheduler is evaluated against.
func (sc *Scenario) Snapshot() (model.Snapshot, error) {
	snap := model.Snapshot{
		Timestamp:  time.Date(2025, 1, 1, sc.Grid.Hour, 0, 0, 0, time.UTC),
		GridID:     sc.Name,
		GridStatus: sc.Grid.ToModel(),
	}
	for _, d := range sc.Users {
		u, err := d.ToModel()
		if err != nil {
			return snap, fmt.Errorf("user %s: %w", d.ID, err)
		}
		snap.Users = append(snap.Users, u)
	}
	for _, d := range sc.Chargers {
		c, err := d.ToModel()
		if err != nil {
			return snap, fmt.Errorf("charger %s: %w", d.ID, err)
		}
		snap.Chargers = append(snap.Chargers, c)
	}
	return snap, nil
}
