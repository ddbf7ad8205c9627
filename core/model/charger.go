package model

import "fmt"

// ChargerType distinguishes fast DC chargers from slow AC ones.
type ChargerType string

const (
	ChargerFast ChargerType = "fast"
	ChargerSlow ChargerType = "slow"
)

// ParseChargerType converts a configuration string into a ChargerType.
func ParseChargerType(s string) (ChargerType, error) {
	switch t := ChargerType(s); t {
	case ChargerFast, ChargerSlow:
		return t, nil
	default:
		return "", fmt.Errorf("unknown charger type %q", s)
	}
}

// Health bounds. A charger never recovers above MaxHealth nor degrades below
// MinHealth.
const (
	MinHealth = 60.0
	MaxHealth = 99.0
)

// Charger is a charging station with static capabilities and mutable
// operational state.
type Charger struct {
	ID             string      `json:"charger_id"`
	Type           ChargerType `json:"type"`
	MaxPower       float64     `json:"max_power"`
	HealthScore    float64     `json:"health_score"`
	AvailablePower float64     `json:"available_power"`
	QueueLength    int         `json:"queue_length"`
	Location       string      `json:"location"`
	Lat            float64     `json:"lat"`
	Lng            float64     `json:"lng"`
	HasSolar       bool        `json:"has_solar"`
	HasStorage     bool        `json:"has_storage"`
}

// FailureRate is the per-service probability of a degradation event.
func (c Charger) FailureRate() float64 {
	return (100 - c.HealthScore) / 500
}

// SetHealth bounds the score to [MinHealth, MaxHealth] and recomputes the
// available power.
func (c *Charger) SetHealth(h float64) {
	if h < MinHealth {
		h = MinHealth
	}
	if h > MaxHealth {
		h = MaxHealth
	}
	c.HealthScore = h
	c.AvailablePower = c.MaxPower * h / 100
}

// Degrade lowers the health score by amount. Health never rises.
func (c *Charger) Degrade(amount float64) {
	if amount <= 0 {
		return
	}
	c.SetHealth(c.HealthScore - amount)
}

// IsFast reports whether the charger is a fast charger.
func (c Charger) IsFast() bool { return c.Type == ChargerFast }
