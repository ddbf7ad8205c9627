package model

import "fmt"

// UserType is the usage category of a vehicle owner.
type UserType string

const (
	UserTaxi      UserType = "taxi"
	UserPrivate   UserType = "private"
	UserRideshare UserType = "rideshare"
	UserLogistics UserType = "logistics"
)

// ParseUserType converts a configuration string into a UserType.
func ParseUserType(s string) (UserType, error) {
	switch t := UserType(s); t {
	case UserTaxi, UserPrivate, UserRideshare, UserLogistics:
		return t, nil
	default:
		return "", fmt.Errorf("unknown user type %q", s)
	}
}

// DefaultMaxWait returns the queue tolerance in minutes for the category.
func (t UserType) DefaultMaxWait() float64 {
	switch t {
	case UserTaxi:
		return 15
	case UserRideshare:
		return 20
	case UserLogistics:
		return 30
	default:
		return 45
	}
}

// DefaultPreferredPower returns the charging power in kW the category prefers.
func (t UserType) DefaultPreferredPower() float64 {
	switch t {
	case UserTaxi:
		return 50
	case UserRideshare:
		return 40
	case UserLogistics:
		return 60
	default:
		return 7
	}
}

// Profile is a named behavioural profile. All sensitivities are in [0,1].
type Profile struct {
	Name             string  `json:"name"`
	TimeSensitivity  float64 `json:"time_sensitivity"`
	PriceSensitivity float64 `json:"price_sensitivity"`
	RangeAnxiety     float64 `json:"range_anxiety"`
}

// User represents an EV driver looking for a charger.
type User struct {
	ID             string   `json:"user_id"`
	Type           UserType `json:"user_type"`
	Profile        Profile  `json:"profile"`
	SoC            float64  `json:"soc"`             // state of charge in percent [0,100]
	MaxWaitTime    float64  `json:"max_wait_time"`   // minutes
	PreferredPower float64  `json:"preferred_power"` // kW
	MaxRange       float64  `json:"max_range"`       // km on a full battery
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
}

// RemainingRange returns the distance in km reachable with the current SoC.
func (u User) RemainingRange() float64 {
	return u.SoC / 100 * u.MaxRange
}

// Discharge lowers the SoC by the given percentage points, never below zero.
func (u *User) Discharge(points float64) {
	u.SoC = ClampSoC(u.SoC - points)
}

// Charge raises the SoC by at most MaxChargePerStep points and returns the
// amount actually delivered.
func (u *User) Charge() float64 {
	delta := ChargeDelta(u.SoC)
	u.SoC = ClampSoC(u.SoC + delta)
	return delta
}

// MaxChargePerStep is the SoC a single step of charging can deliver.
const MaxChargePerStep = 30.0

// BatteryKWh is the nominal battery capacity used for energy accounting.
const BatteryKWh = 60.0

// ChargeDelta returns min(100-soc, MaxChargePerStep).
func ChargeDelta(soc float64) float64 {
	missing := 100 - soc
	if missing < 0 {
		return 0
	}
	if missing > MaxChargePerStep {
		return MaxChargePerStep
	}
	return missing
}

// ChargeAmountKWh converts the SoC delivered in one step into kWh.
func ChargeAmountKWh(soc float64) float64 {
	return ChargeDelta(soc) / 100 * BatteryKWh
}

// ClampSoC bounds v to [0,100].
func ClampSoC(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
