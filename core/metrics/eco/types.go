package eco

import "time"

// Record aggregates the energy a charger delivered on one day.
type Record struct {
	ChargerID    string
	Date         time.Time
	DeliveredKWh float64
	RenewableKWh float64
	Sessions     int
}

// CO2Avoided returns the grams of CO2 avoided using the emission factor.
func (r Record) CO2Avoided(factor float64) float64 {
	return r.RenewableKWh * factor
}

// RenewableShare returns the fraction of delivered energy that was renewable.
func (r Record) RenewableShare() float64 {
	if r.DeliveredKWh == 0 {
		return 0
	}
	return r.RenewableKWh / r.DeliveredKWh
}
