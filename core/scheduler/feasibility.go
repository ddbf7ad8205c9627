package scheduler

import (
	"math"
	"sort"

	"github.com/kilianp07/evsched/core/model"
)

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance in km between two coordinates.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	p1, p2 := lat1*math.Pi/180, lat2*math.Pi/180
	dp := p2 - p1
	dl := (lng2 - lng1) * math.Pi / 180
	a := math.Sin(dp/2)*math.Sin(dp/2) + math.Cos(p1)*math.Cos(p2)*math.Sin(dl/2)*math.Sin(dl/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}

func userChargerDistance(u model.User, c model.Charger) float64 {
	return Distance(u.Lat, u.Lng, c.Lat, c.Lng)
}

// FilterFeasible returns the chargers the user can use given the grid
// situation. Order is preserved except during solar hours, where chargers
// with solar panels are moved to the front.
func (s *Scheduler) FilterFeasible(u model.User, chargers []model.Charger, gs model.GridStatus) []model.Charger {
	out := make([]model.Charger, 0, len(chargers))
	for _, c := range chargers {
		if s.feasible(u, c, gs) {
			out = append(out, c)
		}
	}
	if model.IsSolarHour(gs.Hour) {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].HasSolar && !out[j].HasSolar
		})
	}
	return out
}

func (s *Scheduler) feasible(u model.User, c model.Charger, gs model.GridStatus) bool {
	// under grid stress only storage-backed chargers stay open, except for low batteries
	if gs.IsPeak && gs.CurrentLoad > 80 && !c.HasStorage && u.SoC > 20 {
		return false
	}
	if !gs.IsPeak && gs.CurrentLoad > 90 && !c.HasStorage && u.SoC > 15 {
		return false
	}

	reserve := s.cfg.RangeReserve
	if u.SoC < s.cfg.EmergencySoC {
		reserve = 1
	}
	if u.RemainingRange() < reserve*userChargerDistance(u, c) {
		return false
	}

	if c.HealthScore < s.cfg.HealthFloor {
		return false
	}
	if c.AvailablePower < s.cfg.PowerFloorRatio*u.PreferredPower {
		return false
	}
	if u.Profile.TimeSensitivity > 0.7 && float64(c.QueueLength)*s.cfg.AvgWaitingTime > u.MaxWaitTime {
		return false
	}
	return true
}
