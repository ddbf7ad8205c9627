package env

import (
	"fmt"
	"math/rand"

	"github.com/kilianp07/evsched/core/model"
)

// generateChargers draws the charger population. Draw order per charger is
// fixed so a given seed always yields the same pool.
func generateChargers(n int, cfg ChargerConfig, region Region, r *rand.Rand) []model.Charger {
	names := cfg.typeNames()
	var total float64
	for _, name := range names {
		total += cfg.Types[name].Probability
	}
	out := make([]model.Charger, 0, n)
	for i := 0; i < n; i++ {
		name := pickWeighted(names, cfg, total, r.Float64())
		tc := cfg.Types[name]
		c := model.Charger{
			ID:       fmt.Sprintf("CH%04d", i+1),
			Type:     model.ChargerType(name),
			MaxPower: tc.MaxPower,
		}
		c.SetHealth(uniform(r, cfg.HealthScoreRange.Min(), cfg.HealthScoreRange.Max()))
		c.QueueLength = r.Intn(4)
		if len(cfg.Locations) > 0 {
			c.Location = cfg.Locations[r.Intn(len(cfg.Locations))]
		}
		c.Lat, c.Lng = region.point(r)
		c.HasSolar = r.Float64() < deref(cfg.SolarProbability)
		c.HasStorage = r.Float64() < deref(cfg.StorageProbability)
		out = append(out, c)
	}
	return out
}

func pickWeighted(names []string, cfg ChargerConfig, total, x float64) string {
	if len(names) == 0 {
		return string(model.ChargerSlow)
	}
	if total <= 0 {
		return names[int(x*float64(len(names)))%len(names)]
	}
	acc := 0.0
	for _, name := range names {
		acc += cfg.Types[name].Probability / total
		if x < acc {
			return name
		}
	}
	return names[len(names)-1]
}

// generateUsers draws the user population.
func generateUsers(n int, cfg UserConfig, region Region, r *rand.Rand) []model.User {
	profiles := cfg.profileNames()
	out := make([]model.User, 0, n)
	for i := 0; i < n; i++ {
		ut := model.UserPrivate
		if len(cfg.Types) > 0 {
			ut = model.UserType(cfg.Types[r.Intn(len(cfg.Types))])
		}
		var prof model.Profile
		if len(profiles) > 0 {
			name := profiles[r.Intn(len(profiles))]
			p := cfg.Profiles[name]
			prof = model.Profile{
				Name:             name,
				TimeSensitivity:  p.TimeSensitivity,
				PriceSensitivity: p.PriceSensitivity,
				RangeAnxiety:     p.RangeAnxiety,
			}
		}
		u := model.User{
			ID:             fmt.Sprintf("U%04d", i+1),
			Type:           ut,
			Profile:        prof,
			SoC:            model.ClampSoC(uniform(r, cfg.SoCRange.Min(), cfg.SoCRange.Max())),
			MaxWaitTime:    ut.DefaultMaxWait() * uniform(r, 0.8, 1.2),
			PreferredPower: ut.DefaultPreferredPower(),
			MaxRange:       cfg.MaxRange,
		}
		u.Lat, u.Lng = region.point(r)
		out = append(out, u)
	}
	return out
}

func (g Region) point(r *rand.Rand) (float64, float64) {
	half := g.SpanDeg / 2
	return uniform(r, g.CenterLat-half, g.CenterLat+half), uniform(r, g.CenterLng-half, g.CenterLng+half)
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
