package env

import "github.com/kilianp07/evsched/core/model"

// Pair is one applied assignment as seen before the step mutated it.
type Pair struct {
	User    model.User
	Charger model.Charger
}

// Reward-accounting constants. The scheduler ranks candidates with its own,
// separately tuned policy; these values only drive the reported rewards.
const (
	waitMinutesPerQueueSlot = 10.0
	feeMarkup               = 1.1
	depreciationPerKWh      = 0.05
	loadContributionScale   = 15.0
	valleyLoadBonus         = 0.5
	offPeakLoadPenalty      = 0.1
	solarBonus              = 0.2
	renewableThreshold      = 40.0
	profitNormalizer        = 10.0
)

// RewardModel turns applied assignments into the four reward components.
type RewardModel struct {
	Weights model.Weights
}

// Compute evaluates pairs against the grid conditions in which they were
// decided. It has no side effects. An empty pair list yields zero rewards.
func (m RewardModel) Compute(pairs []Pair, gs model.GridStatus) model.Rewards {
	if len(pairs) == 0 {
		return model.Rewards{}
	}
	var sat, profit, gridSum float64
	for _, p := range pairs {
		sat += satisfaction(p, gs)
		profit += operatorProfit(p, gs)
		gridSum += gridFriendliness(p, gs)
	}
	n := float64(len(pairs))
	r := model.Rewards{
		UserSatisfaction: clamp(sat/n, 0, 1),
		OperatorProfit:   clamp(profit/(profitNormalizer*n), 0, 1),
		GridFriendliness: clamp(gridSum/n, -1, 1),
	}
	w := m.Weights.Normalized()
	r.TotalReward = w.UserSatisfaction*r.UserSatisfaction +
		w.OperatorProfit*r.OperatorProfit +
		w.GridFriendliness*(1+r.GridFriendliness)/2
	return r
}

func satisfaction(p Pair, gs model.GridStatus) float64 {
	u, c := p.User, p.Charger
	wait := 0.0
	if u.MaxWaitTime > 0 {
		wait = 1 - float64(c.QueueLength)*waitMinutesPerQueueSlot/u.MaxWaitTime
	}
	power := 1.0
	if u.PreferredPower > 0 {
		power = minf(c.AvailablePower, u.PreferredPower) / u.PreferredPower
	}
	price := 1.0
	if gs.PeakPrice > 0 {
		price = 1 - u.Profile.PriceSensitivity*(gs.CurrentPrice/gs.PeakPrice)
	}
	return 0.4*clamp(wait, 0, 1) + 0.3*clamp(power, 0, 1) + 0.3*clamp(price, 0, 1)
}

func operatorProfit(p Pair, gs model.GridStatus) float64 {
	charge := model.ChargeAmountKWh(p.User.SoC)
	fee := charge * gs.CurrentPrice * feeMarkup
	cost := charge * gs.CurrentPrice
	return fee - cost - charge*depreciationPerKWh
}

func gridFriendliness(p Pair, gs model.GridStatus) float64 {
	load := model.ChargeAmountKWh(p.User.SoC) / loadContributionScale
	var v float64
	switch {
	case gs.IsPeak:
		v = -load * gs.CurrentLoad / 100
	case gs.IsValley:
		v = load * valleyLoadBonus
	default:
		v = -load * offPeakLoadPenalty
	}
	if p.Charger.HasSolar && model.IsSolarHour(gs.Hour) {
		v += solarBonus
	}
	if gs.RenewableRatio > renewableThreshold {
		v += (gs.RenewableRatio - renewableThreshold) / 100
	}
	return clamp(v, -1, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
