package scheduler

import (
	"math"

	"github.com/kilianp07/evsched/core/logger"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/prediction"
)

// Candidate is a user/charger pairing under evaluation.
type Candidate struct {
	User     model.User
	Charger  model.Charger
	Grid     model.GridStatus
	Distance float64 // km
}

// UserScorer rates how well a charger suits a user, in [0,1].
type UserScorer interface {
	ScoreUser(c Candidate) float64
}

// HeuristicScorer blends waiting time, distance and power match with
// category-dependent weights.
type HeuristicScorer struct {
	AvgWaitingTime float64
}

// ScoreUser implements UserScorer.
func (h HeuristicScorer) ScoreUser(c Candidate) float64 {
	wait := float64(c.Charger.QueueLength) * h.AvgWaitingTime
	timeScore := 0.0
	if c.User.MaxWaitTime > 0 {
		timeScore = math.Max(0, 1-wait/c.User.MaxWaitTime)
	} else if wait == 0 {
		timeScore = 1
	}
	distScore := 1 / (1 + c.Distance/5)
	powerScore := powerMatch(c.Charger.AvailablePower, c.User.PreferredPower)

	var wt, wd, wp float64
	switch c.User.Type {
	case model.UserTaxi:
		wt, wd, wp = 0.5, 0.2, 0.3
	case model.UserLogistics:
		wt, wd, wp = 0.35, 0.35, 0.3
	default:
		wt, wd, wp = 0.2, 0.5, 0.3
	}
	return clip(wt*timeScore+wd*distScore+wp*powerScore, 0, 1)
}

// EstimatorScorer delegates to a PreferenceEstimator and falls back to the
// heuristic when the estimator errors or returns a non-finite value.
type EstimatorScorer struct {
	Estimator      prediction.PreferenceEstimator
	Fallback       HeuristicScorer
	AvgWaitingTime float64
	Logger         logger.Logger
}

// ScoreUser implements UserScorer.
func (e EstimatorScorer) ScoreUser(c Candidate) float64 {
	v, err := e.Estimator.Predict(Features(c, e.AvgWaitingTime))
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		if e.Logger != nil {
			e.Logger.Debugf("estimator fallback for %s/%s: value=%v err=%v", c.User.ID, c.Charger.ID, v, err)
		}
		return e.Fallback.ScoreUser(c)
	}
	return clip(v, 0, 1)
}

// FeatureCount is the length of the vector produced by Features.
const FeatureCount = 19

// Features builds the normalised estimator input for a candidate. Every
// entry lies in [0,1].
func Features(c Candidate, avgWaitingTime float64) []float64 {
	u, ch, gs := c.User, c.Charger, c.Grid
	wait := float64(ch.QueueLength) * avgWaitingTime
	priceRatio := 0.0
	if gs.PeakPrice > 0 {
		priceRatio = gs.CurrentPrice / gs.PeakPrice
	}
	waitRatio := 1.0
	if u.MaxWaitTime > 0 {
		waitRatio = wait / u.MaxWaitTime
	} else if wait == 0 {
		waitRatio = 0
	}
	f := []float64{
		u.SoC / 100,
		u.MaxWaitTime / 60,
		u.PreferredPower / 100,
		u.Profile.TimeSensitivity,
		u.Profile.PriceSensitivity,
		u.Profile.RangeAnxiety,
		ch.HealthScore / 100,
		ch.AvailablePower / 100,
		float64(ch.QueueLength) / 10,
		wait / 60,
		flag(ch.IsFast()),
		flag(ch.HasSolar),
		gs.CurrentLoad / 100,
		gs.PredictedLoad / 100,
		gs.RenewableRatio / 100,
		priceRatio,
		flag(gs.IsPeak),
		c.Distance / 50,
		waitRatio,
	}
	for i := range f {
		f[i] = clip(f[i], 0, 1)
	}
	return f
}

// ProfitScore rates the operator margin of serving the user at the charger.
func ProfitScore(u model.User, c model.Charger, gs model.GridStatus) float64 {
	charge := model.ChargeAmountKWh(u.SoC)
	if charge <= 0 {
		return 0
	}
	markup := 0.15
	switch {
	case gs.IsPeak:
		markup = 0.05
	case gs.IsValley:
		markup = 0.25
	}
	profit := charge*gs.CurrentPrice*markup - charge*0.05
	profit *= c.HealthScore / 100
	return clip(profit/(0.3*charge), 0, 1)
}

// GridScore rates how gently charging at c treats the grid right now.
func GridScore(c model.Charger, gs model.GridStatus) float64 {
	load := gs.CurrentLoad / 100
	score := 1 - load*load
	if gs.RenewableRatio > 40 {
		score += (gs.RenewableRatio - 40) / 100
	}
	if c.HasSolar && model.IsSolarHour(gs.Hour) {
		score += 0.2
	}
	return clip(score, 0, 1)
}

func powerMatch(avail, pref float64) float64 {
	if pref <= 0 {
		return 1
	}
	return clip(math.Min(avail, pref)/pref, 0, 1)
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
