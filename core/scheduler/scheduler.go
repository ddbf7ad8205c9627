package scheduler

import (
	"fmt"
	"sort"

	"github.com/kilianp07/evsched/core/logger"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/prediction"
)

// Recommendation is one ranked charger for a user.
type Recommendation struct {
	ChargerID   string        `json:"charger_id"`
	Score       float64       `json:"combined_score"`
	UserScore   float64       `json:"user_score"`
	ProfitScore float64       `json:"profit_score"`
	GridScore   float64       `json:"grid_score"`
	DistanceKm  float64       `json:"distance_km"`
	Weights     model.Weights `json:"weights"`
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithEstimator scores users through est instead of the configured one.
func WithEstimator(est prediction.PreferenceEstimator) Option {
	return func(s *Scheduler) { s.estimator = est }
}

// WithScorer replaces the user scorer entirely.
func WithScorer(sc UserScorer) Option {
	return func(s *Scheduler) { s.scorer = sc }
}

// Scheduler ranks chargers for users and builds per-step assignments.
type Scheduler struct {
	cfg       Config
	log       logger.Logger
	estimator prediction.PreferenceEstimator
	scorer    UserScorer
}

// New creates a scheduler. Unset configuration fields take their defaults.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{cfg: cfg, log: logger.Nop{}}
	for _, o := range opts {
		o(s)
	}
	if s.estimator == nil && cfg.Estimator.Enabled() {
		est, err := prediction.New(cfg.Estimator)
		if err != nil {
			return nil, fmt.Errorf("scheduler: %w", err)
		}
		s.estimator = est
	}
	if s.scorer == nil {
		h := HeuristicScorer{AvgWaitingTime: cfg.AvgWaitingTime}
		s.scorer = h
		if s.estimator != nil {
			s.scorer = EstimatorScorer{Estimator: s.estimator, Fallback: h, AvgWaitingTime: cfg.AvgWaitingTime, Logger: s.log}
		}
	}
	return s, nil
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config { return s.cfg }

// ScoreChargers ranks the feasible chargers for u, best first. Ties keep the
// input order.
func (s *Scheduler) ScoreChargers(u model.User, feasible []model.Charger, gs model.GridStatus) []Recommendation {
	w := SelectWeights(u, gs, s.cfg.OptimizationWeights.Normalized())
	recs := make([]Recommendation, 0, len(feasible))
	for _, c := range feasible {
		cand := Candidate{User: u, Charger: c, Grid: gs, Distance: userChargerDistance(u, c)}
		us := s.scorer.ScoreUser(cand)
		ps := ProfitScore(u, c, gs)
		gsc := GridScore(c, gs)
		recs = append(recs, Recommendation{
			ChargerID:   c.ID,
			Score:       w.UserSatisfaction*us + w.OperatorProfit*ps + w.GridFriendliness*gsc,
			UserScore:   us,
			ProfitScore: ps,
			GridScore:   gsc,
			DistanceKm:  cand.Distance,
			Weights:     w,
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	return recs
}

// Recommend returns the ranked chargers for userID. Unknown users get an
// empty list. Users below the emergency SoC only see the nearest feasible
// chargers.
func (s *Scheduler) Recommend(userID string, state model.Snapshot) []Recommendation {
	u, ok := state.User(userID)
	if !ok {
		return nil
	}
	return s.recommend(u, state)
}

func (s *Scheduler) recommend(u model.User, state model.Snapshot) []Recommendation {
	feasible := s.FilterFeasible(u, state.Chargers, state.GridStatus)
	if u.SoC < s.cfg.EmergencySoC {
		sort.SliceStable(feasible, func(i, j int) bool {
			return userChargerDistance(u, feasible[i]) < userChargerDistance(u, feasible[j])
		})
		if len(feasible) > s.cfg.EmergencyCandidates {
			feasible = feasible[:s.cfg.EmergencyCandidates]
		}
	}
	return s.ScoreChargers(u, feasible, state.GridStatus)
}

// Decide assigns each user below the scheduling threshold to their best
// charger. Users without a feasible charger are left out.
func (s *Scheduler) Decide(state model.Snapshot) map[string]string {
	decisions := make(map[string]string)
	for _, u := range state.Users {
		if u.SoC >= s.cfg.ScheduleSoCThreshold {
			continue
		}
		recs := s.recommend(u, state)
		if len(recs) == 0 {
			continue
		}
		decisions[u.ID] = recs[0].ChargerID
		s.log.Debugw("assignment", map[string]any{
			"user_id":    u.ID,
			"charger_id": recs[0].ChargerID,
			"score":      recs[0].Score,
			"soc":        u.SoC,
		})
	}
	return decisions
}
