package model

import "time"

// Snapshot is a read-only copy of the environment state handed to schedulers.
type Snapshot struct {
	Timestamp  time.Time  `json:"timestamp"`
	GridID     string     `json:"grid_id"`
	Users      []User     `json:"users"`
	Chargers   []Charger  `json:"chargers"`
	GridStatus GridStatus `json:"grid_status"`
}

// User returns the user with the given id.
func (s Snapshot) User(id string) (User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

// ChargerIndex builds a lookup of chargers by id.
func (s Snapshot) ChargerIndex() map[string]Charger {
	idx := make(map[string]Charger, len(s.Chargers))
	for _, c := range s.Chargers {
		idx[c.ID] = c
	}
	return idx
}

// Rewards holds the reward components of one step.
type Rewards struct {
	UserSatisfaction float64 `json:"user_satisfaction"`
	OperatorProfit   float64 `json:"operator_profit"`
	GridFriendliness float64 `json:"grid_friendliness"`
	TotalReward      float64 `json:"total_reward"`
}

// Reward component names as exposed to collaborators.
const (
	MetricUserSatisfaction = "user_satisfaction"
	MetricOperatorProfit   = "operator_profit"
	MetricGridFriendliness = "grid_friendliness"
	MetricTotalReward      = "total_reward"
)

// MetricNames lists the reward components in reporting order.
var MetricNames = []string{MetricUserSatisfaction, MetricOperatorProfit, MetricGridFriendliness, MetricTotalReward}

// Map returns the components keyed by metric name.
func (r Rewards) Map() map[string]float64 {
	return map[string]float64{
		MetricUserSatisfaction: r.UserSatisfaction,
		MetricOperatorProfit:   r.OperatorProfit,
		MetricGridFriendliness: r.GridFriendliness,
		MetricTotalReward:      r.TotalReward,
	}
}
