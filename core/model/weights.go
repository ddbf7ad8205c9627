package model

// Weights balances the three optimisation objectives.
type Weights struct {
	UserSatisfaction float64 `json:"user_satisfaction" yaml:"user_satisfaction"`
	OperatorProfit   float64 `json:"operator_profit" yaml:"operator_profit"`
	GridFriendliness float64 `json:"grid_friendliness" yaml:"grid_friendliness"`
}

// DefaultWeights is used when no usable weights are configured.
var DefaultWeights = Weights{UserSatisfaction: 0.4, OperatorProfit: 0.3, GridFriendliness: 0.3}

// Normalized rescales the weights to sum to one. Negative entries are
// treated as zero; a non-positive sum yields DefaultWeights.
func (w Weights) Normalized() Weights {
	u, p, g := nonNeg(w.UserSatisfaction), nonNeg(w.OperatorProfit), nonNeg(w.GridFriendliness)
	sum := u + p + g
	if sum <= 0 {
		return DefaultWeights
	}
	return Weights{UserSatisfaction: u / sum, OperatorProfit: p / sum, GridFriendliness: g / sum}
}

// IsZero reports whether no weight is set.
func (w Weights) IsZero() bool {
	return w.UserSatisfaction == 0 && w.OperatorProfit == 0 && w.GridFriendliness == 0
}

func nonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
