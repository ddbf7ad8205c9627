package scheduler

import "github.com/kilianp07/evsched/core/model"

// SelectWeights picks the objective weights for a user in the current grid
// situation. The first matching rule wins; base is used when none applies.
func SelectWeights(u model.User, gs model.GridStatus, base model.Weights) model.Weights {
	switch {
	case u.SoC < 20:
		return model.Weights{UserSatisfaction: 0.5, OperatorProfit: 0.2, GridFriendliness: 0.3}
	case gs.IsPeak && gs.CurrentLoad > 80:
		return model.Weights{UserSatisfaction: 0.25, OperatorProfit: 0.15, GridFriendliness: 0.6}
	case gs.IsPeak:
		return model.Weights{UserSatisfaction: 0.3, OperatorProfit: 0.2, GridFriendliness: 0.5}
	case gs.IsValley:
		return model.Weights{UserSatisfaction: 0.3, OperatorProfit: 0.45, GridFriendliness: 0.25}
	case gs.RenewableRatio > 50:
		return model.Weights{UserSatisfaction: 0.35, OperatorProfit: 0.25, GridFriendliness: 0.4}
	default:
		return base
	}
}
