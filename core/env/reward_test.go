package env

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/evsched/core/model"
)

func normalHour() model.GridStatus {
	return model.GridStatus{
		Hour: 13, CurrentLoad: 70, RenewableRatio: 30,
		CurrentPrice: 0.85, NormalPrice: 0.85, PeakPrice: 1.2, ValleyPrice: 0.4,
	}
}

func TestRewardEmpty(t *testing.T) {
	r := RewardModel{Weights: model.DefaultWeights}.Compute(nil, normalHour())
	assert.Equal(t, model.Rewards{}, r)
}

func TestRewardSatisfaction(t *testing.T) {
	u := model.User{SoC: 50, MaxWaitTime: 40, PreferredPower: 50, Profile: model.Profile{PriceSensitivity: 0.5}}
	c := model.Charger{QueueLength: 2, AvailablePower: 25}
	gs := normalHour()
	got := satisfaction(Pair{User: u, Charger: c}, gs)
	// wait 1-20/40=0.5, power 0.5, price 1-0.5*0.85/1.2
	want := 0.4*0.5 + 0.3*0.5 + 0.3*(1-0.5*0.85/1.2)
	assert.InDelta(t, want, got, 1e-9)
}

func TestRewardProfitFormula(t *testing.T) {
	u := model.User{SoC: 20}
	gs := normalHour()
	got := operatorProfit(Pair{User: u}, gs)
	charge := 18.0
	assert.InDelta(t, charge*0.85*1.1-charge*0.85-charge*0.05, got, 1e-9)
}

func TestRewardGridFriendlinessByHour(t *testing.T) {
	p := Pair{User: model.User{SoC: 10}, Charger: model.Charger{}}
	valley := normalHour()
	valley.IsValley, valley.Hour = true, 3
	peak := normalHour()
	peak.IsPeak, peak.Hour, peak.CurrentLoad = true, 19, 90
	assert.Greater(t, gridFriendliness(p, valley), 0.0)
	assert.Less(t, gridFriendliness(p, peak), gridFriendliness(p, normalHour()))
	assert.Less(t, gridFriendliness(p, normalHour()), 0.0)

	solar := p
	solar.Charger.HasSolar = true
	assert.InDelta(t, gridFriendliness(p, normalHour())+0.2, gridFriendliness(solar, normalHour()), 1e-9)

	green := normalHour()
	green.RenewableRatio = 60
	assert.InDelta(t, gridFriendliness(p, normalHour())+0.2, gridFriendliness(p, green), 1e-9)
}

func TestRewardTotalUsesNormalizedWeights(t *testing.T) {
	pairs := []Pair{{
		User:    model.User{SoC: 50, MaxWaitTime: 30, PreferredPower: 7},
		Charger: model.Charger{AvailablePower: 10},
	}}
	gs := normalHour()
	a := RewardModel{Weights: model.Weights{UserSatisfaction: 4, OperatorProfit: 3, GridFriendliness: 3}}.Compute(pairs, gs)
	b := RewardModel{Weights: model.DefaultWeights}.Compute(pairs, gs)
	assert.InDelta(t, b.TotalReward, a.TotalReward, 1e-12)
	want := 0.4*b.UserSatisfaction + 0.3*b.OperatorProfit + 0.3*(1+b.GridFriendliness)/2
	assert.InDelta(t, want, b.TotalReward, 1e-12)
}
