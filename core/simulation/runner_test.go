package simulation

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/evsched/core/env"
	"github.com/kilianp07/evsched/core/events"
	"github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/results"
	"github.com/kilianp07/evsched/core/scheduler"
	"github.com/kilianp07/evsched/internal/eventbus"
)

func newRunner(t *testing.T, seed int64, chargers, users int, opts ...Option) *Runner {
	t.Helper()
	s := env.DefaultSettings()
	s.Environment.Seed = seed
	s.Environment.ChargerCount = chargers
	s.Environment.UserCount = users
	e, err := env.New(s, model.DefaultWeights)
	require.NoError(t, err)
	sched, err := scheduler.New(scheduler.Config{})
	require.NoError(t, err)
	return NewRunner(e, sched, opts...)
}

type captureSink struct {
	steps       []metrics.StepRecord
	assignments int
	states      int
	summaries   []metrics.RunSummary
}

func (c *captureSink) RecordStep(r metrics.StepRecord) error {
	c.steps = append(c.steps, r)
	return nil
}

func (c *captureSink) RecordAssignments(as []metrics.Assignment) error {
	c.assignments += len(as)
	return nil
}

func (c *captureSink) RecordChargerStates(st []metrics.ChargerState) error {
	c.states += len(st)
	return nil
}

func (c *captureSink) RecordRunSummary(s metrics.RunSummary) error {
	c.summaries = append(c.summaries, s)
	return nil
}

type failingSink struct{}

func (failingSink) RecordStep(metrics.StepRecord) error { return errors.New("sink down") }

func TestRunSmallScenario(t *testing.T) {
	r := newRunner(t, 42, 5, 10)
	var calls [][2]int
	res, err := r.Run(context.Background(), 10, func(step, total int) {
		calls = append(calls, [2]int{step, total})
	})
	require.NoError(t, err)
	assert.Equal(t, 10, res.Steps)
	assert.Equal(t, 10, res.Series.Len())
	assert.Len(t, res.Series.UserSatisfaction, 10)
	assert.Len(t, res.Series.OperatorProfit, 10)
	assert.Len(t, res.Series.GridFriendliness, 10)
	for _, v := range res.Averages.Map() {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
	assert.NotEmpty(t, res.RunID)
	require.Len(t, calls, 10)
	assert.Equal(t, [2]int{1, 10}, calls[0])
	assert.Equal(t, [2]int{10, 10}, calls[9])
}

func TestRunRewardRanges(t *testing.T) {
	res, err := newRunner(t, 7, 20, 50).Run(context.Background(), 30, nil)
	require.NoError(t, err)
	for i := 0; i < res.Series.Len(); i++ {
		assert.True(t, res.Series.UserSatisfaction[i] >= 0 && res.Series.UserSatisfaction[i] <= 1)
		assert.True(t, res.Series.OperatorProfit[i] >= 0 && res.Series.OperatorProfit[i] <= 1)
		assert.True(t, res.Series.GridFriendliness[i] >= -1 && res.Series.GridFriendliness[i] <= 1)
	}
}

func TestRunNegativeSteps(t *testing.T) {
	_, err := newRunner(t, 1, 5, 10).Run(context.Background(), -1, nil)
	assert.True(t, errors.Is(err, ErrInvalidSteps))
}

func TestRunZeroSteps(t *testing.T) {
	res, err := newRunner(t, 1, 5, 10).Run(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Series.Len())
	assert.Equal(t, model.Rewards{}, res.Averages)
}

func TestRunDeterministic(t *testing.T) {
	a, err := newRunner(t, 99, 8, 20).Run(context.Background(), 20, nil)
	require.NoError(t, err)
	b, err := newRunner(t, 99, 8, 20).Run(context.Background(), 20, nil)
	require.NoError(t, err)
	assert.Equal(t, a.Series, b.Series)
	assert.Equal(t, a.Averages, b.Averages)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRunStopsWhenDone(t *testing.T) {
	res, err := newRunner(t, 3, 5, 10).Run(context.Background(), 200, nil)
	require.NoError(t, err)
	assert.Equal(t, 95, res.Steps)
}

func TestRunEmptyPools(t *testing.T) {
	s := env.DefaultSettings()
	e, err := env.New(s, model.DefaultWeights, env.WithUsers(nil), env.WithChargers(nil))
	require.NoError(t, err)
	sched, err := scheduler.New(scheduler.Config{})
	require.NoError(t, err)
	res, err := NewRunner(e, sched).Run(context.Background(), 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Steps)
	assert.Equal(t, 0.0, res.Averages.UserSatisfaction)
}

func TestRunForwardsTelemetry(t *testing.T) {
	sink := &captureSink{}
	store := results.NewMemoryStore()
	bus := eventbus.New()
	sub := bus.Subscribe()
	r := newRunner(t, 5, 5, 10, WithSink(sink), WithStore(store), WithBus(bus), WithRunID("fixed"))

	res, err := r.Run(context.Background(), 4, nil)
	require.NoError(t, err)
	assert.Equal(t, "fixed", res.RunID)

	require.Len(t, sink.steps, 4)
	for i, rec := range sink.steps {
		assert.Equal(t, i+1, rec.Step)
		assert.Equal(t, "fixed", rec.RunID)
		assert.Equal(t, res.Series.TotalReward[i], rec.Rewards.TotalReward)
	}
	assert.Equal(t, 4*5, sink.states)
	require.Len(t, sink.summaries, 1)
	assert.Equal(t, res.Averages, sink.summaries[0].Averages)

	stored, err := store.Query(context.Background(), results.Query{RunID: "fixed"})
	require.NoError(t, err)
	assert.Len(t, stored, 4)

	bus.Close()
	var starts, stepsSeen, progress, finished int
	for ev := range sub {
		switch e := ev.(type) {
		case events.RunEvent:
			if e.Finished {
				finished++
			} else {
				starts++
			}
		case events.StepEvent:
			stepsSeen++
		case events.ProgressEvent:
			progress++
			assert.Equal(t, 4, e.Total)
		}
	}
	assert.Equal(t, 1, starts)
	assert.Equal(t, 4, stepsSeen)
	assert.Equal(t, 4, progress)
	assert.Equal(t, 1, finished)
}

func TestRunSurvivesSinkErrors(t *testing.T) {
	res, err := newRunner(t, 5, 5, 10, WithSink(failingSink{})).Run(context.Background(), 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Steps)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &captureSink{}
	res, err := newRunner(t, 5, 5, 10, WithSink(sink)).Run(ctx, 3, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Steps)
	require.Len(t, sink.summaries, 1)
	assert.Equal(t, metrics.RunCanceled, sink.summaries[0].Status())
}
