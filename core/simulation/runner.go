package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/evsched/core/env"
	"github.com/kilianp07/evsched/core/events"
	"github.com/kilianp07/evsched/core/logger"
	"github.com/kilianp07/evsched/core/metrics"
	"github.com/kilianp07/evsched/core/model"
	"github.com/kilianp07/evsched/core/results"
	"github.com/kilianp07/evsched/internal/eventbus"
)

// ErrInvalidSteps is returned when a negative step count is requested.
var ErrInvalidSteps = errors.New("number of steps must be non-negative")

// Environment is the part of env.Environment the runner drives.
type Environment interface {
	State() model.Snapshot
	Step(actions map[string]string) env.StepResult
}

// Decider turns a snapshot into user to charger assignments.
type Decider interface {
	Decide(state model.Snapshot) map[string]string
}

// ProgressFunc is called after every step with the number of completed
// steps and the requested total.
type ProgressFunc func(step, total int)

// Series holds one value per executed step for every reward component.
type Series struct {
	UserSatisfaction []float64 `json:"user_satisfaction"`
	OperatorProfit   []float64 `json:"operator_profit"`
	GridFriendliness []float64 `json:"grid_friendliness"`
	TotalReward      []float64 `json:"total_reward"`
}

func (s *Series) add(r model.Rewards) {
	s.UserSatisfaction = append(s.UserSatisfaction, r.UserSatisfaction)
	s.OperatorProfit = append(s.OperatorProfit, r.OperatorProfit)
	s.GridFriendliness = append(s.GridFriendliness, r.GridFriendliness)
	s.TotalReward = append(s.TotalReward, r.TotalReward)
}

// Len returns the number of recorded steps.
func (s Series) Len() int { return len(s.TotalReward) }

// Result is the outcome of a run.
type Result struct {
	RunID    string        `json:"run_id"`
	Steps    int           `json:"steps"`
	Series   Series        `json:"series"`
	Averages model.Rewards `json:"averages"`
	Duration time.Duration `json:"duration"`
}

// Option customises a Runner.
type Option func(*Runner)

// WithSink forwards step telemetry to s.
func WithSink(s metrics.StepRecorder) Option {
	return func(r *Runner) {
		if s != nil {
			r.sink = s
		}
	}
}

// WithStore appends every step record to s.
func WithStore(s results.Store) Option { return func(r *Runner) { r.store = s } }

// WithBus publishes step, progress and run events on b.
func WithBus(b eventbus.EventBus) Option { return func(r *Runner) { r.bus = b } }

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithEligibleSoC sets the SoC below which a user counts as needing a charge
// in step records.
func WithEligibleSoC(soc float64) Option { return func(r *Runner) { r.eligibleSoC = soc } }

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option { return func(r *Runner) { r.runID = id } }

// Runner executes simulation runs.
type Runner struct {
	env         Environment
	sched       Decider
	sink        metrics.StepRecorder
	store       results.Store
	bus         eventbus.EventBus
	log         logger.Logger
	eligibleSoC float64
	runID       string
}

// NewRunner creates a runner for the environment and scheduler.
func NewRunner(e Environment, d Decider, opts ...Option) *Runner {
	r := &Runner{env: e, sched: d, sink: metrics.NopSink{}, log: logger.Nop{}, eligibleSoC: 80}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run executes up to numSteps steps, stopping early when the environment
// reports done or ctx is canceled. Telemetry failures are logged and never
// abort the run.
func (r *Runner) Run(ctx context.Context, numSteps int, progress ProgressFunc) (Result, error) {
	if numSteps < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidSteps, numSteps)
	}
	runID := r.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	started := time.Now()
	res := Result{RunID: runID}
	r.publish(events.RunEvent{RunID: runID})
	r.log.Infof("run %s started for %d steps", runID, numSteps)

	var runErr error
	for step := 1; step <= numSteps; step++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		state := r.env.State()
		decisions := r.sched.Decide(state)
		out := r.env.Step(decisions)
		res.Series.add(out.Rewards)
		res.Steps = step

		r.record(ctx, runID, step, state, decisions, out)
		r.publish(events.ProgressEvent{RunID: runID, Step: step, Total: numSteps})
		if progress != nil {
			progress(step, numSteps)
		}
		if out.Done {
			break
		}
	}

	res.Averages = averages(res.Series)
	res.Duration = time.Since(started)
	r.finish(res, runErr)
	return res, runErr
}

func (r *Runner) record(ctx context.Context, runID string, step int, state model.Snapshot, decisions map[string]string, out env.StepResult) {
	rec := metrics.StepRecord{
		RunID:         runID,
		Step:          step,
		Time:          out.State.Timestamp,
		Rewards:       out.Rewards,
		Decisions:     decisions,
		EligibleUsers: r.eligible(state),
		MeanSoC:       meanSoC(out.State.Users),
		Grid:          state.GridStatus,
		Done:          out.Done,
	}
	if err := r.sink.RecordStep(rec); err != nil {
		r.log.Warnf("record step %d: %v", step, err)
	}
	if ar, ok := r.sink.(metrics.AssignmentRecorder); ok && len(decisions) > 0 {
		if err := ar.RecordAssignments(assignments(runID, step, state, decisions, out.State.Timestamp)); err != nil {
			r.log.Warnf("record assignments %d: %v", step, err)
		}
	}
	if cr, ok := r.sink.(metrics.ChargerStateRecorder); ok {
		states := make([]metrics.ChargerState, len(out.State.Chargers))
		for i, c := range out.State.Chargers {
			states[i] = metrics.ChargerState{RunID: runID, Charger: c, Time: out.State.Timestamp}
		}
		if err := cr.RecordChargerStates(states); err != nil {
			r.log.Warnf("record charger states %d: %v", step, err)
		}
	}
	if r.store != nil {
		if err := r.store.Append(ctx, rec); err != nil {
			r.log.Warnf("store step %d: %v", step, err)
		}
	}
	r.publish(events.StepEvent{RunID: runID, Step: step, Time: rec.Time, Rewards: out.Rewards, Decisions: decisions})
	r.log.Debugw("step", map[string]any{
		"run_id":      runID,
		"step":        step,
		"assignments": len(decisions),
		"total":       out.Rewards.TotalReward,
		"done":        out.Done,
	})
}

func (r *Runner) finish(res Result, runErr error) {
	if sr, ok := r.sink.(metrics.RunSummaryRecorder); ok {
		sum := metrics.RunSummary{RunID: res.RunID, Steps: res.Steps, Averages: res.Averages, Duration: res.Duration, Time: time.Now(), Err: runErr}
		if err := sr.RecordRunSummary(sum); err != nil {
			r.log.Warnf("record run summary: %v", err)
		}
	}
	r.publish(events.RunEvent{RunID: res.RunID, Finished: true, Steps: res.Steps, Averages: res.Averages, Err: runErr})
	if runErr != nil {
		r.log.Warnf("run %s stopped after %d steps: %v", res.RunID, res.Steps, runErr)
		return
	}
	r.log.Infof("run %s finished: steps=%d satisfaction=%.3f profit=%.3f grid=%.3f total=%.3f",
		res.RunID, res.Steps, res.Averages.UserSatisfaction, res.Averages.OperatorProfit,
		res.Averages.GridFriendliness, res.Averages.TotalReward)
}

func (r *Runner) publish(ev eventbus.Event) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(ev)
}

func (r *Runner) eligible(state model.Snapshot) int {
	n := 0
	for _, u := range state.Users {
		if u.SoC < r.eligibleSoC {
			n++
		}
	}
	return n
}

func assignments(runID string, step int, state model.Snapshot, decisions map[string]string, at time.Time) []metrics.Assignment {
	chargers := state.ChargerIndex()
	out := make([]metrics.Assignment, 0, len(decisions))
	for _, u := range state.Users {
		cid, ok := decisions[u.ID]
		if !ok {
			continue
		}
		if _, ok := chargers[cid]; !ok {
			continue
		}
		out = append(out, metrics.Assignment{
			RunID:          runID,
			Step:           step,
			UserID:         u.ID,
			ChargerID:      cid,
			EnergyKWh:      model.ChargeAmountKWh(u.SoC),
			RenewableRatio: state.GridStatus.RenewableRatio,
			Time:           at,
		})
	}
	return out
}

func averages(s Series) model.Rewards {
	return model.Rewards{
		UserSatisfaction: mean(s.UserSatisfaction),
		OperatorProfit:   mean(s.OperatorProfit),
		GridFriendliness: mean(s.GridFriendliness),
		TotalReward:      mean(s.TotalReward),
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

func meanSoC(users []model.User) float64 {
	socs := make([]float64, len(users))
	for i, u := range users {
		socs[i] = u.SoC
	}
	return mean(socs)
}
