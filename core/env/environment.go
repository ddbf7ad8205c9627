package env

import (
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/evsched/core/grid"
	"github.com/kilianp07/evsched/core/logger"
	"github.com/kilianp07/evsched/core/model"
)

// StepResult is returned by Step.
type StepResult struct {
	Rewards model.Rewards  `json:"rewards"`
	State   model.Snapshot `json:"next_state"`
	Done    bool           `json:"done"`
}

// Option customises an Environment at construction.
type Option func(*Environment)

// WithUsers replaces the generated user population.
func WithUsers(users []model.User) Option {
	return func(e *Environment) {
		e.fixedUsers = append([]model.User{}, users...)
	}
}

// WithChargers replaces the generated charger population.
func WithChargers(chargers []model.Charger) Option {
	return func(e *Environment) {
		e.fixedChargers = append([]model.Charger{}, chargers...)
	}
}

// WithRenewableRatio pins the renewable share instead of drawing it.
func WithRenewableRatio(ratio float64) Option {
	return func(e *Environment) {
		e.settings.Grid.RenewableRatioRange = model.Range{ratio, ratio}
	}
}

// WithLogger sets the logger used for step events.
func WithLogger(l logger.Logger) Option {
	return func(e *Environment) {
		if l != nil {
			e.log = l
		}
	}
}

// Environment owns the simulated charging network.
type Environment struct {
	settings Settings
	rewards  RewardModel
	rng      *PartitionedRNG
	log      logger.Logger

	grid     *grid.State
	users    *Pool[model.User]
	chargers *Pool[model.Charger]

	start    time.Time
	clock    time.Time
	stepSize time.Duration

	fixedUsers    []model.User
	fixedChargers []model.Charger
}

// New builds an environment from s. Settings are used as given; callers
// apply defaults beforehand (see DefaultSettings).
func New(s Settings, weights model.Weights, opts ...Option) (*Environment, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	start, err := s.Environment.Start()
	if err != nil {
		return nil, fmt.Errorf("start_time: %w", err)
	}
	if s.Environment.TimeStepMinutes <= 0 {
		return nil, fmt.Errorf("time_step_minutes must be positive")
	}
	e := &Environment{
		settings: s,
		rewards:  RewardModel{Weights: weights},
		rng:      NewPartitionedRNG(SimulationKey(s.Environment.Seed)),
		log:      logger.Nop{},
		start:    start,
		stepSize: s.Environment.StepDuration(),
	}
	for _, o := range opts {
		o(e)
	}
	e.Reset()
	return e, nil
}

// Reset reseeds the generator from the simulation key, redraws the grid and
// the populations and rewinds the clock. Fixed populations are restored to
// their initial values. A reset environment replays the run of a fresh one.
func (e *Environment) Reset() model.Snapshot {
	e.rng = NewPartitionedRNG(e.rng.Key())
	e.clock = e.start
	e.grid = grid.New(e.settings.Grid, e.rng.ForSubsystem(SubsystemGrid))

	pop := e.rng.ForSubsystem(SubsystemPopulation)
	chargers := e.fixedChargers
	if chargers == nil {
		chargers = generateChargers(e.settings.Environment.ChargerCount, e.settings.Chargers, e.settings.Environment.Region, pop)
	}
	users := e.fixedUsers
	if users == nil {
		users = generateUsers(e.settings.Environment.UserCount, e.settings.Users, e.settings.Environment.Region, pop)
	}
	e.chargers = newPool[model.Charger](len(chargers))
	for _, c := range chargers {
		e.chargers.add(c.ID, c)
	}
	e.users = newPool[model.User](len(users))
	for _, u := range users {
		e.users.add(u.ID, u)
	}
	return e.State()
}

// State returns a snapshot of the current state. It has no side effects.
func (e *Environment) State() model.Snapshot {
	return model.Snapshot{
		Timestamp:  e.clock,
		GridID:     e.settings.Environment.GridID,
		Users:      e.users.values(),
		Chargers:   e.chargers.values(),
		GridStatus: e.grid.Status(e.clock),
	}
}

// Step applies the assignments, advances the clock by one step and returns
// the rewards earned by the assignments. Unknown user or charger ids are
// ignored. Rewards are evaluated against the state the assignments were
// decided on, before consumption, charging or failures of this step.
func (e *Environment) Step(actions map[string]string) StepResult {
	gs := e.grid.Status(e.clock)
	pairs := e.resolve(actions)

	e.clock = e.clock.Add(e.stepSize)

	consumption := e.rng.ForSubsystem(SubsystemConsumption)
	lo, hi := e.settings.Environment.ConsumptionRange.Min(), e.settings.Environment.ConsumptionRange.Max()
	e.users.each(func(u *model.User) {
		u.Discharge(uniform(consumption, lo, hi))
	})

	failure := e.rng.ForSubsystem(SubsystemFailure)
	dlo, dhi := e.settings.Environment.FailureDegradationRange.Min(), e.settings.Environment.FailureDegradationRange.Max()
	for _, p := range pairs {
		u, _ := e.users.get(p.User.ID)
		c, _ := e.chargers.get(p.Charger.ID)
		c.QueueLength++
		u.Charge()
		if c.QueueLength > 0 {
			c.QueueLength--
		}
		if failure.Float64() < c.FailureRate() {
			before := c.HealthScore
			c.Degrade(uniform(failure, dlo, dhi))
			e.log.Debugf("charger %s degraded %.1f -> %.1f", c.ID, before, c.HealthScore)
		}
	}

	return StepResult{
		Rewards: e.rewards.Compute(pairs, gs),
		State:   e.State(),
		Done:    e.Done(),
	}
}

// resolve maps actions onto existing entities in sorted user id order and
// copies their current state. The order fixes how failure draws are consumed.
func (e *Environment) resolve(actions map[string]string) []Pair {
	if len(actions) == 0 {
		return nil
	}
	uids := make([]string, 0, len(actions))
	for uid := range actions {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	pairs := make([]Pair, 0, len(actions))
	for _, uid := range uids {
		u, ok := e.users.get(uid)
		if !ok {
			continue
		}
		c, ok := e.chargers.get(actions[uid])
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{User: *u, Charger: *c})
	}
	return pairs
}

// Done reports whether the clock reached the last step of the day.
func (e *Environment) Done() bool {
	return e.clock.Hour() == 23 && e.clock.Minute() >= 45
}

// Clock returns the current simulated time.
func (e *Environment) Clock() time.Time { return e.clock }

// StepSize returns the simulated duration of one step.
func (e *Environment) StepSize() time.Duration { return e.stepSize }

// Key returns the simulation key of the run.
func (e *Environment) Key() SimulationKey { return e.rng.Key() }

// LoadCurve exposes the hourly load curve of the current day.
func (e *Environment) LoadCurve() []float64 { return e.grid.LoadCurve() }
