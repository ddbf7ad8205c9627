package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/evsched/core/model"
)

// StepRecord summarises one simulation step.
type StepRecord struct {
	RunID         string            `json:"run_id"`
	Step          int               `json:"step"`
	Time          time.Time         `json:"time"`
	Rewards       model.Rewards     `json:"rewards"`
	Decisions     map[string]string `json:"decisions,omitempty"`
	EligibleUsers int               `json:"eligible_users"`
	MeanSoC       float64           `json:"mean_soc"`
	Grid          model.GridStatus  `json:"grid_status"`
	Done          bool              `json:"done"`
}

// Assigned reports whether userID received a charger in this step.
func (r StepRecord) Assigned(userID string) bool {
	_, ok := r.Decisions[userID]
	return ok
}

// StepRecorder records step summaries. It is the interface every sink
// implements.
type StepRecorder interface {
	RecordStep(rec StepRecord) error
}

// Assignment is a single user to charger decision with the energy it is
// expected to deliver.
type Assignment struct {
	RunID          string
	Step           int
	UserID         string
	ChargerID      string
	EnergyKWh      float64
	RenewableRatio float64 // percent
	Time           time.Time
}

// AssignmentRecorder records the decisions of a step.
type AssignmentRecorder interface {
	RecordAssignments(as []Assignment) error
}

// ChargerState is a snapshot of a charger after a step.
type ChargerState struct {
	RunID   string
	Charger model.Charger
	Time    time.Time
}

// ChargerStateRecorder records charger snapshots.
type ChargerStateRecorder interface {
	RecordChargerStates(states []ChargerState) error
}

// RunSummary closes a simulation run. Err is the reason the run stopped
// early, nil when it completed.
type RunSummary struct {
	RunID    string
	Steps    int
	Averages model.Rewards
	Duration time.Duration
	Time     time.Time
	Err      error
}

// Run outcomes reported by RunSummary.Status.
const (
	RunCompleted = "completed"
	RunCanceled  = "canceled"
	RunFailed    = "failed"
)

// Status classifies the outcome of the run.
func (s RunSummary) Status() string {
	switch {
	case s.Err == nil:
		return RunCompleted
	case errors.Is(s.Err, context.Canceled), errors.Is(s.Err, context.DeadlineExceeded):
		return RunCanceled
	default:
		return RunFailed
	}
}

// RunSummaryRecorder records the outcome of a run.
type RunSummaryRecorder interface {
	RecordRunSummary(sum RunSummary) error
}

// ProgressRecorder records how far a run has progressed.
type ProgressRecorder interface {
	RecordProgress(runID string, step, total int) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordStep(StepRecord) error              { return nil }
func (NopSink) RecordAssignments([]Assignment) error     { return nil }
func (NopSink) RecordChargerStates([]ChargerState) error { return nil }
func (NopSink) RecordRunSummary(RunSummary) error        { return nil }
func (NopSink) RecordProgress(string, int, int) error    { return nil }
