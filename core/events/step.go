package events

import (
	"time"

	"github.com/kilianp07/evsched/core/model"
)

// StepEvent is published after every environment step.
type StepEvent struct {
	RunID     string
	Step      int
	Time      time.Time
	Rewards   model.Rewards
	Decisions map[string]string
}

// ProgressEvent reports how many of the requested steps have run.
type ProgressEvent struct {
	RunID string
	Step  int
	Total int
}

// Fraction returns the completed share in [0,1].
func (p ProgressEvent) Fraction() float64 {
	if p.Total <= 0 {
		return 1
	}
	return float64(p.Step) / float64(p.Total)
}
