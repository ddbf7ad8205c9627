package events

import "github.com/kilianp07/evsched/core/model"

// RunEvent marks the start or the end of a run. Averages and Err are only
// set when Finished is true.
type RunEvent struct {
	RunID    string
	Finished bool
	Steps    int
	Averages model.Rewards
	Err      error
}
