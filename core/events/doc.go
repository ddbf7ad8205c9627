// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - StepEvent: a step completed with its rewards and decisions
//   - ProgressEvent: run progress as step/total
//   - RunEvent: a run started or finished
package events
