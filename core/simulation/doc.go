// Package simulation drives an environment with a scheduler for a number of
// steps, collecting the reward series and forwarding per-step telemetry to
// the configured sinks, result store and event bus.
package simulation
