// Package metrics defines the contracts for recording simulation telemetry.
// A sink implements StepRecorder and may additionally implement the optional
// recorder interfaces (assignments, charger states, run summaries). Sinks are
// built from configuration through the factory helpers, which return a
// MultiSink automatically when several sinks are configured.
package metrics
