// Package infra holds the adapters that connect the simulation to the
// outside world: telemetry sinks, the MQTT publisher, the SQLite KPI store,
// Sentry reporting and the zerolog logger. Adapters depend on the
// interfaces declared under core and never the other way round.
package infra
