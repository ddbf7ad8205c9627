// Package logger provides the zerolog backed implementation of the core
// logging interface. Every logger carries a component field identifying the
// part of the simulator that emitted the line.
package logger

import corelogger "github.com/kilianp07/evsched/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything.
type NopLogger = corelogger.Nop

// New returns a Logger for the given component. APP_ENV=dev switches to a
// human readable console output and LOG_LEVEL sets the minimum level.
func New(component string) Logger {
	return NewZerologLogger(component)
}
