package logger

import "codeberg.org/mutker/cpumon/internal/errors"

// Logger defines the interface for logging operations.
type Logger interface {
	Trace() *LogEvent
	Debug() *LogEvent
	Info() *LogEvent
	Warn() *LogEvent
	Error() *LogEvent
	ErrorWithCode(err errors.Error) *LogEvent
}

// Default returns a Logger backed by the package-level logger.
func Default() Logger {
	return global{}
}

type global struct{}

func (global) Trace() *LogEvent { return Trace() }
func (global) Debug() *LogEvent { return Debug() }
func (global) Info() *LogEvent { return Info() }
func (global) Warn() *LogEvent { return Warn() }
func (global) Error() *LogEvent { return Error() }
func (global) ErrorWithCode(err errors.Error) *LogEvent { return ErrorWithCode(err) }
