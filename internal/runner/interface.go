package runner

import (
	"context"
	"time"
)

// Sink persists a loop's buffer. It is handed the full, append-only buffer on
// every tick.
type Sink[T any] interface {
	Flush(ctx context.Context, records []T) error
}

// Recorder observes completed ticks
type Recorder interface {
	ObserveTick(loop string, records int, d time.Duration, err error)
}

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Policy decides what a loop does after a failed flush
type Policy string

const (
	// PolicyStop ends the failing loop; sibling loops keep running
	PolicyStop Policy = "stop"
	// PolicyContinue logs the failure and retries on the next tick
	PolicyContinue Policy = "continue"
)

type LoopConfig struct {
	Interval     time.Duration
	Duration     time.Duration
	OnWriteError Policy
}

// LoopResult is what a loop reports once it reaches Done
type LoopResult struct {
	Name        string
	Ticks       int
	Records     int
	WriteErrors int
	Elapsed     time.Duration
	Cancelled   bool
	Err         error
}

type noopRecorder struct{}

func (noopRecorder) ObserveTick(string, int, time.Duration, error) {}
