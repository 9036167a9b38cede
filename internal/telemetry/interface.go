package telemetry

import "time"

// Collector records per-tick statistics of the sampling loops and persists
// them when the run ends
type Collector interface {
	ObserveTick(loop string, records int, d time.Duration, err error)
	Close() error
}
