package sensor

import "context"

// Source abstracts OS-level access to CPU and thermal readings. Readings are
// cached between refreshes; callers refresh before reading.
type Source interface {
	// RefreshCPUUsage re-reads per-core utilization
	RefreshCPUUsage(ctx context.Context) error

	// RefreshCPUFrequency re-reads per-core clock frequency
	RefreshCPUFrequency(ctx context.Context) error

	// RefreshComponents re-reads all hardware temperature sensors
	RefreshComponents(ctx context.Context) error

	// CPUs returns one entry per logical core in a stable enumeration order
	CPUs() []CPU

	// Components returns one entry per detected temperature sensor
	Components() []Component
}

// CPU is a single logical core reading
type CPU struct {
	Label     string
	Usage     float64
	Frequency uint64
}

// Component is a single temperature sensor reading
type Component struct {
	Label       string
	Temperature float64
}
