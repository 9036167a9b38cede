package archive

import (
	"context"

	"codeberg.org/mutker/cpumon/internal/monitor"
)

// Service mirrors the sampling buffers into a SQLite database
type Service interface {
	// CPUSink returns a sink for the CPU loop
	CPUSink() *CPUSink
	// TemperatureSink returns a sink for the temperature loop
	TemperatureSink() *TemperatureSink
	Close() error
}

// Repository defines the interface for sample storage
type Repository interface {
	StoreCPU(ctx context.Context, samples []monitor.CPUMetric) error
	StoreTemperatures(ctx context.Context, samples []monitor.Temperature) error
	Close() error
}
