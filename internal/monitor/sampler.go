package monitor

import (
	"context"
	"time"

	"codeberg.org/mutker/cpumon/internal/logger"
	"codeberg.org/mutker/cpumon/internal/sensor"
)

// Sampler reads a sensor.Source and accumulates the readings in append-only
// buffers, one per metric kind. A Sampler is not safe for concurrent use;
// each sampling loop owns its own.
type Sampler struct {
	source sensor.Source
	filter LabelFilter
	now    func() time.Time
	log    logger.Logger

	cpuData         []CPUMetric
	temperatureData []Temperature
}

type Option func(*Sampler)

func WithFilter(f LabelFilter) Option {
	return func(s *Sampler) {
		s.filter = f
	}
}

// WithClock replaces the wall clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		s.now = now
	}
}

func WithLogger(log logger.Logger) Option {
	return func(s *Sampler) {
		s.log = log
	}
}

func New(source sensor.Source, opts ...Option) *Sampler {
	s := &Sampler{
		source: source,
		filter: NewLabelFilter(DefaultSensorPrefix),
		now:    time.Now,
		log:    logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Sampler) timestamp() string {
	return s.now().Local().Format(TimestampLayout)
}

// CollectCPU refreshes usage and frequency, then appends one record per core.
// All cores read in one call share a timestamp. It returns the number of
// records appended; an unavailable source contributes none.
func (s *Sampler) CollectCPU(ctx context.Context) int {
	if err := s.source.RefreshCPUUsage(ctx); err != nil {
		s.log.Debug().Err(err).Msg("Skipping CPU reading")
		return 0
	}
	if err := s.source.RefreshCPUFrequency(ctx); err != nil {
		s.log.Debug().Err(err).Msg("Skipping CPU reading")
		return 0
	}

	ts := s.timestamp()
	cpus := s.source.CPUs()
	for _, c := range cpus {
		s.cpuData = append(s.cpuData, CPUMetric{
			Timestamp:   ts,
			ThreadLabel: c.Label,
			Utilization: c.Usage,
			Frequency:   c.Frequency,
		})

		s.log.Trace().
			Str("cpu", c.Label).
			Float64("usage", c.Usage).
			Uint64("frequency", c.Frequency).
			Msg("")
	}

	return len(cpus)
}

// CollectTemperature refreshes all sensors and appends one record per
// CPU-core sensor. Other thermal zones never enter the buffer.
func (s *Sampler) CollectTemperature(ctx context.Context) int {
	if err := s.source.RefreshComponents(ctx); err != nil {
		s.log.Debug().Err(err).Msg("Skipping temperature reading")
		return 0
	}

	ts := s.timestamp()
	added := 0
	for _, c := range s.source.Components() {
		s.log.Trace().
			Str("sensor", c.Label).
			Float64("temperature", c.Temperature).
			Bool("retained", s.filter.Match(c.Label)).
			Msg("")

		if !s.filter.Match(c.Label) {
			continue
		}
		s.temperatureData = append(s.temperatureData, Temperature{
			Timestamp:   ts,
			Label:       c.Label,
			Temperature: c.Temperature,
		})
		added++
	}

	return added
}

// CPUData returns the CPU buffer in capture order. The slice must not be
// modified.
func (s *Sampler) CPUData() []CPUMetric {
	return s.cpuData[:len(s.cpuData):len(s.cpuData)]
}

// TemperatureData returns the temperature buffer in capture order. The slice
// must not be modified.
func (s *Sampler) TemperatureData() []Temperature {
	return s.temperatureData[:len(s.temperatureData):len(s.temperatureData)]
}
