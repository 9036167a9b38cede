package sensor

import (
	"context"
	"fmt"
	"math"
	"sync"

	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/logger"
	"github.com/prometheus/procfs/sysfs"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
)

// hostAPI abstracts gopsutil calls for testing
type hostAPI interface {
	Times(ctx context.Context) ([]cpu.TimesStat, error)
	Info(ctx context.Context) ([]cpu.InfoStat, error)
	Temperatures(ctx context.Context) ([]host.TemperatureStat, error)
}

type gopsutilAPI struct{}

func (gopsutilAPI) Times(ctx context.Context) ([]cpu.TimesStat, error) {
	return cpu.TimesWithContext(ctx, true)
}

func (gopsutilAPI) Info(ctx context.Context) ([]cpu.InfoStat, error) {
	return cpu.InfoWithContext(ctx)
}

func (gopsutilAPI) Temperatures(ctx context.Context) ([]host.TemperatureStat, error) {
	return host.SensorsTemperaturesWithContext(ctx)
}

// HostSource reads the local machine through gopsutil and the cpufreq sysfs
// interface. Usage is computed from the CPU time counters this source saw on
// its previous refresh, so sources never share a baseline.
type HostSource struct {
	api     hostAPI
	sysRoot string
	log     logger.Logger

	mu         sync.Mutex
	times      []cpu.TimesStat
	usage      []float64
	frequency  []uint64
	components []Component
}

// NewHostSource creates a source for the local machine and takes an initial
// reading of every facet, so the first usage refresh has a baseline.
func NewHostSource(ctx context.Context, log logger.Logger) *HostSource {
	return newHostSource(ctx, gopsutilAPI{}, sysfs.DefaultMountPoint, log)
}

func newHostSource(ctx context.Context, api hostAPI, sysRoot string, log logger.Logger) *HostSource {
	s := &HostSource{
		api:     api,
		sysRoot: sysRoot,
		log:     log,
	}

	if err := s.RefreshCPUUsage(ctx); err != nil {
		log.Debug().Err(err).Msg("Initial CPU usage reading failed")
	}
	if err := s.RefreshCPUFrequency(ctx); err != nil {
		log.Debug().Err(err).Msg("Initial CPU frequency reading failed")
	}
	if err := s.RefreshComponents(ctx); err != nil {
		log.Debug().Err(err).Msg("Initial sensor reading failed")
	}

	return s
}

func (s *HostSource) RefreshCPUUsage(ctx context.Context) error {
	errFactory := errors.New()

	times, err := s.api.Times(ctx)
	if err != nil {
		return errFactory.Wrap(ErrUnavailable, errFactory.Wrap(ErrCPUUsage, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	usage := make([]float64, len(times))
	for i, t := range times {
		var prev cpu.TimesStat
		if i < len(s.times) {
			prev = s.times[i]
		}
		usage[i] = busyPercent(prev, t)
	}
	s.times = times
	s.usage = usage

	return nil
}

func (s *HostSource) RefreshCPUFrequency(ctx context.Context) error {
	s.mu.Lock()
	count := len(s.usage)
	s.mu.Unlock()

	frequency, err := readScalingFrequencies(s.sysRoot, count)
	if err != nil {
		s.log.Trace().Err(err).Msg("cpufreq unavailable, falling back to cpuinfo")
		frequency, err = s.infoFrequencies(ctx)
		if err != nil {
			return errors.New().Wrap(ErrUnavailable, err)
		}
	}

	s.mu.Lock()
	s.frequency = frequency
	s.mu.Unlock()

	return nil
}

func (s *HostSource) infoFrequencies(ctx context.Context) ([]uint64, error) {
	infos, err := s.api.Info(ctx)
	if err != nil {
		return nil, errors.New().Wrap(ErrCPUFrequency, err)
	}

	frequency := make([]uint64, 0, len(infos))
	for _, info := range infos {
		idx := int(info.CPU)
		for len(frequency) <= idx {
			frequency = append(frequency, 0)
		}
		frequency[idx] = uint64(math.Round(info.Mhz))
	}

	return frequency, nil
}

func (s *HostSource) RefreshComponents(ctx context.Context) error {
	temps, err := s.api.Temperatures(ctx)
	if err != nil {
		// gopsutil reports unreadable sensors as warnings next to the ones it
		// could read
		if len(temps) == 0 {
			return errors.New().Wrap(ErrUnavailable, errors.New().Wrap(ErrComponents, err))
		}
		s.log.Trace().Err(err).Int("sensors", len(temps)).Msg("Partial sensor reading")
	}

	components := make([]Component, 0, len(temps))
	for _, t := range temps {
		components = append(components, Component{
			Label:       t.SensorKey,
			Temperature: t.Temperature,
		})
	}

	s.mu.Lock()
	s.components = components
	s.mu.Unlock()

	return nil
}

func (s *HostSource) CPUs() []CPU {
	s.mu.Lock()
	defer s.mu.Unlock()

	cpus := make([]CPU, len(s.usage))
	for i, usage := range s.usage {
		cpus[i] = CPU{
			Label: fmt.Sprintf("cpu%d", i),
			Usage: usage,
		}
		if i < len(s.frequency) {
			cpus[i].Frequency = s.frequency[i]
		}
	}

	return cpus
}

func (s *HostSource) Components() []Component {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Component(nil), s.components...)
}

func busyTotal(t cpu.TimesStat) (busy, total float64) {
	// Guest time is already part of User on Linux
	total = t.User + t.System + t.Idle + t.Nice + t.Iowait + t.Irq + t.Softirq + t.Steal
	busy = total - t.Idle - t.Iowait
	return busy, total
}

// busyPercent returns the share of non-idle time between two counter
// snapshots of one core. A zero prev yields the average since boot.
func busyPercent(prev, cur cpu.TimesStat) float64 {
	busy1, total1 := busyTotal(prev)
	busy2, total2 := busyTotal(cur)

	if busy2 <= busy1 {
		return 0
	}
	if total2 <= total1 {
		return 100
	}

	return math.Min(100, math.Max(0, (busy2-busy1)/(total2-total1)*100))
}
