// Package sensortest provides a deterministic sensor.Source for tests.
package sensortest

import (
	"context"
	"strconv"
	"sync"

	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/sensor"
)

// Source returns the configured readings on every refresh. Individual
// refreshes can be scripted to fail.
type Source struct {
	mu         sync.Mutex
	cpus       []sensor.CPU
	components []sensor.Component

	failUsage      map[int]bool
	failFrequency  map[int]bool
	failComponents map[int]bool

	usageRefreshes     int
	frequencyRefreshes int
	componentRefreshes int
}

var _ sensor.Source = (*Source)(nil)

func New(cpus []sensor.CPU, components []sensor.Component) *Source {
	return &Source{
		cpus:           cpus,
		components:     components,
		failUsage:      map[int]bool{},
		failFrequency:  map[int]bool{},
		failComponents: map[int]bool{},
	}
}

// Cores returns n cores labelled cpu0..cpuN-1
func Cores(n int) []sensor.CPU {
	cpus := make([]sensor.CPU, n)
	for i := range cpus {
		cpus[i] = sensor.CPU{
			Label:     "cpu" + strconv.Itoa(i),
			Usage:     float64(10 * (i + 1)),
			Frequency: uint64(2400 + 100*i),
		}
	}
	return cpus
}

// FailUsageOn makes the given 1-based usage refreshes fail
func (s *Source) FailUsageOn(calls ...int) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range calls {
		s.failUsage[c] = true
	}
	return s
}

// FailFrequencyOn makes the given 1-based frequency refreshes fail
func (s *Source) FailFrequencyOn(calls ...int) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range calls {
		s.failFrequency[c] = true
	}
	return s
}

// FailComponentsOn makes the given 1-based component refreshes fail
func (s *Source) FailComponentsOn(calls ...int) *Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range calls {
		s.failComponents[c] = true
	}
	return s
}

func (s *Source) SetCPUs(cpus []sensor.CPU) {
	s.mu.Lock()
	s.cpus = cpus
	s.mu.Unlock()
}

func (s *Source) SetComponents(components []sensor.Component) {
	s.mu.Lock()
	s.components = components
	s.mu.Unlock()
}

// Refreshes returns how often each facet was refreshed
func (s *Source) Refreshes() (usage, frequency, components int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usageRefreshes, s.frequencyRefreshes, s.componentRefreshes
}

func (s *Source) RefreshCPUUsage(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usageRefreshes++
	if s.failUsage[s.usageRefreshes] {
		return errors.New().New(sensor.ErrUnavailable)
	}
	return nil
}

func (s *Source) RefreshCPUFrequency(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frequencyRefreshes++
	if s.failFrequency[s.frequencyRefreshes] {
		return errors.New().New(sensor.ErrUnavailable)
	}
	return nil
}

func (s *Source) RefreshComponents(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.componentRefreshes++
	if s.failComponents[s.componentRefreshes] {
		return errors.New().New(sensor.ErrUnavailable)
	}
	return nil
}

func (s *Source) CPUs() []sensor.CPU {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sensor.CPU(nil), s.cpus...)
}

func (s *Source) Components() []sensor.Component {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sensor.Component(nil), s.components...)
}
