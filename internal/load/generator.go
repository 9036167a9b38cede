// Package load generates a steady utilization on chosen CPU cores. Each
// loaded core runs a busy-then-idle actuator whose idle time is set by a PI
// controller fed with the core's measured utilization.
package load

import (
	"context"
	"runtime"
	"sync"
	"time"

	"codeberg.org/mutker/cpumon/internal/logger"
	"codeberg.org/mutker/cpumon/internal/sensor"
)

// DefaultInterval is how often utilization is measured and the controllers
// are stepped
const DefaultInterval = 100 * time.Millisecond

type Generator struct {
	source     sensor.Source
	log        logger.Logger
	interval   time.Duration
	dutyPeriod time.Duration
	numCPU     int
	pin        func(core int) error
}

type Option func(*Generator)

func WithLogger(log logger.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// WithInterval sets the measurement and control interval
func WithInterval(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.interval = d
		}
	}
}

// WithCPUCount overrides the number of cores that can be loaded
func WithCPUCount(n int) Option {
	return func(g *Generator) {
		g.numCPU = n
	}
}

// New returns a Generator measuring utilization through source. The source
// must report cores in logical CPU order.
func New(source sensor.Source, opts ...Option) *Generator {
	g := &Generator{
		source:     source,
		log:        logger.Default(),
		interval:   DefaultInterval,
		dutyPeriod: DefaultDutyPeriod,
		numCPU:     runtime.NumCPU(),
		pin:        pin,
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}

// LoadCore holds core at target, a fraction of one core, for d. It returns
// early without error when ctx is cancelled.
func (g *Generator) LoadCore(ctx context.Context, core int, d time.Duration, target float64) error {
	return g.LoadCores(ctx, []int{core}, d, target)
}

// LoadAllCores holds every core at target for d
func (g *Generator) LoadAllCores(ctx context.Context, d time.Duration, target float64) error {
	cores := make([]int, g.numCPU)
	for i := range cores {
		cores[i] = i
	}
	return g.LoadCores(ctx, cores, d, target)
}

// LoadCores holds each of cores at target for d in parallel
func (g *Generator) LoadCores(ctx context.Context, cores []int, d time.Duration, target float64) error {
	if err := validateLoad(target); err != nil {
		return err
	}

	p := make(Profile, 0, len(cores))
	for _, core := range cores {
		p = append(p, CoreSequence{
			CPU:      core,
			Repeat:   1,
			Sequence: []Step{{Load: target, Duration: d.Seconds()}},
		})
	}

	return g.RunProfile(ctx, p)
}

// RunProfile plays every sequence of p on its core in parallel
func (g *Generator) RunProfile(ctx context.Context, p Profile) error {
	if err := p.Validate(g.numCPU); err != nil {
		return err
	}

	return g.run(ctx, p)
}

func (g *Generator) run(ctx context.Context, seqs []CoreSequence) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readings := newUsage(g.numCPU)
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		g.monitor(ctx, readings)
	}()

	g.log.Info().
		Int("cores", len(seqs)).
		Dur("interval", g.interval).
		Msg("Load generation started")

	var wg sync.WaitGroup
	for _, seq := range seqs {
		wg.Add(1)
		go func(seq CoreSequence) {
			defer wg.Done()
			g.loadSequence(ctx, seq, readings)
		}(seq)
	}
	wg.Wait()

	cancel()
	<-monitorDone

	g.log.Info().Msg("Load generation finished")
	return nil
}

// monitor refreshes per-core utilization every interval until ctx is done
func (g *Generator) monitor(ctx context.Context, u *usage) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := g.source.RefreshCPUUsage(ctx); err != nil {
			g.log.Debug().Err(err).Msg("Skipping utilization reading")
			continue
		}
		u.update(g.source.CPUs())
	}
}

func (g *Generator) loadSequence(ctx context.Context, seq CoreSequence, u *usage) {
	if err := g.pin(seq.CPU); err != nil {
		g.log.Warn().Err(err).Int("core", seq.CPU).Msg("Failed to set CPU affinity")
	}

	ctrl := NewController(0)
	stepped := make(chan struct{})
	stepCtx, stop := context.WithCancel(ctx)
	go func() {
		defer close(stepped)
		g.control(stepCtx, ctrl, seq.CPU, u)
	}()
	defer func() {
		stop()
		<-stepped
	}()

	for r := 0; r < seq.Repeat; r++ {
		for _, step := range seq.Sequence {
			ctrl.SetTarget(step.Load)
			g.log.Debug().
				Int("core", seq.CPU).
				Float64("load", step.Load).
				Dur("duration", step.duration()).
				Msg("Load step")

			deadline := time.Now().Add(step.duration())
			for time.Now().Before(deadline) {
				if !actuate(ctx, g.dutyPeriod, ctrl.SleepTime()) {
					return
				}
			}
		}
	}
}

// control steps ctrl with the latest reading for core every interval
func (g *Generator) control(ctx context.Context, ctrl *Controller, core int, u *usage) {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ctrl.Observe(u.get(core))
			ctrl.Step(now.Sub(last))
			last = now
		}
	}
}

type usage struct {
	mu      sync.RWMutex
	percent []float64
}

func newUsage(n int) *usage {
	return &usage{percent: make([]float64, n)}
}

func (u *usage) update(cpus []sensor.CPU) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for i, c := range cpus {
		if i < len(u.percent) {
			u.percent[i] = c.Usage
		}
	}
}

func (u *usage) get(core int) float64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.percent[core]
}
