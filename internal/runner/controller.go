package runner

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/logger"
)

// Controller runs sampling loops concurrently and joins them. Each loop
// reports on its own result channel slot, so one loop failing never hides
// the other's outcome.
type Controller struct {
	log      logger.Logger
	recorder Recorder
	sleep    Sleeper
}

type Option func(*Controller)

func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		c.log = log
	}
}

func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithSleeper replaces the timer used between ticks
func WithSleeper(s Sleeper) Option {
	return func(c *Controller) {
		c.sleep = s
	}
}

func NewController(opts ...Option) *Controller {
	c := &Controller{
		log:      logger.Default(),
		recorder: noopRecorder{},
		sleep:    sleep,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

type indexedResult struct {
	index  int
	result LoopResult
}

// Run starts every loop and blocks until all of them are done
func (c *Controller) Run(ctx context.Context, loops ...*Loop) Report {
	report := Report{
		Started: time.Now(),
		Loops:   make([]LoopResult, len(loops)),
	}

	results := make(chan indexedResult, len(loops))
	for i, l := range loops {
		go func(i int, l *Loop) {
			results <- indexedResult{index: i, result: c.runLoop(ctx, l)}
		}(i, l)
	}

	for range loops {
		r := <-results
		report.Loops[r.index] = r.result
	}
	report.Finished = time.Now()

	return report
}

func (c *Controller) runLoop(ctx context.Context, l *Loop) (res LoopResult) {
	defer func() {
		if p := recover(); p != nil {
			res = LoopResult{
				Name: l.name,
				Err:  errors.New().WithData(ErrLoopPanicked, fmt.Sprint(p)),
			}
			c.log.Error().Str("loop", l.name).Interface("panic", p).Msg("Loop panicked")
		}
	}()

	return l.run(ctx, c)
}

// Report is the outcome of one run
type Report struct {
	Started  time.Time
	Finished time.Time
	Loops    []LoopResult
}

// Failed returns the names of loops that ended with an error
func (r Report) Failed() []string {
	var names []string
	for _, l := range r.Loops {
		if l.Err != nil {
			names = append(names, l.Name)
		}
	}
	return names
}

// Err summarizes every failed loop, or returns nil
func (r Report) Err() error {
	var errs []error
	for _, l := range r.Loops {
		if l.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.Name, l.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}

	return errors.New().Wrap(ErrLoopFailed, errors.Join(errs...))
}
