package runner

import (
	"context"
	"time"

	"codeberg.org/mutker/cpumon/internal/errors"
	"codeberg.org/mutker/cpumon/internal/logger"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyStop, "":
		return PolicyStop, nil
	case PolicyContinue:
		return PolicyContinue, nil
	}
	return "", errors.New().WithData(ErrInvalidPolicy, s)
}

// Loop samples one metric kind: every tick it sleeps for its interval,
// collects, then flushes the full buffer to its sinks.
type Loop struct {
	name    string
	cfg     LoopConfig
	collect func(ctx context.Context) int
	flush   func(ctx context.Context) error
}

// NewLoop builds a loop over a buffer of T. collect appends to the buffer
// and returns the number of records added; buffer returns the whole buffer.
func NewLoop[T any](
	name string,
	cfg LoopConfig,
	collect func(ctx context.Context) int,
	buffer func() []T,
	sinks ...Sink[T],
) *Loop {
	if cfg.OnWriteError == "" {
		cfg.OnWriteError = PolicyStop
	}

	return &Loop{
		name:    name,
		cfg:     cfg,
		collect: collect,
		flush: func(ctx context.Context) error {
			records := buffer()
			var errs []error
			for _, s := range sinks {
				if err := s.Flush(ctx, records); err != nil {
					errs = append(errs, err)
				}
			}
			if len(errs) == 1 {
				return errs[0]
			}
			return errors.Join(errs...)
		},
	}
}

func (l *Loop) Name() string {
	return l.name
}

// ticks returns how many ticks a full run performs: the loop continues while
// the accounted time is below the duration.
func (l *Loop) ticks() int {
	if l.cfg.Duration <= 0 || l.cfg.Interval <= 0 {
		return 0
	}
	return int((l.cfg.Duration + l.cfg.Interval - 1) / l.cfg.Interval)
}

func (l *Loop) run(ctx context.Context, c *Controller) LoopResult {
	res := LoopResult{Name: l.name}

	c.log.Debug().
		Str("loop", l.name).
		Dur("interval", l.cfg.Interval).
		Dur("duration", l.cfg.Duration).
		Int("ticks", l.ticks()).
		Msg("Loop started")

	var elapsed time.Duration
	for l.cfg.Interval > 0 && elapsed < l.cfg.Duration {
		if err := c.sleep(ctx, l.cfg.Interval); err != nil {
			res.Cancelled = true
			break
		}

		start := time.Now()
		added := l.collect(ctx)
		err := l.flush(ctx)
		elapsed += l.cfg.Interval

		res.Ticks++
		res.Records += added
		c.recorder.ObserveTick(l.name, added, time.Since(start), err)

		if err == nil {
			res.Err = nil
			continue
		}

		res.WriteErrors++
		res.Err = err
		var coded errors.Error
		var ev *logger.LogEvent
		if errors.As(err, &coded) {
			ev = c.log.ErrorWithCode(coded)
		} else {
			ev = c.log.Error()
			ev.Err(err)
		}
		ev.Str("loop", l.name).
			Int("tick", res.Ticks).
			Str("policy", string(l.cfg.OnWriteError)).
			Msg("Flush failed")

		if l.cfg.OnWriteError == PolicyStop {
			break
		}
	}
	res.Elapsed = elapsed

	c.log.Debug().
		Str("loop", l.name).
		Int("ticks", res.Ticks).
		Int("records", res.Records).
		Bool("cancelled", res.Cancelled).
		Msg("Loop done")

	return res
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
