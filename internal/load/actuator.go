package load

import (
	"context"
	"time"
)

// DefaultDutyPeriod is the length of one busy-then-idle actuation cycle
const DefaultDutyPeriod = 50 * time.Millisecond

// spin keeps the calling thread busy until deadline
func spin(deadline time.Time) uint64 {
	var n uint64
	for time.Now().Before(deadline) {
		n = n*n + 1
	}
	return n
}

// actuate runs one cycle: busy for period minus idle, then idle. An idle time
// longer than the period leaves no busy share. It returns false once ctx is
// done.
func actuate(ctx context.Context, period, idle time.Duration) bool {
	if busy := period - idle; busy > 0 {
		spin(time.Now().Add(busy))
	}
	if idle <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(idle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
