package load

import (
	"math"
	"sync"
	"time"
)

const (
	filterAlpha = 0.2
	kp          = 0.2
	ki          = 0.2

	// Controller output range in seconds; the busy share of one period
	controlPeriod = 0.1
	initialPeriod = 0.03
)

// Controller is a PI regulator that turns the observed utilization of one
// core into the idle time the actuator sleeps per cycle. Observations are
// smoothed with a first order low-pass filter. It is safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	target   float64 // fraction of one core, 0..1
	filtered float64 // percent, 0..100
	integral float64
	period   float64
	sleep    time.Duration
}

func NewController(target float64) *Controller {
	return &Controller{
		target: target,
		period: initialPeriod,
	}
}

// SetTarget changes the setpoint without resetting the accumulated error
func (c *Controller) SetTarget(target float64) {
	c.mu.Lock()
	c.target = target
	c.mu.Unlock()
}

func (c *Controller) Target() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Observe feeds one utilization reading in percent through the filter
func (c *Controller) Observe(percent float64) {
	c.mu.Lock()
	c.filtered = filterAlpha*percent + (1-filterAlpha)*c.filtered
	c.mu.Unlock()
}

// Load returns the filtered utilization in percent
func (c *Controller) Load() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filtered
}

// Step advances the regulator by dt and returns the new sleep time. The
// integral term is not accumulated while the output is saturated.
func (c *Controller) Step(dt time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.target - c.filtered*0.01
	delta := e * dt.Seconds()
	c.integral += delta
	c.period = kp*e + ki*c.integral

	switch {
	case c.period < 0:
		c.period = 0
		c.integral -= delta
	case c.period > controlPeriod:
		c.period = controlPeriod
		c.integral -= delta
	}

	c.sleep = seconds(controlPeriod - c.period)
	return c.sleep
}

// SleepTime returns the output of the last Step, zero before the first
func (c *Controller) SleepTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleep
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
