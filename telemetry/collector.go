package telemetry

import (
	"time"

	"github.com/pthm-cable/regrow/grid"
)

// Collector accumulates per-step observations within windows of steps and
// produces WindowStats.
type Collector struct {
	windowSteps    uint64
	aliveThreshold float32
	now            func() time.Time

	// Current window tracking
	windowStartStep uint64
	windowStartTime time.Time

	// Counters for current window
	damageEvents int
	resets       int
	aliveMin     int
	aliveMax     int
	observed     bool
}

// NewCollector creates a new stats collector.
// windowSteps: how many published steps each window spans
// aliveThreshold: alpha above which a cell counts as living
func NewCollector(windowSteps int, aliveThreshold float32) *Collector {
	if windowSteps < 1 {
		windowSteps = 1
	}
	return &Collector{
		windowSteps:     uint64(windowSteps),
		aliveThreshold:  aliveThreshold,
		now:             time.Now,
		windowStartTime: time.Now(),
	}
}

// Observe records one published state with the damage events applied
// before it and whether it came from a reset.
func (c *Collector) Observe(s *grid.State, damageEvents int, reset bool) {
	c.damageEvents += damageEvents
	if reset {
		c.resets++
	}
	alive := s.CountAlive(c.aliveThreshold)
	if !c.observed || alive < c.aliveMin {
		c.aliveMin = alive
	}
	if !c.observed || alive > c.aliveMax {
		c.aliveMax = alive
	}
	c.observed = true
}

// ShouldFlush returns true if enough steps have passed to flush the window.
func (c *Collector) ShouldFlush(step uint64) bool {
	return step >= c.windowStartStep+c.windowSteps
}

// Flush produces a WindowStats from the state at step and resets counters
// for the next window.
func (c *Collector) Flush(step uint64, s *grid.State) WindowStats {
	now := c.now()
	elapsed := now.Sub(c.windowStartTime).Seconds()

	alphas := AlphaValues(s, c.aliveThreshold)
	mean, std, p10, p50, p90 := ComputeAlphaStats(alphas)

	alive := len(alphas)
	aliveMin, aliveMax := c.aliveMin, c.aliveMax
	if !c.observed {
		aliveMin, aliveMax = alive, alive
	}

	var frac float64
	if cells := s.Height * s.Width; cells > 0 {
		frac = float64(alive) / float64(cells)
	}

	var perSec float64
	if elapsed > 0 && step > c.windowStartStep {
		perSec = float64(step-c.windowStartStep) / elapsed
	}

	stats := WindowStats{
		WindowStartStep: c.windowStartStep,
		WindowEndStep:   step,
		ElapsedSec:      elapsed,

		Alive:     alive,
		AliveMin:  aliveMin,
		AliveMax:  aliveMax,
		AliveFrac: frac,

		AlphaMean: mean,
		AlphaStd:  std,
		AlphaP10:  p10,
		AlphaP50:  p50,
		AlphaP90:  p90,

		DamageEvents: c.damageEvents,
		Resets:       c.resets,
		StepsPerSec:  perSec,
	}

	// Reset for next window
	c.windowStartStep = step
	c.windowStartTime = now
	c.damageEvents = 0
	c.resets = 0
	c.observed = false

	return stats
}

// WindowSteps returns the number of steps per window.
func (c *Collector) WindowSteps() uint64 {
	return c.windowSteps
}
