// Package telemetry provides windowed population statistics, performance
// timing, bookmarks and CSV output for the bubble simulation.
package telemetry

import (
	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/bubbles/bubble"
	"github.com/pthm-cable/bubbles/simulation"
)

// Collector accumulates population events within time windows and produces
// WindowStats. It implements simulation.Recorder.
type Collector struct {
	windowDurationSec float64

	// Current window tracking
	windowStartSec float64
	simTimeSec     float64
	ticks          int

	// Event counters for current window
	spawnBirths       int
	splitBirths       int
	fragmentBirths    int
	ageDeaths         int
	shrunkDeaths      int
	overspeedDeaths   int
	splitFailedDeaths int
	pops              int
	evictions         int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds.
func NewCollector(windowDurationSec float64) *Collector {
	if windowDurationSec <= 0 {
		windowDurationSec = 10
	}
	return &Collector{
		windowDurationSec: windowDurationSec,
	}
}

// Advance adds one simulation step of dt seconds to the current window.
func (c *Collector) Advance(dt float64) {
	c.simTimeSec += dt
	c.ticks++
}

// RecordBirth records a bubble entering the population.
func (c *Collector) RecordBirth(origin simulation.Origin) {
	switch origin {
	case simulation.OriginSplit:
		c.splitBirths++
	case simulation.OriginFragment:
		c.fragmentBirths++
	default:
		c.spawnBirths++
	}
}

// RecordDeath records a bubble dropped by the lifecycle pass.
func (c *Collector) RecordDeath(cause bubble.Cause) {
	switch cause {
	case bubble.CauseAge:
		c.ageDeaths++
	case bubble.CauseShrunk:
		c.shrunkDeaths++
	case bubble.CauseOverspeed:
		c.overspeedDeaths++
	case bubble.CauseSplitFailed:
		c.splitFailedDeaths++
	}
}

// RecordPop records a bubble exploded by the user.
func (c *Collector) RecordPop() {
	c.pops++
}

// RecordEviction records bubbles removed to honor the population cap.
func (c *Collector) RecordEviction(n int) {
	c.evictions += n
}

// ShouldFlush returns true once the current window has lasted long enough.
func (c *Collector) ShouldFlush() bool {
	return c.simTimeSec-c.windowStartSec >= c.windowDurationSec
}

// SimTime returns the total simulated time seen by the collector.
func (c *Collector) SimTime() float64 {
	return c.simTimeSec
}

// Flush produces a WindowStats from the counters and the population at
// window end, then resets the counters for the next window.
func (c *Collector) Flush(bubbles []*bubble.Bubble) WindowStats {
	n := len(bubbles)
	radii := make([]float64, n)
	speeds := make([]float64, n)
	energies := make([]float64, n)
	var exploding int
	for i, b := range bubbles {
		radii[i] = b.Radius
		speeds[i] = b.Speed()
		energies[i] = b.RemainingEnergy
		if b.Exploding {
			exploding++
		}
	}

	radiusMean, radiusP10, radiusP50, radiusP90 := ComputeDistribution(radii)
	speedMean, _, speedP50, speedP90 := ComputeDistribution(speeds)
	energyMean, energyP10, energyP50, _ := ComputeDistribution(energies)

	stats := WindowStats{
		WindowStartSec: c.windowStartSec,
		SimTimeSec:     c.simTimeSec,
		Ticks:          c.ticks,

		Count:     n,
		Exploding: exploding,

		SpawnBirths:    c.spawnBirths,
		SplitBirths:    c.splitBirths,
		FragmentBirths: c.fragmentBirths,

		AgeDeaths:         c.ageDeaths,
		ShrunkDeaths:      c.shrunkDeaths,
		OverspeedDeaths:   c.overspeedDeaths,
		SplitFailedDeaths: c.splitFailedDeaths,
		Pops:              c.pops,
		Evictions:         c.evictions,

		RadiusMean: radiusMean,
		RadiusP10:  radiusP10,
		RadiusP50:  radiusP50,
		RadiusP90:  radiusP90,

		SpeedMean: speedMean,
		SpeedP50:  speedP50,
		SpeedP90:  speedP90,

		EnergyTotal: floats.Sum(energies),
		EnergyMean:  energyMean,
		EnergyP10:   energyP10,
		EnergyP50:   energyP50,
	}

	// Reset for next window
	c.windowStartSec = c.simTimeSec
	c.ticks = 0
	c.spawnBirths = 0
	c.splitBirths = 0
	c.fragmentBirths = 0
	c.ageDeaths = 0
	c.shrunkDeaths = 0
	c.overspeedDeaths = 0
	c.splitFailedDeaths = 0
	c.pops = 0
	c.evictions = 0

	return stats
}

// WindowDuration returns the window length in simulated seconds.
func (c *Collector) WindowDuration() float64 {
	return c.windowDurationSec
}
