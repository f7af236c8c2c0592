package main

import (
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/bubbles/config"
	"github.com/pthm-cable/bubbles/simulation"
	"github.com/pthm-cable/bubbles/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxSec     float64
	seeds      []int64
	baseConfig *config.Config
	target     float64 // desired mean bubble count

	mu          sync.Mutex
	bestFitness float64
	bestWindows []telemetry.WindowStats
	lastQuality float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxSec float64, seeds []int64, target float64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxSec:      maxSec,
		seeds:       seeds,
		baseConfig:  baseCfg,
		target:      target,
		bestFitness: math.Inf(1),
	}
}

// BestWindows returns the window stats of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestWindows() []telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestWindows
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	quality float64
	windows []telemetry.WindowStats
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated mean quality across seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows := fe.runSimulation(x, s)
			results[idx] = seedResult{
				quality: computeQuality(windows, fe.target),
				windows: windows,
			}
		}(i, seed)
	}
	wg.Wait()

	var total float64
	best := -1.0
	var bestWindows []telemetry.WindowStats
	for _, r := range results {
		total += r.quality
		if r.quality > best {
			best = r.quality
			bestWindows = r.windows
		}
	}
	quality := total / float64(len(fe.seeds))
	fitness := -quality

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestWindows = bestWindows
	}
	fe.lastQuality = quality
	fe.mu.Unlock()

	return fitness
}

// runSimulation executes a single headless run and returns its windows.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) []telemetry.WindowStats {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	sim := simulation.New(cfg, rand.New(rand.NewSource(seed)))
	collector := telemetry.NewCollector(cfg.Telemetry.StatsWindow)
	sim.SetRecorder(collector)
	if err := sim.Reset(); err != nil {
		return nil
	}

	var windows []telemetry.WindowStats
	dt := cfg.Physics.DT
	for t := 0.0; t < fe.maxSec; t += dt {
		sim.Update(dt)
		collector.Advance(dt)
		if collector.ShouldFlush() {
			windows = append(windows, collector.Flush(sim.Bubbles()))
		}
	}
	return windows
}

// copyConfig returns a copy of the base config that evaluations may mutate.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Spawn.Palette = append([][3]float32(nil), fe.baseConfig.Spawn.Palette...)
	return &cfg
}

// Quality component weights.
const (
	qualityWeightOccupancy = 0.40
	qualityWeightStability = 0.25
	qualityWeightPressure  = 0.20
	qualityWeightVariety   = 0.15

	qualityWarmupWindows = 2 // skip first N windows (warmup)
)

// computeQuality scores a run in [0, 1]: the population should sit near the
// target count, hold steady, rarely hit the cap and keep a spread
// of sizes.
func computeQuality(windows []telemetry.WindowStats, target float64) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	counts := make([]float64, 0, len(valid))
	var occSum, varietySum float64
	var births, evictions int
	for _, w := range valid {
		if w.Count == 0 {
			// Extinct windows count against occupancy
			counts = append(counts, 0)
			continue
		}
		counts = append(counts, float64(w.Count))
		if w.RadiusMean > 0 {
			spread := (w.RadiusP90 - w.RadiusP10) / w.RadiusMean
			varietySum += 1 - math.Exp(-spread*2)
		}
		births += w.Births()
		evictions += w.Evictions
	}

	n := float64(len(valid))
	for _, c := range counts {
		occSum += c
	}
	meanCount := occSum / n

	return clamp01(
		qualityWeightOccupancy*occupancyScore(meanCount, target) +
			qualityWeightStability*stabilityScore(counts) +
			qualityWeightPressure*pressureScore(births, evictions) +
			qualityWeightVariety*varietySum/n,
	)
}

// occupancyScore peaks when the mean count equals target bubbles.
func occupancyScore(meanCount, target float64) float64 {
	if target <= 0 {
		return 0
	}
	e := (meanCount - target) / (0.25 * target)
	return math.Exp(-e * e)
}

// stabilityScore falls off with the coefficient of variation of the counts.
func stabilityScore(counts []float64) float64 {
	if len(counts) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(counts, nil)
	if mean == 0 {
		return 0
	}
	cv := std / mean
	return math.Exp(-cv * cv)
}

// pressureScore is the share of births that did not push a bubble off the cap.
func pressureScore(births, evictions int) float64 {
	if births == 0 {
		return 0
	}
	return clamp01(1 - float64(evictions)/float64(births))
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}
