package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartSec float64 `csv:"-"`
	SimTimeSec     float64 `csv:"sim_time"`
	Ticks          int     `csv:"ticks"`

	// Population at window end
	Count     int `csv:"count"`
	Exploding int `csv:"exploding"`

	// Births during window, by origin
	SpawnBirths    int `csv:"births_spawn"`
	SplitBirths    int `csv:"births_split"`
	FragmentBirths int `csv:"births_fragment"`

	// Removals during window
	AgeDeaths         int `csv:"deaths_age"`
	ShrunkDeaths      int `csv:"deaths_shrunk"`
	OverspeedDeaths   int `csv:"deaths_overspeed"`
	SplitFailedDeaths int `csv:"deaths_split_failed"`
	Pops              int `csv:"pops"`
	Evictions         int `csv:"evictions"`

	// Size distribution (sampled at window end)
	RadiusMean float64 `csv:"radius_mean"`
	RadiusP10  float64 `csv:"radius_p10"`
	RadiusP50  float64 `csv:"radius_p50"`
	RadiusP90  float64 `csv:"radius_p90"`

	// Speed distribution
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Remaining energy
	EnergyTotal float64 `csv:"energy_total"`
	EnergyMean  float64 `csv:"energy_mean"`
	EnergyP10   float64 `csv:"energy_p10"`
	EnergyP50   float64 `csv:"energy_p50"`
}

// Births returns all births in the window.
func (s WindowStats) Births() int {
	return s.SpawnBirths + s.SplitBirths + s.FragmentBirths
}

// Deaths returns all natural deaths in the window.
func (s WindowStats) Deaths() int {
	return s.AgeDeaths + s.ShrunkDeaths + s.OverspeedDeaths + s.SplitFailedDeaths
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean and percentiles from a set of values.
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	// Sort a copy for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("window_start", s.WindowStartSec),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("ticks", s.Ticks),
		slog.Int("count", s.Count),
		slog.Int("exploding", s.Exploding),
		slog.Int("births_spawn", s.SpawnBirths),
		slog.Int("births_split", s.SplitBirths),
		slog.Int("births_fragment", s.FragmentBirths),
		slog.Int("deaths_age", s.AgeDeaths),
		slog.Int("deaths_shrunk", s.ShrunkDeaths),
		slog.Int("deaths_overspeed", s.OverspeedDeaths),
		slog.Int("deaths_split_failed", s.SplitFailedDeaths),
		slog.Int("pops", s.Pops),
		slog.Int("evictions", s.Evictions),
		slog.Float64("radius_mean", s.RadiusMean),
		slog.Float64("radius_p10", s.RadiusP10),
		slog.Float64("radius_p50", s.RadiusP50),
		slog.Float64("radius_p90", s.RadiusP90),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("energy_total", s.EnergyTotal),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
