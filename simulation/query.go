package simulation

import (
	"log/slog"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/bubbles/bubble"
)

// FindBubbleAt returns the largest bubble containing (x, y), or nil.
// Among equal radii the earliest in the population wins.
func (s *Simulation) FindBubbleAt(x, y float64) *bubble.Bubble {
	p := r2.Vec{X: x, Y: y}
	var hit *bubble.Bubble
	for _, b := range s.bubbles {
		if !b.Contains(p) {
			continue
		}
		if hit == nil || b.Radius > hit.Radius {
			hit = b
		}
	}
	return hit
}

// Stats summarizes the population.
type Stats struct {
	Count       int     `csv:"count"`
	MeanRadius  float64 `csv:"mean_radius"`
	MeanSpeed   float64 `csv:"mean_speed"`
	TotalEnergy float64 `csv:"total_energy"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("count", s.Count),
		slog.Float64("mean_radius", s.MeanRadius),
		slog.Float64("mean_speed", s.MeanSpeed),
		slog.Float64("total_energy", s.TotalEnergy),
	)
}

// Stats returns population statistics. An empty population yields zeros.
func (s *Simulation) Stats() Stats {
	n := len(s.bubbles)
	if n == 0 {
		return Stats{}
	}

	radii := make([]float64, n)
	speeds := make([]float64, n)
	energy := make([]float64, n)
	for i, b := range s.bubbles {
		radii[i] = b.Radius
		speeds[i] = b.Speed()
		energy[i] = b.RemainingEnergy
	}

	return Stats{
		Count:       n,
		MeanRadius:  stat.Mean(radii, nil),
		MeanSpeed:   stat.Mean(speeds, nil),
		TotalEnergy: floats.Sum(energy),
	}
}
