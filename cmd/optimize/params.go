// Package main provides CMA-ES optimization for bubble simulation parameters.
package main

import (
	"github.com/pthm-cable/bubbles/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Population
			{Name: "spawn_rate", Path: "population.spawn_rate", Min: 0.01, Max: 1.0, Default: 0.08},
			// Spawned bubbles
			{Name: "spawn_density", Path: "spawn.density", Min: 50, Max: 500, Default: 200},
			{Name: "spawn_max_speed", Path: "spawn.max_speed", Min: 200, Max: 800, Default: 400},
			// Fragments
			{Name: "fragment_density", Path: "fragments.density", Min: 50, Max: 500, Default: 150},
			{Name: "fragment_radius_fraction", Path: "fragments.radius_fraction", Min: 0.2, Max: 0.7, Default: 0.4},
			// Environment
			{Name: "wind_size_bias", Path: "wind.size_bias", Min: 0, Max: 60, Default: 20},
			{Name: "turbulence_x", Path: "turbulence.x", Min: 0, Max: 150, Default: 50},
			{Name: "turbulence_y", Path: "turbulence.y", Min: 0, Max: 150, Default: 25},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	c := pv.Clamp(values)

	cfg.Population.SpawnRate = c[0]
	cfg.Spawn.Density = c[1]
	cfg.Spawn.MaxSpeed = c[2]
	cfg.Fragments.Density = c[3]
	cfg.Fragments.RadiusFraction = c[4]
	cfg.Wind.SizeBias = c[5]
	cfg.Turbulence.X = c[6]
	cfg.Turbulence.Y = c[7]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Population.SpawnRate,
		cfg.Spawn.Density,
		cfg.Spawn.MaxSpeed,
		cfg.Fragments.Density,
		cfg.Fragments.RadiusFraction,
		cfg.Wind.SizeBias,
		cfg.Turbulence.X,
		cfg.Turbulence.Y,
	}
}
