// Package bubble models a single soft bubble: its kinematic state, energy
// bookkeeping and the physics it runs on itself each frame.
package bubble

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Construction defaults.
const (
	DefaultMinRadius = 3.0
	DefaultMaxSpeed  = 300.0
	DefaultDensity   = 400.0
)

// Lifetime bounds in simulated seconds.
const (
	MinLifetime = 60.0
	MaxLifetime = 120.0
)

// Metaball strength never drops below this fraction of its value at birth.
const MinStrengthFactor = 0.3

// DefaultColor is used when no color is supplied.
var DefaultColor = Color{R: 0.4, G: 0.7, B: 1.0}

var (
	ErrInvalidRadius    = errors.New("radius must be positive")
	ErrNonFinite        = errors.New("value is not finite")
	ErrInvalidParameter = errors.New("parameter must be positive")
	ErrNilRand          = errors.New("random source is nil")
)

// Rand is the random source a bubble draws from. *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Mode selects collision behavior.
type Mode uint8

const (
	// ModeSplit bubbles collide, lose energy and divide when depleted.
	ModeSplit Mode = iota
	// ModeOverlap bubbles skip collision detection and pass through each other.
	ModeOverlap
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeSplit:
		return "split"
	case ModeOverlap:
		return "overlap"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Options overrides construction defaults. Zero fields keep the default.
type Options struct {
	MinRadius float64
	MaxSpeed  float64
	Mode      Mode
	Density   float64
	Color     *Color
}

// Bubble is one simulated agent.
type Bubble struct {
	Pos r2.Vec
	Vel r2.Vec

	Radius     float64
	BaseRadius float64 // radius at birth or last split
	MinRadius  float64
	MaxSpeed   float64

	Density         float64
	Weight          float64 // density * pi * r^2
	Resistance      float64 // 0.002 * density * sqrt(r)
	Energy          float64 // capacity, 20 * resistance
	RemainingEnergy float64

	Age       float64
	Lifetime  float64
	LastSplit float64 // age at last split, 0 at birth

	ToSplit   bool
	Exploding bool

	MetaballStrength float64
	Color            Color
	Mode             Mode

	rng Rand
}

// New creates a bubble and derives its weight, resistance and energy.
func New(radius float64, pos, vel r2.Vec, rng Rand, opts Options) (*Bubble, error) {
	if rng == nil {
		return nil, ErrNilRand
	}
	if !finite(radius) {
		return nil, fmt.Errorf("radius %v: %w", radius, ErrNonFinite)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("radius %v: %w", radius, ErrInvalidRadius)
	}
	if !finite(pos.X) || !finite(pos.Y) {
		return nil, fmt.Errorf("position %v: %w", pos, ErrNonFinite)
	}
	if !finite(vel.X) || !finite(vel.Y) {
		return nil, fmt.Errorf("velocity %v: %w", vel, ErrNonFinite)
	}

	minRadius := orDefault(opts.MinRadius, DefaultMinRadius)
	maxSpeed := orDefault(opts.MaxSpeed, DefaultMaxSpeed)
	density := orDefault(opts.Density, DefaultDensity)
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"min radius", minRadius},
		{"max speed", maxSpeed},
		{"density", density},
	} {
		if !finite(p.v) || p.v <= 0 {
			return nil, fmt.Errorf("%s %v: %w", p.name, p.v, ErrInvalidParameter)
		}
	}

	color := DefaultColor
	if opts.Color != nil {
		color = opts.Color.Clamp()
	}

	b := &Bubble{
		Pos:        pos,
		Vel:        vel,
		Radius:     radius,
		BaseRadius: radius,
		MinRadius:  minRadius,
		MaxSpeed:   maxSpeed,
		Density:    density,
		Lifetime:   Uniform(rng, MinLifetime, MaxLifetime),
		Color:      color,
		Mode:       opts.Mode,
		rng:        rng,
	}
	b.derive()
	b.RemainingEnergy = b.Energy
	b.MetaballStrength = b.peakStrength()

	return b, nil
}

// SetRadius changes the radius and re-derives weight, resistance and capacity.
func (b *Bubble) SetRadius(r float64) {
	b.Radius = r
	b.derive()
}

// SetDensity changes the density and re-derives weight, resistance and capacity.
func (b *Bubble) SetDensity(d float64) {
	b.Density = d
	b.derive()
}

// derive recomputes the values that depend on radius and density.
// Remaining energy is capped at the new capacity.
func (b *Bubble) derive() {
	b.Weight = b.Density * math.Pi * b.Radius * b.Radius
	b.Resistance = 0.002 * b.Density * math.Sqrt(b.Radius)
	b.Energy = 20 * b.Resistance
	if b.RemainingEnergy > b.Energy {
		b.RemainingEnergy = b.Energy
	}
}

// Speed returns the velocity magnitude.
func (b *Bubble) Speed() float64 {
	return r2.Norm(b.Vel)
}

// Contains reports whether p lies inside or on the bubble's edge.
func (b *Bubble) Contains(p r2.Vec) bool {
	return r2.Norm(r2.Sub(b.Pos, p)) <= b.Radius
}

// Alive reports whether the bubble survives: young enough, big enough and
// not moving at runaway speed.
func (b *Bubble) Alive() bool {
	return b.Cause() == CauseNone
}

// Cause classifies why a bubble is dead, or CauseNone while it lives.
func (b *Bubble) Cause() Cause {
	switch {
	case b.Age >= b.Lifetime:
		return CauseAge
	case b.Radius <= b.MinRadius:
		return CauseShrunk
	case b.Speed() >= 2*b.MaxSpeed:
		return CauseOverspeed
	default:
		return CauseNone
	}
}

// String summarises the bubble for debugging.
func (b *Bubble) String() string {
	return fmt.Sprintf("bubble{pos=(%.1f, %.1f) vel=(%.1f, %.1f)|%.1f r=%.2f w=%.1f age=%.1f/%.1f mode=%s}",
		b.Pos.X, b.Pos.Y, b.Vel.X, b.Vel.Y, b.Speed(), b.Radius, b.Weight, b.Age, b.Lifetime, b.Mode)
}

// peakStrength is the metaball strength at full vigor.
func (b *Bubble) peakStrength() float64 {
	return b.BaseRadius * b.BaseRadius * 2
}

// Cause is the reason a bubble left the population.
type Cause uint8

const (
	CauseNone Cause = iota
	CauseAge
	CauseShrunk
	CauseOverspeed
	CauseSplitFailed // dropped because it could not be split
)

// String returns the cause name used in logs and CSV headers.
func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseAge:
		return "age"
	case CauseShrunk:
		return "shrunk"
	case CauseOverspeed:
		return "overspeed"
	case CauseSplitFailed:
		return "split_failed"
	default:
		return fmt.Sprintf("cause(%d)", uint8(c))
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
