package bubble

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Division parameters.
const (
	SplitRadiusDivisor = 1.4
	SplitOffsetFactor  = 1.5  // offset from the parent center, in new radii
	SplitSpeed         = 50.0 // tangential push along the offset
	SplitRotation      = math.Pi / 4
	SplitEnergyRestore = 0.8 // fraction of capacity restored on the parent
	ColorVariation     = 0.1
)

// Explosion impulse range.
const (
	ExplodeMinForce = 100.0
	ExplodeMaxForce = 200.0
)

// Explode drains the bubble, forces a split on the next lifecycle pass and
// kicks it in a random direction.
func (b *Bubble) Explode() {
	b.Exploding = true
	b.RemainingEnergy = 0
	b.ToSplit = true

	force := Uniform(b.rng, ExplodeMinForce, ExplodeMaxForce)
	b.Vel = r2.Add(b.Vel, Polar(force, RandomAngle(b.rng)))
	b.ClampSpeed()
}

// Split divides the bubble in two. The receiver shrinks in place and moves by
// -offset; the returned child sits at +offset. Both get radius/1.4 and
// velocities rotated 45 degrees apart plus an opposite push along the offset.
func (b *Bubble) Split() (*Bubble, error) {
	newRadius := b.Radius / SplitRadiusDivisor

	var offset r2.Vec
	if r2.Norm(b.Vel) > 0 {
		perp := r2.Vec{X: b.Vel.Y, Y: -b.Vel.X}
		offset = r2.Scale(newRadius*SplitOffsetFactor, r2.Unit(perp))
	} else {
		offset = r2.Vec{X: newRadius * SplitOffsetFactor}
	}
	push := r2.Scale(SplitSpeed, r2.Unit(offset))

	origin := r2.Vec{}
	color := b.Color.Perturb(b.rng, ColorVariation)

	child, err := New(
		newRadius,
		r2.Add(b.Pos, offset),
		r2.Add(r2.Rotate(b.Vel, SplitRotation, origin), push),
		b.rng,
		Options{
			MinRadius: b.MinRadius,
			MaxSpeed:  b.MaxSpeed,
			Mode:      b.Mode,
			Density:   b.Density,
			Color:     &color,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("splitting %v: %w", b, err)
	}

	b.LastSplit = b.Age
	b.BaseRadius = newRadius
	b.Pos = r2.Sub(b.Pos, offset)
	b.Vel = r2.Sub(r2.Rotate(b.Vel, -SplitRotation, origin), push)
	b.SetRadius(newRadius)
	b.RemainingEnergy = b.Energy * SplitEnergyRestore
	b.MetaballStrength = b.peakStrength()
	b.ToSplit = false
	b.Exploding = false

	return child, nil
}
