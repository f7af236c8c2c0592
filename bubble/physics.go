package bubble

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Self-applied forces.
const (
	Buoyancy        = 80.0 // upward force, divided by weight
	TurbulenceX     = 20.0
	TurbulenceY     = 10.0
	DragCoefficient = 0.05
)

// Collision response.
const (
	Restitution = 0.8
	// Each bubble is debited this fraction of the counterparty's lost energy.
	EnergyDebitFactor = 0.5
)

// Split eligibility, checked on every qualifying collision.
const (
	SplitRadiusFactor = 3.0 // radius must exceed min radius times this
	SplitEnergyFactor = 0.5 // remaining energy must fall below resistance times this
	SplitGrace        = 1.0 // seconds after birth
	SplitCooldown     = 2.0 // seconds since last split
	SplitChance       = 0.3
)

// Update advances the bubble by dt against the frame's population and
// reports whether it is still alive.
//
// Collisions are tested from the tentative position but only change
// velocities; overlap is not resolved geometrically. Every pair is visited
// from both sides, so each contact impulse fires twice per frame.
func (b *Bubble) Update(all []*Bubble, dt float64) bool {
	b.Age += dt

	// Lighter bubbles rise faster
	b.Vel.Y += Buoyancy * dt / b.Weight

	b.Vel = r2.Add(b.Vel, r2.Scale(dt, UniformVec(b.rng, TurbulenceX, TurbulenceY)))

	// Quadratic drag
	drag := r2.Scale(-DragCoefficient*b.Speed(), b.Vel)
	b.Vel = r2.Add(b.Vel, r2.Scale(dt, drag))

	next := r2.Add(b.Pos, r2.Scale(dt, b.Vel))

	if b.Mode != ModeOverlap {
		for _, other := range all {
			if other == b {
				continue
			}
			d := r2.Norm(r2.Sub(next, other.Pos))
			if d <= b.Radius+other.Radius {
				b.Collide(other, d)
			}
		}
	}

	b.Pos = next
	b.MetaballStrength = b.peakStrength() * math.Max(MinStrengthFactor, 1-b.Age/b.Lifetime)

	return b.Alive()
}

// Collide resolves a contact with other at the given center distance. Both
// velocities change. In split mode each side is debited half of the energy
// the other side lost and may be marked for splitting.
func (b *Bubble) Collide(other *Bubble, distance float64) {
	if distance == 0 {
		return
	}

	rel := r2.Sub(b.Vel, other.Vel)
	normal := r2.Scale(1/distance, r2.Sub(b.Pos, other.Pos))
	closing := r2.Dot(rel, normal)
	if closing >= 0 {
		return
	}

	m1, m2 := b.Weight, other.Weight
	v1, v2 := b.Speed(), other.Speed()

	newA := r2.Sub(b.Vel, r2.Scale((1+Restitution)*(m2/(m1+m2))*closing, normal))
	newB := r2.Add(other.Vel, r2.Scale((1+Restitution)*(m1/(m1+m2))*closing, normal))
	newA = clampComponents(newA, b.MaxSpeed)
	newB = clampComponents(newB, other.MaxSpeed)

	if b.Mode == ModeSplit {
		lostA := 0.5 * m1 * (v1*v1 - r2.Norm2(newA))
		lostB := 0.5 * m2 * (v2*v2 - r2.Norm2(newB))

		// Cross-attributed: self pays for what other lost and vice versa.
		b.absorb(lostB)
		other.absorb(lostA)
	}

	b.Vel = newA
	other.Vel = newB
}

// absorb debits transferred collision energy and marks the bubble for
// splitting when it is large, drained, past its grace period and off
// cooldown, with SplitChance probability.
func (b *Bubble) absorb(transferred float64) {
	if transferred > 0 {
		b.RemainingEnergy -= transferred * EnergyDebitFactor
	}

	if b.Radius > b.MinRadius*SplitRadiusFactor &&
		b.RemainingEnergy < b.Resistance*SplitEnergyFactor &&
		b.Age > SplitGrace &&
		b.Age-b.LastSplit > SplitCooldown &&
		b.rng.Float64() < SplitChance {
		b.ToSplit = true
	}
}

// clampComponents limits each component to [-limit, limit].
func clampComponents(v r2.Vec, limit float64) r2.Vec {
	return r2.Vec{
		X: math.Max(-limit, math.Min(limit, v.X)),
		Y: math.Max(-limit, math.Min(limit, v.Y)),
	}
}

// clampMagnitude scales v down to at most limit.
func clampMagnitude(v r2.Vec, limit float64) r2.Vec {
	if n := r2.Norm(v); n > limit {
		return r2.Scale(limit/n, v)
	}
	return v
}

// ClampSpeed scales the velocity down to the bubble's max speed.
func (b *Bubble) ClampSpeed() {
	b.Vel = clampMagnitude(b.Vel, b.MaxSpeed)
}
