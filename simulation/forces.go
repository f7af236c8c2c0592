package simulation

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bubbles/bubble"
)

// updateWind counts up and picks a new random direction and strength once
// the configured interval has passed.
func (s *Simulation) updateWind(dt float64) {
	w := s.cfg.Wind
	s.windTimer += dt
	if s.windTimer > w.Interval {
		s.windDir = bubble.Polar(1, bubble.RandomAngle(s.rng))
		s.windStrength = bubble.Uniform(s.rng, w.StrengthRange.Min, w.StrengthRange.Max)
		s.windTimer = 0
	}
}

// Wind returns the current wind direction (unit vector) and strength.
func (s *Simulation) Wind() (dir r2.Vec, strength float64) {
	return s.windDir, s.windStrength
}

// ApplyWindEffect pushes b along the wind. Small bubbles are pushed harder.
func (s *Simulation) ApplyWindEffect(b *bubble.Bubble, dt float64) {
	effect := s.windStrength * (1 + s.cfg.Wind.SizeBias/b.Radius)
	b.Vel = r2.Add(b.Vel, r2.Scale(effect*dt, s.windDir))
}

// applyTurbulence adds the simulation-wide jitter, wider sideways than the
// one each bubble applies to itself.
func (s *Simulation) applyTurbulence(b *bubble.Bubble, dt float64) {
	t := s.cfg.Turbulence
	b.Vel = r2.Add(b.Vel, r2.Scale(dt, bubble.UniformVec(s.rng, t.X, t.Y)))
}

// ApplyMouseRepulsion pushes b away from the cursor with a slight swirl.
// Bubbles outside the repulsion radius or on top of the cursor are left alone.
// The impulse is sized for one 60 FPS tick regardless of frame time.
func (s *Simulation) ApplyMouseRepulsion(b *bubble.Bubble) {
	r := s.cfg.Repulsion
	away := r2.Sub(b.Pos, s.mouse)
	distance := r2.Norm(away)
	if distance >= s.repulsionRadius || distance <= r.DeadZone {
		return
	}

	falloff := math.Max(r.MinFalloff, distance/s.repulsionRadius)
	force := s.repulsionStrength * (1 - falloff) / (distance + r.Softening)

	dir := r2.Scale(1/distance, away)
	perp := r2.Vec{X: -dir.Y, Y: dir.X}
	b.Vel = r2.Add(b.Vel, r2.Scale(force*r.TickScale, dir))
	b.Vel = r2.Add(b.Vel, r2.Scale(force*r.SwirlScale, perp))
	b.ClampSpeed()
}

// RepulsionStrength returns the current cursor repulsion strength.
func (s *Simulation) RepulsionStrength() float64 {
	return s.repulsionStrength
}

// SetRepulsionStrength sets the repulsion strength, clamped to the configured range.
func (s *Simulation) SetRepulsionStrength(v float64) {
	s.repulsionStrength = clamp(v, s.cfg.Repulsion.MinStrength, s.cfg.Repulsion.MaxStrength)
}

// ScaleRepulsionStrength multiplies the repulsion strength by f.
func (s *Simulation) ScaleRepulsionStrength(f float64) {
	s.SetRepulsionStrength(s.repulsionStrength * f)
}

// RepulsionRadius returns the current cursor repulsion radius.
func (s *Simulation) RepulsionRadius() float64 {
	return s.repulsionRadius
}

// SetRepulsionRadius sets the repulsion radius, clamped to the configured range.
func (s *Simulation) SetRepulsionRadius(v float64) {
	s.repulsionRadius = clamp(v, s.cfg.Repulsion.MinRadius, s.cfg.Repulsion.MaxRadius)
}

// ScaleRepulsionRadius multiplies the repulsion radius by f.
func (s *Simulation) ScaleRepulsionRadius(f float64) {
	s.SetRepulsionRadius(s.repulsionRadius * f)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
