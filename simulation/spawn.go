package simulation

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bubbles/bubble"
)

// spawnOptions are the parameters of every spawned (non-fragment) bubble.
func (s *Simulation) spawnOptions(color bubble.Color) bubble.Options {
	sp := s.cfg.Spawn
	return bubble.Options{
		MinRadius: sp.MinRadius,
		MaxSpeed:  sp.MaxSpeed,
		Mode:      bubble.ModeSplit,
		Density:   sp.Density,
		Color:     &color,
	}
}

func (s *Simulation) randomColor() bubble.Color {
	return s.palette[s.rng.Intn(len(s.palette))]
}

// AddBubble adds a spawned bubble at (x, y) with a random palette color.
func (s *Simulation) AddBubble(x, y, radius float64, vel r2.Vec) (*bubble.Bubble, error) {
	b, err := bubble.New(radius, r2.Vec{X: x, Y: y}, vel, s.rng, s.spawnOptions(s.randomColor()))
	if err != nil {
		return nil, fmt.Errorf("adding bubble at (%.1f, %.1f): %w", x, y, err)
	}
	s.bubbles = append(s.bubbles, b)
	s.recordBirth(OriginSpawn)
	return b, nil
}

// AddRandomBubble adds a bubble at a random position away from the edges
// with a random size and velocity.
func (s *Simulation) AddRandomBubble() (*bubble.Bubble, error) {
	sp := s.cfg.Spawn
	x := bubble.Uniform(s.rng, sp.Margin, s.width-sp.Margin)
	y := bubble.Uniform(s.rng, sp.Margin, s.height-sp.Margin)
	radius := bubble.Uniform(s.rng, sp.Radius.Min, sp.Radius.Max)
	vel := r2.Vec{
		X: bubble.Uniform(s.rng, sp.SpeedX.Min, sp.SpeedX.Max),
		Y: bubble.Uniform(s.rng, sp.SpeedY.Min, sp.SpeedY.Max),
	}
	return s.AddBubble(x, y, radius, vel)
}

// AddBubbleAtMouse adds a bubble a short random distance from (x, y),
// moving away from it.
func (s *Simulation) AddBubbleAtMouse(x, y float64) (*bubble.Bubble, error) {
	ms := s.cfg.MouseSpawn
	offset := bubble.Polar(bubble.Uniform(s.rng, ms.Offset.Min, ms.Offset.Max), bubble.RandomAngle(s.rng))
	jitter := r2.Vec{
		X: bubble.Uniform(s.rng, ms.JitterX.Min, ms.JitterX.Max),
		Y: bubble.Uniform(s.rng, ms.JitterY.Min, ms.JitterY.Max),
	}
	vel := r2.Add(r2.Scale(ms.AwayFactor, offset), jitter)
	radius := bubble.Uniform(s.rng, ms.Radius.Min, ms.Radius.Max)
	return s.AddBubble(x+offset.X, y+offset.Y, radius, vel)
}

// AddBubbleExplosion adds count bubbles in a jittered ring around (x, y),
// each flying outward.
func (s *Simulation) AddBubbleExplosion(x, y float64, count int) error {
	bc := s.cfg.Burst
	center := r2.Vec{X: x, Y: y}
	for i := 0; i < count; i++ {
		angle := 2*math.Pi*float64(i)/float64(count) + bubble.Uniform(s.rng, -bc.AngleJitter, bc.AngleJitter)
		distance := bubble.Uniform(s.rng, bc.Distance.Min, bc.Distance.Max)
		pos := r2.Add(center, bubble.Polar(distance, angle))

		speed := bubble.Uniform(s.rng, bc.Speed.Min, bc.Speed.Max)
		radius := bubble.Uniform(s.rng, bc.Radius.Min, bc.Radius.Max)
		if _, err := s.AddBubble(pos.X, pos.Y, radius, bubble.Polar(speed, angle)); err != nil {
			return fmt.Errorf("burst %d/%d: %w", i+1, count, err)
		}
	}
	return nil
}

// ExplodeBubbleAt replaces the bubble under (x, y) with a spray of fragments.
// It returns false if no bubble is there.
func (s *Simulation) ExplodeBubbleAt(x, y float64) bool {
	b := s.FindBubbleAt(x, y)
	if b == nil {
		return false
	}

	s.addFragments(b.Pos, b.Radius, b.Color)
	s.remove(b)
	if s.recorder != nil {
		s.recorder.RecordPop()
	}
	return true
}

// addFragments sprays a random number of small, light bubbles around pos.
func (s *Simulation) addFragments(pos r2.Vec, radius float64, color bubble.Color) {
	fc := s.cfg.Fragments
	lo, hi := int(fc.Count.Min), int(fc.Count.Max)
	n := lo + s.rng.Intn(hi-lo+1)

	for i := 0; i < n; i++ {
		offset := bubble.Polar(bubble.Uniform(s.rng, 0, radius*fc.Spread), bubble.RandomAngle(s.rng))
		vel := bubble.Polar(bubble.Uniform(s.rng, fc.Speed.Min, fc.Speed.Max), bubble.RandomAngle(s.rng))
		r := bubble.Uniform(s.rng, fc.MinSize, radius*fc.RadiusFraction)
		c := color.Perturb(s.rng, fc.ColorVariation)

		frag, err := bubble.New(r, r2.Add(pos, offset), vel, s.rng, bubble.Options{
			MinRadius: fc.MinRadius,
			MaxSpeed:  fc.MaxSpeed,
			Mode:      bubble.ModeSplit,
			Density:   fc.Density,
			Color:     &c,
		})
		if err != nil {
			slog.Warn("fragment_failed", "error", err)
			continue
		}
		s.bubbles = append(s.bubbles, frag)
		s.recordBirth(OriginFragment)
	}
}

// DetonateBubbleAt drains and kicks the bubble under (x, y) so it splits on
// the next Update. It returns false if no bubble is there.
func (s *Simulation) DetonateBubbleAt(x, y float64) bool {
	b := s.FindBubbleAt(x, y)
	if b == nil {
		return false
	}
	b.Explode()
	if s.recorder != nil {
		s.recorder.RecordPop()
	}
	return true
}

// ExplodeOrSpawnAt explodes the bubble under (x, y), or adds a new bubble
// there if none is hit. It reports whether a bubble exploded.
func (s *Simulation) ExplodeOrSpawnAt(x, y float64) (bool, error) {
	if s.ExplodeBubbleAt(x, y) {
		return true, nil
	}
	_, err := s.AddBubbleAtMouse(x, y)
	return false, err
}

// remove drops b from the population, keeping order.
func (s *Simulation) remove(b *bubble.Bubble) {
	for i, other := range s.bubbles {
		if other == b {
			copy(s.bubbles[i:], s.bubbles[i+1:])
			s.bubbles[len(s.bubbles)-1] = nil
			s.bubbles = s.bubbles[:len(s.bubbles)-1]
			return
		}
	}
}
