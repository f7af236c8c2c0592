package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bubbles/bubble"
)

// Spark is a short-lived particle thrown off by a popped bubble.
type Spark struct {
	Pos, Vel r2.Vec
	Life     float64
	MaxLife  float64
	Size     float32
	Color    bubble.Color
}

// Spark tuning.
const (
	sparksPerPop  = 14
	sparkMinSpeed = 60.0
	sparkMaxSpeed = 220.0
	sparkLife     = 0.6
	sparkDrag     = 2.5
)

// Sparks renders pop effects. Positions are in simulation space (y up).
type Sparks struct {
	sparks []Spark
	height float32
}

// NewSparks creates an effect layer for a screen of the given height.
func NewSparks(screenHeight int32) *Sparks {
	return &Sparks{height: float32(screenHeight)}
}

// Emit throws a ring of sparks from the rim of a popped bubble.
func (s *Sparks) Emit(pos r2.Vec, radius float64, color bubble.Color, rng bubble.Rand) {
	for i := 0; i < sparksPerPop; i++ {
		dir := bubble.Polar(1, bubble.RandomAngle(rng))
		s.sparks = append(s.sparks, Spark{
			Pos:     r2.Add(pos, r2.Scale(radius*0.8, dir)),
			Vel:     r2.Scale(bubble.Uniform(rng, sparkMinSpeed, sparkMaxSpeed), dir),
			Life:    sparkLife,
			MaxLife: sparkLife,
			Size:    float32(bubble.Uniform(rng, 1.5, 3.5)),
			Color:   color,
		})
	}
}

// Update moves the sparks and drops expired ones.
func (s *Sparks) Update(dt float64) {
	alive := s.sparks[:0]
	for _, p := range s.sparks {
		p.Life -= dt
		if p.Life <= 0 {
			continue
		}
		p.Vel = r2.Scale(1-sparkDrag*dt, p.Vel)
		p.Pos = r2.Add(p.Pos, r2.Scale(dt, p.Vel))
		alive = append(alive, p)
	}
	clear(s.sparks[len(alive):])
	s.sparks = alive
}

// Len returns the number of live sparks.
func (s *Sparks) Len() int {
	return len(s.sparks)
}

// Draw renders all sparks, fading with age.
func (s *Sparks) Draw() {
	for i := range s.sparks {
		p := &s.sparks[i]

		lifeRatio := float32(p.Life / p.MaxLife)
		color := rl.Color{
			R: uint8(p.Color.R * 255),
			G: uint8(p.Color.G * 255),
			B: uint8(p.Color.B * 255),
			A: uint8(lifeRatio * 220),
		}

		size := p.Size * lifeRatio
		if size < 0.5 {
			size = 0.5
		}
		rl.DrawCircle(int32(p.Pos.X), int32(s.height-float32(p.Pos.Y)), size, color)
	}
}
