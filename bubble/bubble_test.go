package bubble

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

// fixedRand returns the same draw every time. 0.5 makes every symmetric
// uniform range yield zero.
type fixedRand struct{ v float64 }

func (f fixedRand) Float64() float64 { return f.v }
func (f fixedRand) Intn(n int) int  { return int(f.v * float64(n)) }

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func mustNew(t *testing.T, radius float64, pos, vel r2.Vec, rng Rand, opts Options) *Bubble {
	t.Helper()
	b, err := New(radius, pos, vel, rng, opts)
	if err != nil {
		t.Fatalf("New(%v) failed: %v", radius, err)
	}
	return b
}

func TestNew_DerivedValues(t *testing.T) {
	b := mustNew(t, 30, r2.Vec{X: 100, Y: 100}, r2.Vec{}, fixedRand{0.5}, Options{Density: 200})

	wantWeight := 200 * math.Pi * 30 * 30
	wantResistance := 0.002 * 200 * math.Sqrt(30)

	if !approx(b.Weight, wantWeight, 1e-6) {
		t.Errorf("Weight = %f, want %f", b.Weight, wantWeight)
	}
	if !approx(b.Resistance, wantResistance, 1e-9) {
		t.Errorf("Resistance = %f, want %f", b.Resistance, wantResistance)
	}
	if !approx(b.Energy, 20*wantResistance, 1e-9) {
		t.Errorf("Energy = %f, want %f", b.Energy, 20*wantResistance)
	}
	if b.RemainingEnergy != b.Energy {
		t.Errorf("RemainingEnergy = %f, want full capacity %f", b.RemainingEnergy, b.Energy)
	}
	if b.Lifetime != 90 {
		t.Errorf("Lifetime = %f, want 90 for a 0.5 draw", b.Lifetime)
	}
	if b.MinRadius != DefaultMinRadius || b.MaxSpeed != DefaultMaxSpeed {
		t.Errorf("defaults not applied: min=%f max=%f", b.MinRadius, b.MaxSpeed)
	}
	if b.Color != DefaultColor {
		t.Errorf("Color = %v, want default %v", b.Color, DefaultColor)
	}
	if b.Mode != ModeSplit {
		t.Errorf("Mode = %s, want split", b.Mode)
	}
	if b.MetaballStrength != 30*30*2 {
		t.Errorf("MetaballStrength = %f, want %f", b.MetaballStrength, 30.0*30*2)
	}
}

func TestNew_LifetimeRange(t *testing.T) {
	for _, v := range []float64{0, 0.25, 0.999} {
		b := mustNew(t, 10, r2.Vec{}, r2.Vec{}, fixedRand{v}, Options{})
		if b.Lifetime < MinLifetime || b.Lifetime >= MaxLifetime {
			t.Errorf("draw %v: lifetime %f outside [%v, %v)", v, b.Lifetime, MinLifetime, MaxLifetime)
		}
	}
}

func TestNew_Validation(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	tests := []struct {
		name   string
		radius float64
		pos    r2.Vec
		vel    r2.Vec
		rng    Rand
		opts   Options
		want   error
	}{
		{"zero radius", 0, r2.Vec{}, r2.Vec{}, fixedRand{0.5}, Options{}, ErrInvalidRadius},
		{"negative radius", -4, r2.Vec{}, r2.Vec{}, fixedRand{0.5}, Options{}, ErrInvalidRadius},
		{"nan radius", nan, r2.Vec{}, r2.Vec{}, fixedRand{0.5}, Options{}, ErrNonFinite},
		{"inf position", 10, r2.Vec{X: inf}, r2.Vec{}, fixedRand{0.5}, Options{}, ErrNonFinite},
		{"nan velocity", 10, r2.Vec{}, r2.Vec{Y: nan}, fixedRand{0.5}, Options{}, ErrNonFinite},
		{"negative density", 10, r2.Vec{}, r2.Vec{}, fixedRand{0.5}, Options{Density: -1}, ErrInvalidParameter},
		{"negative max speed", 10, r2.Vec{}, r2.Vec{}, fixedRand{0.5}, Options{MaxSpeed: -300}, ErrInvalidParameter},
		{"nil rand", 10, r2.Vec{}, r2.Vec{}, nil, Options{}, ErrNilRand},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b, err := New(tc.radius, tc.pos, tc.vel, tc.rng, tc.opts)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if b != nil {
				t.Error("expected nil bubble on error")
			}
		})
	}
}

func TestNew_ClampsColor(t *testing.T) {
	c := Color{R: 1.5, G: -0.2, B: 0.5}
	b := mustNew(t, 10, r2.Vec{}, r2.Vec{}, fixedRand{0.5}, Options{Color: &c})
	want := Color{R: 1, G: 0, B: 0.5}
	if b.Color != want {
		t.Errorf("Color = %v, want %v", b.Color, want)
	}
}

func TestSetRadiusAndDensity_Rederive(t *testing.T) {
	b := mustNew(t, 30, r2.Vec{}, r2.Vec{}, fixedRand{0.5}, Options{})

	b.SetRadius(12)
	b.SetDensity(150)

	if !approx(b.Weight, 150*math.Pi*12*12, 1e-6) {
		t.Errorf("Weight = %f, want %f", b.Weight, 150*math.Pi*12*12)
	}
	if !approx(b.Resistance, 0.002*150*math.Sqrt(12), 1e-9) {
		t.Errorf("Resistance = %f, want %f", b.Resistance, 0.002*150*math.Sqrt(12))
	}
	if b.RemainingEnergy > b.Energy {
		t.Errorf("RemainingEnergy %f exceeds capacity %f", b.RemainingEnergy, b.Energy)
	}
}

func TestCause(t *testing.T) {
	tests := []struct {
		name  string
		setup func(b *Bubble)
		want  Cause
	}{
		{"healthy", func(b *Bubble) {}, CauseNone},
		{"old", func(b *Bubble) { b.Age = b.Lifetime }, CauseAge},
		{"shrunk", func(b *Bubble) { b.SetRadius(b.MinRadius) }, CauseShrunk},
		{"overspeed", func(b *Bubble) { b.Vel = r2.Vec{X: 2 * b.MaxSpeed} }, CauseOverspeed},
		{"just under overspeed", func(b *Bubble) { b.Vel = r2.Vec{X: 2*b.MaxSpeed - 1} }, CauseNone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := mustNew(t, 20, r2.Vec{}, r2.Vec{}, fixedRand{0.5}, Options{})
			tc.setup(b)
			if got := b.Cause(); got != tc.want {
				t.Errorf("Cause() = %s, want %s", got, tc.want)
			}
			if b.Alive() != (tc.want == CauseNone) {
				t.Errorf("Alive() = %v inconsistent with cause %s", b.Alive(), tc.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	b := mustNew(t, 10, r2.Vec{X: 5, Y: 5}, r2.Vec{}, fixedRand{0.5}, Options{})
	if !b.Contains(r2.Vec{X: 15, Y: 5}) {
		t.Error("point on the edge should be inside")
	}
	if b.Contains(r2.Vec{X: 15.1, Y: 5}) {
		t.Error("point past the edge should be outside")
	}
}

func TestColorPerturb(t *testing.T) {
	c := Color{R: 0.95, G: 0.5, B: 0.02}

	if got := c.Perturb(fixedRand{0.5}, 0.1); got != c {
		t.Errorf("zero perturbation changed color: %v", got)
	}

	up := c.Perturb(fixedRand{0.999}, 0.1)
	if up.R != 1 {
		t.Errorf("R = %f, want clamped to 1", up.R)
	}
	down := c.Perturb(fixedRand{0}, 0.1)
	if down.B != 0 {
		t.Errorf("B = %f, want clamped to 0", down.B)
	}
	if math.Abs(float64(down.G)-0.4) > 1e-6 {
		t.Errorf("G = %f, want 0.4", down.G)
	}
}
