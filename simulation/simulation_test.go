package simulation

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bubbles/bubble"
	"github.com/pthm-cable/bubbles/config"
)

// countingRecorder tallies population events.
type countingRecorder struct {
	births    map[Origin]int
	deaths    map[bubble.Cause]int
	pops      int
	evictions int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		births: make(map[Origin]int),
		deaths: make(map[bubble.Cause]int),
	}
}

func (r *countingRecorder) RecordBirth(o Origin)       { r.births[o]++ }
func (r *countingRecorder) RecordDeath(c bubble.Cause) { r.deaths[c]++ }
func (r *countingRecorder) RecordPop()                 { r.pops++ }
func (r *countingRecorder) RecordEviction(n int)       { r.evictions += n }

type phaseLog []string

func (p *phaseLog) StartPhase(name string) { *p = append(*p, name) }

// newTestSim builds a simulation on a private copy of the defaults with
// random spawning disabled.
func newTestSim(t *testing.T, mutate func(*config.Config)) *Simulation {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Population.SpawnRate = 0
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, rand.New(rand.NewSource(42)))
}

func mustAdd(t *testing.T, s *Simulation, x, y, radius float64, vel r2.Vec) *bubble.Bubble {
	t.Helper()
	b, err := s.AddBubble(x, y, radius, vel)
	if err != nil {
		t.Fatalf("AddBubble failed: %v", err)
	}
	return b
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestNew_Defaults(t *testing.T) {
	s := newTestSim(t, nil)

	if s.Count() != 0 {
		t.Errorf("Count() = %d, want empty", s.Count())
	}
	dir, strength := s.Wind()
	if dir != (r2.Vec{X: 1}) || strength != 30 {
		t.Errorf("Wind() = %v, %f, want (1,0), 30", dir, strength)
	}
	if s.RepulsionStrength() != 15000 || s.RepulsionRadius() != 150 {
		t.Errorf("repulsion = %f/%f, want 15000/150", s.RepulsionStrength(), s.RepulsionRadius())
	}
	if s.MousePosition() != (r2.Vec{X: 640, Y: 360}) {
		t.Errorf("MousePosition() = %v, want screen center", s.MousePosition())
	}
}

func TestNew_NilRandFallsBack(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	s := New(cfg, nil)
	if _, err := s.AddRandomBubble(); err != nil {
		t.Fatalf("AddRandomBubble with fallback rand failed: %v", err)
	}
}

func TestReset_SeedsInitialPopulation(t *testing.T) {
	s := newTestSim(t, nil)
	s.SetRepulsionRadius(300)
	mustAdd(t, s, 10, 10, 10, r2.Vec{})

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset() failed: %v", err)
	}

	if s.Count() != 12 {
		t.Errorf("Count() = %d, want 12", s.Count())
	}
	if s.RepulsionRadius() != 150 {
		t.Errorf("RepulsionRadius() = %f, want restored to 150", s.RepulsionRadius())
	}
	w, h := s.Size()
	for _, b := range s.Bubbles() {
		if b.Pos.X < 50 || b.Pos.X > w-50 || b.Pos.Y < 50 || b.Pos.Y > h-50 {
			t.Errorf("bubble at %v outside the spawn margin", b.Pos)
		}
		if b.Radius < 20 || b.Radius > 40 {
			t.Errorf("radius %f outside [20, 40]", b.Radius)
		}
		if b.Density != 200 || b.MinRadius != 5 || b.MaxSpeed != 400 {
			t.Errorf("spawn parameters not applied: %v", b)
		}
	}
}

func TestUpdate_NeverExceedsCap(t *testing.T) {
	s := newTestSim(t, func(c *config.Config) {
		c.Population.MaxBubbles = 20
	})
	rec := newCountingRecorder()
	s.SetRecorder(rec)

	// A 6x5 grid far enough apart that nothing collides.
	for i := 0; i < 30; i++ {
		b := mustAdd(t, s, 100+float64(i%6)*200, 100+float64(i/6)*120, 10, r2.Vec{})
		b.Age = float64(i)
		b.Lifetime = 1000
	}

	s.Update(0.016)

	if s.Count() != 20 {
		t.Fatalf("Count() = %d, want cap 20", s.Count())
	}
	for _, b := range s.Bubbles() {
		if b.Age > 19.5 {
			t.Errorf("bubble aged %f survived; the oldest should be evicted", b.Age)
		}
	}
	if rec.evictions != 10 {
		t.Errorf("evictions = %d, want 10", rec.evictions)
	}

	s.Update(0.016)
	if s.Count() > 20 {
		t.Errorf("Count() = %d after second update, want <= 20", s.Count())
	}
}

func TestUpdate_EvictionKeepsOrderAmongEqualAges(t *testing.T) {
	s := newTestSim(t, func(c *config.Config) {
		c.Population.MaxBubbles = 2
	})
	var added []*bubble.Bubble
	for i := 0; i < 3; i++ {
		b := mustAdd(t, s, 100+float64(i)*300, 500, 10, r2.Vec{})
		b.Lifetime = 1000
		added = append(added, b)
	}

	s.Update(0.01)

	got := s.Bubbles()
	if len(got) != 2 || got[0] != added[0] || got[1] != added[1] {
		t.Errorf("equal ages should keep the first bubbles in order")
	}
}

func TestUpdate_DropsAgedBubbles(t *testing.T) {
	s := newTestSim(t, nil)
	rec := newCountingRecorder()
	s.SetRecorder(rec)

	old := mustAdd(t, s, 200, 200, 20, r2.Vec{})
	old.Age = old.Lifetime
	young := mustAdd(t, s, 800, 200, 20, r2.Vec{})

	s.Update(0.016)

	if s.Count() != 1 || s.Bubbles()[0] != young {
		t.Fatalf("expected only the young bubble to survive, got %d bubbles", s.Count())
	}
	if rec.deaths[bubble.CauseAge] != 1 {
		t.Errorf("age deaths = %d, want 1", rec.deaths[bubble.CauseAge])
	}
}

func TestUpdate_FailedSplitRecordsDeath(t *testing.T) {
	s := newTestSim(t, nil)
	rec := newCountingRecorder()
	s.SetRecorder(rec)

	// A non-finite position survives the liveness check but the child
	// cannot be built from it.
	b := mustAdd(t, s, 200, 200, 30, r2.Vec{})
	b.Pos.X = math.NaN()
	b.ToSplit = true

	s.Update(0.016)

	if s.Count() != 0 {
		t.Fatalf("Count() = %d, want the unsplittable bubble dropped", s.Count())
	}
	if rec.deaths[bubble.CauseSplitFailed] != 1 {
		t.Errorf("split_failed deaths = %d, want 1", rec.deaths[bubble.CauseSplitFailed])
	}
	if rec.births[OriginSplit] != 0 {
		t.Errorf("split births = %d, want 0", rec.births[OriginSplit])
	}
}

// Every pair is resolved from both sides in one Update. With the small
// bubble clamped to its max speed, the pair is still closing after the
// first resolution, so the second pass must change the large bubble again.
func TestUpdate_PairCollidesFromBothSides(t *testing.T) {
	s := newTestSim(t, func(cfg *config.Config) {
		cfg.Wind.Strength = 0
		cfg.Turbulence.X = 0
		cfg.Turbulence.Y = 0
	})
	a := mustAdd(t, s, 200, 200, 40, r2.Vec{X: 250})
	b := mustAdd(t, s, 240, 200, 10, r2.Vec{X: -250})
	a.MaxSpeed = 300
	b.MaxSpeed = 100
	s.UpdateMousePosition(-1000, -1000)

	// Same pair, but only the large bubble's side runs.
	onceA, onceB := *a, *b
	onceA.Update([]*bubble.Bubble{&onceA, &onceB}, 0.01)

	s.Update(0.01)

	if b.Vel.X > 100 {
		t.Errorf("small bubble Vel.X = %f, want clamped to 100", b.Vel.X)
	}
	if a.Vel.X >= onceA.Vel.X-2 {
		t.Errorf("large bubble Vel.X = %f, want well below the single-pass %f", a.Vel.X, onceA.Vel.X)
	}
}

func TestUpdate_AppendsOffspringAfterSurvivors(t *testing.T) {
	s := newTestSim(t, nil)
	rec := newCountingRecorder()
	s.SetRecorder(rec)

	a := mustAdd(t, s, 200, 200, 30, r2.Vec{X: 20})
	a.ToSplit = true
	b := mustAdd(t, s, 900, 500, 20, r2.Vec{})

	s.Update(0.016)

	got := s.Bubbles()
	if len(got) != 3 {
		t.Fatalf("Count() = %d, want 3", len(got))
	}
	if got[0] != a || got[1] != b {
		t.Error("survivors should keep their order")
	}
	if got[2] == a || got[2] == b {
		t.Error("offspring should be appended last")
	}
	if !approx(a.Radius, 30/bubble.SplitRadiusDivisor, 1e-9) {
		t.Errorf("split parent radius = %f", a.Radius)
	}
	if rec.births[OriginSplit] != 1 {
		t.Errorf("split births = %d, want 1", rec.births[OriginSplit])
	}
}

func TestUpdate_PhaseOrder(t *testing.T) {
	s := newTestSim(t, nil)
	var phases phaseLog
	s.SetPhaseTimer(&phases)

	s.Update(0.016)

	want := []string{PhaseWind, PhasePhysics, PhaseLifecycle, PhaseSpawn, PhaseCull}
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phase %d = %s, want %s", i, phases[i], want[i])
		}
	}
}

func TestUpdate_SpawnsBelowCap(t *testing.T) {
	s := newTestSim(t, func(c *config.Config) {
		c.Population.SpawnRate = 1000 // probability > 1 per frame
	})
	s.Update(0.016)
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want one spawned bubble", s.Count())
	}
}

func TestUpdateWind(t *testing.T) {
	s := newTestSim(t, nil)

	s.Update(1.5)
	if dir, strength := s.Wind(); dir != (r2.Vec{X: 1}) || strength != 30 {
		t.Errorf("wind changed before the interval: %v %f", dir, strength)
	}

	s.Update(1.0)
	dir, strength := s.Wind()
	if strength < 20 || strength > 50 {
		t.Errorf("wind strength %f outside [20, 50]", strength)
	}
	if !approx(r2.Norm(dir), 1, 1e-9) {
		t.Errorf("wind direction %v is not a unit vector", dir)
	}
}

func TestApplyWindEffect(t *testing.T) {
	s := newTestSim(t, nil)
	b := mustAdd(t, s, 100, 100, 20, r2.Vec{})

	s.ApplyWindEffect(b, 0.1)

	// 30 * (1 + 20/20) = 60 along +X for 0.1s.
	if !approx(b.Vel.X, 6, 1e-9) || b.Vel.Y != 0 {
		t.Errorf("Vel = %v, want (6, 0)", b.Vel)
	}
}

func TestApplyMouseRepulsion(t *testing.T) {
	tests := []struct {
		name   string
		offset r2.Vec
		want   r2.Vec
	}{
		// d=50: falloff 1/3, force 15000*(2/3)/60.
		{"inside radius", r2.Vec{X: 50}, r2.Vec{X: 500.0 / 3 * 0.016, Y: 500.0 / 3 * 0.008}},
		{"at radius", r2.Vec{X: 150}, r2.Vec{}},
		{"outside radius", r2.Vec{Y: 400}, r2.Vec{}},
		{"on the cursor", r2.Vec{X: 0.5}, r2.Vec{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSim(t, nil)
			s.UpdateMousePosition(300, 300)
			b := mustAdd(t, s, 300+tc.offset.X, 300+tc.offset.Y, 20, r2.Vec{})

			s.ApplyMouseRepulsion(b)

			if !approx(b.Vel.X, tc.want.X, 1e-9) || !approx(b.Vel.Y, tc.want.Y, 1e-9) {
				t.Errorf("Vel = %v, want %v", b.Vel, tc.want)
			}
		})
	}
}

func TestApplyMouseRepulsion_FloorsFalloff(t *testing.T) {
	s := newTestSim(t, nil)
	s.UpdateMousePosition(0, 0)
	b := mustAdd(t, s, 5, 0, 20, r2.Vec{})

	s.ApplyMouseRepulsion(b)

	// d=5 is below 0.1*150, so the falloff floor of 0.1 applies.
	force := 15000 * 0.9 / 15
	if !approx(b.Vel.X, force*0.016, 1e-9) {
		t.Errorf("Vel.X = %f, want %f", b.Vel.X, force*0.016)
	}
}

func TestApplyMouseRepulsion_ClampsSpeed(t *testing.T) {
	s := newTestSim(t, nil)
	s.UpdateMousePosition(0, 0)
	s.SetRepulsionStrength(200000)
	b := mustAdd(t, s, 2, 0, 20, r2.Vec{X: 390})

	s.ApplyMouseRepulsion(b)

	if b.Speed() > b.MaxSpeed+1e-9 {
		t.Errorf("Speed() = %f exceeds max %f", b.Speed(), b.MaxSpeed)
	}
}

func TestRepulsionTuning(t *testing.T) {
	s := newTestSim(t, nil)

	s.ScaleRepulsionRadius(1.2)
	if !approx(s.RepulsionRadius(), 180, 1e-9) {
		t.Errorf("RepulsionRadius() = %f, want 180", s.RepulsionRadius())
	}
	s.ScaleRepulsionRadius(10)
	if s.RepulsionRadius() != 400 {
		t.Errorf("RepulsionRadius() = %f, want clamped to 400", s.RepulsionRadius())
	}
	s.SetRepulsionRadius(1)
	if s.RepulsionRadius() != 50 {
		t.Errorf("RepulsionRadius() = %f, want clamped to 50", s.RepulsionRadius())
	}

	s.ScaleRepulsionStrength(0.8)
	if !approx(s.RepulsionStrength(), 12000, 1e-9) {
		t.Errorf("RepulsionStrength() = %f, want 12000", s.RepulsionStrength())
	}
	s.SetRepulsionStrength(math.NaN())
	if s.RepulsionStrength() != 500 {
		t.Errorf("RepulsionStrength() = %f, want NaN clamped to the minimum", s.RepulsionStrength())
	}
}

func TestFindBubbleAt(t *testing.T) {
	s := newTestSim(t, nil)
	small := mustAdd(t, s, 75, 100, 10, r2.Vec{})
	big := mustAdd(t, s, 110, 100, 30, r2.Vec{})
	twin := mustAdd(t, s, 400, 400, 20, r2.Vec{})
	mustAdd(t, s, 405, 400, 20, r2.Vec{})

	if got := s.FindBubbleAt(82, 100); got != big {
		t.Errorf("overlap hit = %v, want the larger bubble", got)
	}
	if got := s.FindBubbleAt(70, 100); got != small {
		t.Errorf("hit = %v, want the small bubble", got)
	}
	if got := s.FindBubbleAt(402, 400); got != twin {
		t.Errorf("tie should pick the first bubble in order")
	}
	if got := s.FindBubbleAt(700, 700); got != nil {
		t.Errorf("empty point hit %v", got)
	}
}

func TestExplodeBubbleAt_EmptyPointIsNoop(t *testing.T) {
	s := newTestSim(t, nil)
	mustAdd(t, s, 100, 100, 20, r2.Vec{})

	if s.ExplodeBubbleAt(600, 600) {
		t.Error("ExplodeBubbleAt on an empty point returned true")
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want unchanged 1", s.Count())
	}
}

func TestExplodeBubbleAt_Fragments(t *testing.T) {
	s := newTestSim(t, nil)
	rec := newCountingRecorder()
	target := mustAdd(t, s, 300, 300, 30, r2.Vec{})
	s.SetRecorder(rec)

	if !s.ExplodeBubbleAt(305, 300) {
		t.Fatal("ExplodeBubbleAt missed the bubble")
	}

	n := s.Count()
	if n < 4 || n > 8 {
		t.Fatalf("fragment count = %d, want [4, 8]", n)
	}
	for _, f := range s.Bubbles() {
		if f == target {
			t.Fatal("exploded bubble still in the population")
		}
		if d := r2.Norm(r2.Sub(f.Pos, target.Pos)); d > 45+1e-9 {
			t.Errorf("fragment %f from center, want <= 45", d)
		}
		if f.Radius < 5 || f.Radius > 12 {
			t.Errorf("fragment radius %f outside [5, 12]", f.Radius)
		}
		if sp := f.Speed(); sp < 150-1e-9 || sp > 300+1e-9 {
			t.Errorf("fragment speed %f outside [150, 300]", sp)
		}
		if f.Density != 150 || f.MinRadius != 3 {
			t.Errorf("fragment parameters not applied: %v", f)
		}
	}
	if rec.pops != 1 || rec.births[OriginFragment] != n {
		t.Errorf("recorded pops=%d fragments=%d, want 1 and %d", rec.pops, rec.births[OriginFragment], n)
	}
}

func TestAddBubbleExplosion(t *testing.T) {
	s := newTestSim(t, nil)
	mustAdd(t, s, 1000, 600, 20, r2.Vec{})
	center := r2.Vec{X: 400, Y: 300}

	if err := s.AddBubbleExplosion(center.X, center.Y, 8); err != nil {
		t.Fatalf("AddBubbleExplosion failed: %v", err)
	}

	if s.Count() != 9 {
		t.Fatalf("Count() = %d, want 1 + 8", s.Count())
	}
	for _, b := range s.Bubbles()[1:] {
		if d := r2.Norm(r2.Sub(b.Pos, center)); d < 40-1e-9 || d > 100+1e-9 {
			t.Errorf("distance %f outside [40, 100]", d)
		}
		if sp := b.Speed(); sp < 200-1e-9 || sp > 350+1e-9 {
			t.Errorf("speed %f outside [200, 350]", sp)
		}
		if b.Radius < 15 || b.Radius > 30 {
			t.Errorf("radius %f outside [15, 30]", b.Radius)
		}
		// Velocity points away from the center.
		if r2.Dot(b.Vel, r2.Sub(b.Pos, center)) <= 0 {
			t.Errorf("bubble at %v moving inward %v", b.Pos, b.Vel)
		}
	}
}

func TestAddBubbleAtMouse(t *testing.T) {
	s := newTestSim(t, nil)
	b, err := s.AddBubbleAtMouse(500, 400)
	if err != nil {
		t.Fatal(err)
	}
	d := r2.Norm(r2.Sub(b.Pos, r2.Vec{X: 500, Y: 400}))
	if d < 30-1e-9 || d > 60+1e-9 {
		t.Errorf("offset %f outside [30, 60]", d)
	}
	if b.Radius < 25 || b.Radius > 35 {
		t.Errorf("radius %f outside [25, 35]", b.Radius)
	}
}

func TestExplodeOrSpawnAt(t *testing.T) {
	s := newTestSim(t, nil)

	exploded, err := s.ExplodeOrSpawnAt(500, 400)
	if err != nil || exploded {
		t.Fatalf("empty point: exploded=%v err=%v, want spawn", exploded, err)
	}
	if s.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 spawned", s.Count())
	}

	p := s.Bubbles()[0].Pos
	exploded, err = s.ExplodeOrSpawnAt(p.X, p.Y)
	if err != nil || !exploded {
		t.Errorf("hit: exploded=%v err=%v, want explosion", exploded, err)
	}
}

func TestDetonateBubbleAt(t *testing.T) {
	s := newTestSim(t, nil)
	rec := newCountingRecorder()
	s.SetRecorder(rec)
	b := mustAdd(t, s, 300, 300, 30, r2.Vec{})

	if s.DetonateBubbleAt(700, 700) {
		t.Error("DetonateBubbleAt on an empty point returned true")
	}
	if rec.pops != 0 {
		t.Errorf("pops = %d after a miss, want 0", rec.pops)
	}
	if !s.DetonateBubbleAt(300, 300) {
		t.Fatal("DetonateBubbleAt missed the bubble")
	}
	if !b.Exploding || !b.ToSplit {
		t.Error("detonated bubble should be exploding and marked to split")
	}
	if rec.pops != 1 {
		t.Errorf("pops = %d after detonation, want 1", rec.pops)
	}

	s.Update(0.016)
	if s.Count() != 2 {
		t.Errorf("Count() = %d after update, want parent and child", s.Count())
	}
}

func TestClear(t *testing.T) {
	s := newTestSim(t, nil)
	for i := 0; i < 5; i++ {
		mustAdd(t, s, 100+float64(i)*50, 100, 10, r2.Vec{})
	}
	s.Clear()
	if s.Count() != 0 {
		t.Errorf("Count() = %d after Clear, want 0", s.Count())
	}
}

func TestStats(t *testing.T) {
	s := newTestSim(t, nil)

	if got := s.Stats(); got != (Stats{}) {
		t.Errorf("empty Stats() = %+v, want zero", got)
	}

	a := mustAdd(t, s, 100, 100, 10, r2.Vec{X: 30, Y: 40})
	b := mustAdd(t, s, 400, 100, 30, r2.Vec{})

	got := s.Stats()
	if got.Count != 2 {
		t.Errorf("Count = %d, want 2", got.Count)
	}
	if !approx(got.MeanRadius, 20, 1e-9) {
		t.Errorf("MeanRadius = %f, want 20", got.MeanRadius)
	}
	if !approx(got.MeanSpeed, 25, 1e-9) {
		t.Errorf("MeanSpeed = %f, want 25", got.MeanSpeed)
	}
	if !approx(got.TotalEnergy, a.RemainingEnergy+b.RemainingEnergy, 1e-9) {
		t.Errorf("TotalEnergy = %f, want %f", got.TotalEnergy, a.RemainingEnergy+b.RemainingEnergy)
	}
}

func TestAddBubble_RejectsInvalid(t *testing.T) {
	s := newTestSim(t, nil)
	if _, err := s.AddBubble(100, 100, -1, r2.Vec{}); err == nil {
		t.Error("expected error for negative radius")
	}
	if _, err := s.AddBubble(math.Inf(1), 100, 10, r2.Vec{}); err == nil {
		t.Error("expected error for infinite position")
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d, rejected bubbles must not be added", s.Count())
	}
}
