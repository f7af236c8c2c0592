package bubble

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func vecApprox(a, b r2.Vec, tol float64) bool {
	return approx(a.X, b.X, tol) && approx(a.Y, b.Y, tol)
}

func TestSplit_Geometry(t *testing.T) {
	origin := r2.Vec{X: 100, Y: 100}
	parent := mustNew(t, 28, origin, r2.Vec{X: 10}, fixedRand{0.5}, Options{
		MinRadius: 4, MaxSpeed: 250, Density: 180, Mode: ModeSplit,
	})
	parent.Age = 7
	parent.ToSplit = true
	parent.Exploding = true
	parent.RemainingEnergy = -5

	child, err := parent.Split()
	if err != nil {
		t.Fatalf("Split() failed: %v", err)
	}

	newRadius := 28 / SplitRadiusDivisor
	if parent.Radius != newRadius || child.Radius != newRadius {
		t.Errorf("radii = %f, %f, want %f", parent.Radius, child.Radius, newRadius)
	}
	if parent.BaseRadius != newRadius || child.BaseRadius != newRadius {
		t.Errorf("base radii = %f, %f, want %f", parent.BaseRadius, child.BaseRadius, newRadius)
	}

	// Perpendicular of (10, 0) is (0, -10), scaled to 1.5 new radii.
	offset := r2.Vec{Y: -newRadius * SplitOffsetFactor}
	if !vecApprox(r2.Sub(child.Pos, origin), offset, 1e-9) {
		t.Errorf("child offset = %v, want %v", r2.Sub(child.Pos, origin), offset)
	}
	if !vecApprox(r2.Sub(parent.Pos, origin), r2.Scale(-1, offset), 1e-9) {
		t.Errorf("parent offset = %v, want %v", r2.Sub(parent.Pos, origin), r2.Scale(-1, offset))
	}

	c := math.Sqrt2 / 2 * 10
	wantChildVel := r2.Vec{X: c, Y: c - SplitSpeed}
	wantParentVel := r2.Vec{X: c, Y: -c + SplitSpeed}
	if !vecApprox(child.Vel, wantChildVel, 1e-9) {
		t.Errorf("child Vel = %v, want %v", child.Vel, wantChildVel)
	}
	if !vecApprox(parent.Vel, wantParentVel, 1e-9) {
		t.Errorf("parent Vel = %v, want %v", parent.Vel, wantParentVel)
	}

	if !approx(parent.Weight, 180*math.Pi*newRadius*newRadius, 1e-6) {
		t.Errorf("parent Weight = %f not re-derived", parent.Weight)
	}
	if !approx(parent.Resistance, 0.002*180*math.Sqrt(newRadius), 1e-9) {
		t.Errorf("parent Resistance = %f not re-derived", parent.Resistance)
	}
	if !approx(parent.RemainingEnergy, parent.Energy*SplitEnergyRestore, 1e-9) {
		t.Errorf("parent RemainingEnergy = %f, want 80%% of %f", parent.RemainingEnergy, parent.Energy)
	}
	if parent.ToSplit || parent.Exploding {
		t.Error("split should clear ToSplit and Exploding")
	}
	if parent.LastSplit != 7 {
		t.Errorf("parent LastSplit = %f, want 7", parent.LastSplit)
	}
	if child.LastSplit != 0 || child.Age != 0 {
		t.Errorf("child should start fresh, age=%f lastSplit=%f", child.Age, child.LastSplit)
	}

	if child.Mode != parent.Mode || child.MinRadius != 4 || child.MaxSpeed != 250 || child.Density != 180 {
		t.Errorf("child did not inherit parameters: %+v", child)
	}
	if child.Color != parent.Color {
		t.Errorf("zero perturbation should copy color: %v vs %v", child.Color, parent.Color)
	}
	if parent.MetaballStrength != newRadius*newRadius*2 {
		t.Errorf("parent MetaballStrength = %f, want %f", parent.MetaballStrength, newRadius*newRadius*2)
	}
}

func TestSplit_AtRestUsesHorizontalOffset(t *testing.T) {
	origin := r2.Vec{X: 50, Y: 60}
	parent := mustNew(t, 14, origin, r2.Vec{}, fixedRand{0.5}, Options{})

	child, err := parent.Split()
	if err != nil {
		t.Fatalf("Split() failed: %v", err)
	}

	dx := 10 * SplitOffsetFactor
	if !vecApprox(child.Pos, r2.Vec{X: 50 + dx, Y: 60}, 1e-9) {
		t.Errorf("child Pos = %v", child.Pos)
	}
	if !vecApprox(parent.Pos, r2.Vec{X: 50 - dx, Y: 60}, 1e-9) {
		t.Errorf("parent Pos = %v", parent.Pos)
	}
	if !vecApprox(child.Vel, r2.Vec{X: SplitSpeed}, 1e-9) || !vecApprox(parent.Vel, r2.Vec{X: -SplitSpeed}, 1e-9) {
		t.Errorf("split velocities = %v, %v", child.Vel, parent.Vel)
	}
}

func TestSplit_RestoredEnergyPreventsImmediateResplit(t *testing.T) {
	parent := mustNew(t, 30, r2.Vec{}, r2.Vec{X: 20}, fixedRand{0.1}, Options{})
	parent.Age = 10
	parent.RemainingEnergy = 0

	if _, err := parent.Split(); err != nil {
		t.Fatal(err)
	}

	if parent.RemainingEnergy < parent.Resistance*SplitEnergyFactor {
		t.Errorf("restored energy %f should be above the split threshold %f",
			parent.RemainingEnergy, parent.Resistance*SplitEnergyFactor)
	}
	if parent.Age-parent.LastSplit > SplitCooldown {
		t.Error("parent should be on cooldown right after splitting")
	}
}

func TestExplode(t *testing.T) {
	// A 0.5 draw gives force 150 at angle pi.
	b := mustNew(t, 20, r2.Vec{}, r2.Vec{X: 10, Y: 5}, fixedRand{0.5}, Options{})

	b.Explode()

	if !b.Exploding || !b.ToSplit {
		t.Error("Explode should set Exploding and ToSplit")
	}
	if b.RemainingEnergy != 0 {
		t.Errorf("RemainingEnergy = %f, want 0", b.RemainingEnergy)
	}
	if !vecApprox(b.Vel, r2.Vec{X: -140, Y: 5}, 1e-9) {
		t.Errorf("Vel = %v, want (-140, 5)", b.Vel)
	}
}

func TestExplode_ClampsToMaxSpeed(t *testing.T) {
	b := mustNew(t, 20, r2.Vec{}, r2.Vec{X: -250}, fixedRand{0.5}, Options{MaxSpeed: 300})

	b.Explode()

	if !approx(b.Speed(), 300, 1e-9) {
		t.Errorf("Speed() = %f, want clamped to 300", b.Speed())
	}
	if b.Vel.X >= 0 {
		t.Errorf("direction lost while clamping: %v", b.Vel)
	}
}
