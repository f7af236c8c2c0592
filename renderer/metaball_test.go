package renderer

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bubbles/bubble"
)

func makeBubbles(t *testing.T, n int) []*bubble.Bubble {
	t.Helper()
	rng := rand.New(rand.NewSource(3))
	out := make([]*bubble.Bubble, n)
	for i := range out {
		c := bubble.Color{R: 0.1 * float32(i%10), G: 0.5, B: 1}
		b, err := bubble.New(10+float64(i), r2.Vec{X: float64(i * 10), Y: float64(i * 5)}, r2.Vec{}, rng, bubble.Options{Color: &c})
		if err != nil {
			t.Fatal(err)
		}
		out[i] = b
	}
	return out
}

func TestFramePack(t *testing.T) {
	f := NewFrame(8)
	bubbles := makeBubbles(t, 3)

	f.Pack(bubbles)

	if f.Count != 3 {
		t.Fatalf("Count = %d, want 3", f.Count)
	}
	if len(f.Positions) != 16 || len(f.Strengths) != 8 || len(f.Colors) != 24 {
		t.Fatalf("arrays not sized to slots: %d %d %d", len(f.Positions), len(f.Strengths), len(f.Colors))
	}
	for i, b := range bubbles {
		if f.Positions[i*2] != float32(b.Pos.X) || f.Positions[i*2+1] != float32(b.Pos.Y) {
			t.Errorf("slot %d position = (%f, %f), want %v", i, f.Positions[i*2], f.Positions[i*2+1], b.Pos)
		}
		if f.Strengths[i] != float32(b.MetaballStrength) {
			t.Errorf("slot %d strength = %f, want %f", i, f.Strengths[i], b.MetaballStrength)
		}
		if f.Colors[i*3] != b.Color.R || f.Colors[i*3+1] != b.Color.G || f.Colors[i*3+2] != b.Color.B {
			t.Errorf("slot %d color mismatch", i)
		}
	}
}

func TestFramePack_ZeroesStaleSlots(t *testing.T) {
	f := NewFrame(8)
	f.Pack(makeBubbles(t, 6))
	f.Pack(makeBubbles(t, 2))

	if f.Count != 2 {
		t.Fatalf("Count = %d, want 2", f.Count)
	}
	for i := 2; i < 8; i++ {
		if f.Strengths[i] != 0 || f.Positions[i*2] != 0 || f.Colors[i*3+1] != 0 {
			t.Errorf("slot %d not cleared", i)
		}
	}

	f.Pack(nil)
	if f.Count != 0 || f.Strengths[0] != 0 {
		t.Error("empty pack should clear every slot")
	}
}

func TestFramePack_TruncatesToSlots(t *testing.T) {
	f := NewFrame(4)
	bubbles := makeBubbles(t, 7)

	f.Pack(bubbles)

	if f.Count != 4 {
		t.Errorf("Count = %d, want truncated to 4", f.Count)
	}
	if f.Positions[6] != float32(bubbles[3].Pos.X) {
		t.Error("last slot should hold the fourth bubble")
	}
}

func TestFrameSample(t *testing.T) {
	f := NewFrame(4)
	bubbles := makeBubbles(t, 1)
	f.Pack(bubbles)
	b := bubbles[0]

	// strength = 2r^2, so the field is exactly 2 on the radius.
	v, c := f.Sample(b.Pos.X+b.Radius, b.Pos.Y)
	if math.Abs(v-2) > 1e-4 {
		t.Errorf("field on the radius = %f, want 2", v)
	}
	if c != b.Color {
		t.Errorf("color = %v, want %v", c, b.Color)
	}

	far, _ := f.Sample(b.Pos.X+10*b.Radius, b.Pos.Y)
	if far >= v {
		t.Errorf("field should fall off with distance: %f >= %f", far, v)
	}

	empty := NewFrame(4)
	if v, c := empty.Sample(0, 0); v != 0 || c != (bubble.Color{}) {
		t.Errorf("empty frame sample = %f %v, want zero", v, c)
	}
}

func TestShaderSource(t *testing.T) {
	src := shaderSource(64)
	if !strings.Contains(src, "#define MAX_BUBBLES 64") {
		t.Error("slot count not injected into the shader")
	}
	if strings.Contains(src, "#define MAX_BUBBLES 125") {
		t.Error("default slot count still present")
	}
	if !strings.Contains(shaderSource(125), "uniform vec2 bubblePositions[MAX_BUBBLES]") {
		t.Error("embedded shader missing the positions uniform")
	}
}
