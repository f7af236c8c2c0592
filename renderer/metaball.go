// Package renderer draws the bubble population as metaballs.
package renderer

import (
	_ "embed"
	"fmt"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bubbles/bubble"
)

//go:embed shaders/metaball.fs
var metaballFS string

// Frame is the per-frame snapshot the metaball shader consumes. The arrays
// always hold Slots entries; entries past Count are zero.
type Frame struct {
	Slots     int
	Count     int
	Positions []float32 // x0, y0, x1, y1, ...
	Strengths []float32
	Colors    []float32 // r0, g0, b0, r1, ...
}

// NewFrame allocates a zeroed frame with the given number of slots.
func NewFrame(slots int) *Frame {
	return &Frame{
		Slots:     slots,
		Positions: make([]float32, slots*2),
		Strengths: make([]float32, slots),
		Colors:    make([]float32, slots*3),
	}
}

// Pack copies the bubbles into the frame, truncating to the slot count and
// zeroing unused slots.
func (f *Frame) Pack(bubbles []*bubble.Bubble) {
	n := len(bubbles)
	if n > f.Slots {
		n = f.Slots
	}
	f.Count = n

	for i := 0; i < n; i++ {
		b := bubbles[i]
		f.Positions[i*2] = float32(b.Pos.X)
		f.Positions[i*2+1] = float32(b.Pos.Y)
		f.Strengths[i] = float32(b.MetaballStrength)
		f.Colors[i*3] = b.Color.R
		f.Colors[i*3+1] = b.Color.G
		f.Colors[i*3+2] = b.Color.B
	}
	clear(f.Positions[n*2:])
	clear(f.Strengths[n:])
	clear(f.Colors[n*3:])
}

// Sample evaluates the field at (x, y) the way the shader does, returning
// the field value and the contribution-weighted color.
func (f *Frame) Sample(x, y float64) (float64, bubble.Color) {
	var field, r, g, b float64
	for i := 0; i < f.Count; i++ {
		dx := x - float64(f.Positions[i*2])
		dy := y - float64(f.Positions[i*2+1])
		d2 := dx*dx + dy*dy
		if d2 < 1 {
			d2 = 1
		}
		c := float64(f.Strengths[i]) / d2
		field += c
		r += float64(f.Colors[i*3]) * c
		g += float64(f.Colors[i*3+1]) * c
		b += float64(f.Colors[i*3+2]) * c
	}
	if field <= 0 {
		return 0, bubble.Color{}
	}
	return field, bubble.Color{R: float32(r / field), G: float32(g / field), B: float32(b / field)}
}

// shaderSource sizes the uniform arrays of the embedded shader.
func shaderSource(slots int) string {
	return strings.Replace(metaballFS, "#define MAX_BUBBLES 125", fmt.Sprintf("#define MAX_BUBBLES %d", slots), 1)
}

// MetaballRenderer draws a Frame as a fullscreen metaball pass.
type MetaballRenderer struct {
	shader      rl.Shader
	frame       *Frame
	width       float32
	height      float32
	threshold   float32
	background  [3]float32
	initialized bool

	timeLoc       int32
	resolutionLoc int32
	thresholdLoc  int32
	backgroundLoc int32
	positionsLoc  int32
	strengthsLoc  int32
	colorsLoc     int32
	countLoc      int32
}

// NewMetaballRenderer creates a renderer for a width x height screen.
func NewMetaballRenderer(width, height int32, slots int, threshold float64, background [3]float32) *MetaballRenderer {
	return &MetaballRenderer{
		frame:      NewFrame(slots),
		width:      float32(width),
		height:     float32(height),
		threshold:  float32(threshold),
		background: background,
	}
}

// Init compiles the shader (must be called after raylib window is created).
func (m *MetaballRenderer) Init() {
	if m.initialized {
		return
	}

	m.shader = rl.LoadShaderFromMemory("", shaderSource(m.frame.Slots))
	m.timeLoc = rl.GetShaderLocation(m.shader, "time")
	m.resolutionLoc = rl.GetShaderLocation(m.shader, "resolution")
	m.thresholdLoc = rl.GetShaderLocation(m.shader, "threshold")
	m.backgroundLoc = rl.GetShaderLocation(m.shader, "background")
	m.positionsLoc = rl.GetShaderLocation(m.shader, "bubblePositions")
	m.strengthsLoc = rl.GetShaderLocation(m.shader, "bubbleStrengths")
	m.colorsLoc = rl.GetShaderLocation(m.shader, "bubbleColors")
	m.countLoc = rl.GetShaderLocation(m.shader, "numBubbles")

	rl.SetShaderValue(m.shader, m.resolutionLoc, []float32{m.width, m.height}, rl.ShaderUniformVec2)
	rl.SetShaderValue(m.shader, m.thresholdLoc, []float32{m.threshold}, rl.ShaderUniformFloat)
	rl.SetShaderValue(m.shader, m.backgroundLoc, m.background[:], rl.ShaderUniformVec3)

	m.initialized = true
}

// Draw uploads the bubbles and renders the field over the whole screen.
func (m *MetaballRenderer) Draw(bubbles []*bubble.Bubble, time float32) {
	if !m.initialized {
		m.Init()
	}

	f := m.frame
	f.Pack(bubbles)

	slots := int32(f.Slots)
	rl.SetShaderValue(m.shader, m.timeLoc, []float32{time}, rl.ShaderUniformFloat)
	rl.SetShaderValueV(m.shader, m.positionsLoc, f.Positions, rl.ShaderUniformVec2, slots)
	rl.SetShaderValueV(m.shader, m.strengthsLoc, f.Strengths, rl.ShaderUniformFloat, slots)
	rl.SetShaderValueV(m.shader, m.colorsLoc, f.Colors, rl.ShaderUniformVec3, slots)
	rl.SetShaderValue(m.shader, m.countLoc, []float32{float32(f.Count)}, rl.ShaderUniformFloat)

	rl.BeginShaderMode(m.shader)
	rl.DrawRectangle(0, 0, int32(m.width), int32(m.height), rl.White)
	rl.EndShaderMode()
}

// Frame returns the last packed frame.
func (m *MetaballRenderer) Frame() *Frame {
	return m.frame
}

// Unload frees resources.
func (m *MetaballRenderer) Unload() {
	if m.initialized {
		rl.UnloadShader(m.shader)
		m.initialized = false
	}
}
