package ui

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlsState is what the repulsion panel edits.
type ControlsState struct {
	Strength float64
	Radius   float64
}

// ControlsAction reports the buttons pressed this frame.
type ControlsAction struct {
	Clear bool
	Reset bool
	Burst bool
}

// ControlsPanel renders raygui sliders for the mouse repulsion field plus a
// few simulation buttons.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32

	minStrength, maxStrength float64
	minRadius, maxRadius     float64
}

// NewControlsPanel creates a controls panel. Strength is edited on a log
// scale since its range spans several orders of magnitude.
func NewControlsPanel(x, y, width int32, minStrength, maxStrength, minRadius, maxRadius float64) *ControlsPanel {
	return &ControlsPanel{
		renderer:    NewRenderer(),
		x:           x,
		y:           y,
		width:       width,
		minStrength: minStrength,
		maxStrength: maxStrength,
		minRadius:   minRadius,
		maxRadius:   maxRadius,
	}
}

const controlsHeight = 150

// Bounds returns the panel rectangle in screen coordinates (y down).
func (c *ControlsPanel) Bounds() rl.Rectangle {
	return rl.Rectangle{X: float32(c.x), Y: float32(c.y), Width: float32(c.width), Height: controlsHeight}
}

// Contains reports whether a screen point (y down) is over the panel, so
// clicks there are not forwarded to the simulation.
func (c *ControlsPanel) Contains(x, y float32) bool {
	return rl.CheckCollisionPointRec(rl.Vector2{X: x, Y: y}, c.Bounds())
}

// Draw renders the panel and returns the edited state and any button presses.
func (c *ControlsPanel) Draw(state ControlsState) (ControlsState, ControlsAction) {
	r := c.renderer
	padding := r.Theme.Padding
	r.DrawPanel(c.x, c.y, c.width, controlsHeight)

	panelX := float32(c.x + padding)
	panelY := float32(c.y + padding)
	sliderWidth := float32(c.width - padding*2 - 70)

	rl.DrawText("Mouse Repulsion", int32(panelX), int32(panelY), 16, rl.White)
	panelY += 24

	rl.DrawText("Strength", int32(panelX), int32(panelY), 12, r.Theme.LabelColor)
	panelY += 14
	lo, hi := logScale(c.minStrength), logScale(c.maxStrength)
	pos := gui.SliderBar(
		rl.Rectangle{X: panelX, Y: panelY, Width: sliderWidth, Height: 16},
		"", "",
		logScale(state.Strength), lo, hi,
	)
	if pos != logScale(state.Strength) {
		state.Strength = fromLogScale(pos)
	}
	rl.DrawText(fmt.Sprintf("%.0f", state.Strength), int32(panelX+sliderWidth+8), int32(panelY+2), 12, r.Theme.ValueColor)
	panelY += 24

	rl.DrawText("Radius", int32(panelX), int32(panelY), 12, r.Theme.LabelColor)
	panelY += 14
	radius := gui.SliderBar(
		rl.Rectangle{X: panelX, Y: panelY, Width: sliderWidth, Height: 16},
		"", "",
		float32(state.Radius), float32(c.minRadius), float32(c.maxRadius),
	)
	if radius != float32(state.Radius) {
		state.Radius = float64(radius)
	}
	rl.DrawText(fmt.Sprintf("%.0f", state.Radius), int32(panelX+sliderWidth+8), int32(panelY+2), 12, r.Theme.ValueColor)
	panelY += 26

	var action ControlsAction
	buttonWidth := float32(c.width-padding*2-20) / 3
	action.Clear = gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: buttonWidth, Height: 24}, "Clear")
	action.Reset = gui.Button(rl.Rectangle{X: panelX + buttonWidth + 10, Y: panelY, Width: buttonWidth, Height: 24}, "Reset")
	action.Burst = gui.Button(rl.Rectangle{X: panelX + 2*(buttonWidth+10), Y: panelY, Width: buttonWidth, Height: 24}, "Burst")

	return state, action
}

func logScale(v float64) float32 {
	if v <= 0 {
		return 0
	}
	return float32(math.Log10(v))
}

func fromLogScale(p float32) float64 {
	return math.Pow(10, float64(p))
}
