package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bubbles/ui"
)

// keyBinding maps a key press to a command.
type keyBinding struct {
	key    int32
	action func(g *Game)
}

var keyBindings = []keyBinding{
	{rl.KeySpace, func(g *Game) { g.AddRandom(g.cfg.Input.SpawnBatch) }},
	{rl.KeyC, (*Game).Clear},
	{rl.KeyP, func(g *Game) { g.TogglePause() }},
	{rl.KeyR, (*Game).Reset},
	{rl.KeyE, (*Game).CenterBurst},
	{rl.KeyUp, func(g *Game) { g.ScaleRepulsionStrength(true) }},
	{rl.KeyDown, func(g *Game) { g.ScaleRepulsionStrength(false) }},
	{rl.KeyRight, func(g *Game) { g.ScaleRepulsionRadius(true) }},
	{rl.KeyLeft, func(g *Game) { g.ScaleRepulsionRadius(false) }},
}

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	for _, kb := range keyBindings {
		if rl.IsKeyPressed(kb.key) {
			kb.action(g)
		}
	}
	for _, desc := range g.overlays.All() {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			g.ToggleOverlay(desc.ID)
		}
	}

	g.handleMouse()
}

// handleMouse maps raylib's y-down window coordinates into the simulation.
func (g *Game) handleMouse() {
	screen := rl.GetMousePosition()
	x := float64(screen.X)
	y := g.cfg.Derived.WorldH - float64(screen.Y)

	// Clicks on the controls panel belong to raygui.
	if g.overlays.IsEnabled(ui.OverlayControls) && g.controls.Contains(screen.X, screen.Y) {
		if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
			g.Release()
		}
		return
	}

	delta := rl.GetMouseDelta()
	moved := delta.X != 0 || delta.Y != 0

	switch {
	case rl.IsMouseButtonPressed(rl.MouseButtonLeft):
		g.PressAt(x, y)
	case rl.IsMouseButtonDown(rl.MouseButtonLeft) && moved:
		g.DragTo(x, y)
	case moved:
		g.MoveMouse(x, y)
	}
	if rl.IsMouseButtonReleased(rl.MouseButtonLeft) {
		g.Release()
	}

	if rl.IsMouseButtonPressed(rl.MouseButtonRight) {
		g.MoveMouse(x, y)
		g.Burst(x, y, g.cfg.Burst.Count)
	}
	if rl.IsMouseButtonPressed(rl.MouseButtonMiddle) {
		g.Detonate(x, y)
	}
}
