package game

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bubbles/bubble"
	"github.com/pthm-cable/bubbles/ui"
)

// Commands shared by the raylib and terminal frontends. Coordinates are in
// simulation space (y up).

// MoveMouse sets the repulsion source.
func (g *Game) MoveMouse(x, y float64) {
	g.mouse = r2.Vec{X: x, Y: y}
	g.sim.UpdateMousePosition(x, y)
}

// PopOrSpawn explodes the bubble under (x, y) or adds one near it.
func (g *Game) PopOrSpawn(x, y float64) {
	target := g.sim.FindBubbleAt(x, y)
	var pos r2.Vec
	var radius float64
	var color bubble.Color
	if target != nil {
		pos, radius, color = target.Pos, target.Radius, target.Color
	}

	exploded, err := g.sim.ExplodeOrSpawnAt(x, y)
	if err != nil {
		slog.Warn("spawn_failed", "x", x, "y", y, "error", err)
		return
	}
	if exploded {
		g.popped(pos, radius, color)
		return
	}
	g.audio.PlayBlip()
}

// Burst adds count bubbles flying out of (x, y).
func (g *Game) Burst(x, y float64, count int) {
	if err := g.sim.AddBubbleExplosion(x, y, count); err != nil {
		slog.Warn("burst_failed", "x", x, "y", y, "error", err)
	}
}

// CenterBurst fires the larger burst at the middle of the world.
func (g *Game) CenterBurst() {
	w, h := g.sim.Size()
	g.Burst(w/2, h/2, g.cfg.Burst.CenterCount)
}

// Detonate drains the bubble under (x, y) so it splits on the next tick.
func (g *Game) Detonate(x, y float64) {
	target := g.sim.FindBubbleAt(x, y)
	if target == nil {
		return
	}
	pos, radius, color := target.Pos, target.Radius, target.Color
	if g.sim.DetonateBubbleAt(x, y) {
		g.popped(pos, radius, color)
	}
}

// AddRandom adds n random bubbles.
func (g *Game) AddRandom(n int) {
	for i := 0; i < n; i++ {
		if _, err := g.sim.AddRandomBubble(); err != nil {
			slog.Warn("spawn_failed", "error", err)
			return
		}
	}
}

// Clear removes every bubble.
func (g *Game) Clear() {
	g.sim.Clear()
	slog.Info("bubbles_cleared")
}

// Reset restores the initial population and environment.
func (g *Game) Reset() {
	if err := g.sim.Reset(); err != nil {
		slog.Warn("reset_failed", "error", err)
		return
	}
	slog.Info("simulation_reset", "bubbles", g.sim.Count())
}

// TogglePause pauses or resumes the simulation.
func (g *Game) TogglePause() bool {
	g.paused = !g.paused
	slog.Info("pause_toggled", "paused", g.paused)
	return g.paused
}

// ScaleRepulsionStrength raises or lowers the repulsion strength by one step.
func (g *Game) ScaleRepulsionStrength(up bool) {
	g.sim.ScaleRepulsionStrength(g.stepFactor(up))
	slog.Info("repulsion_strength", "value", g.sim.RepulsionStrength())
}

// ScaleRepulsionRadius grows or shrinks the repulsion radius by one step,
// within the configured clamp.
func (g *Game) ScaleRepulsionRadius(up bool) {
	g.sim.ScaleRepulsionRadius(g.stepFactor(up))
	slog.Info("repulsion_radius", "value", g.sim.RepulsionRadius())
}

func (g *Game) stepFactor(up bool) float64 {
	if up {
		return g.cfg.Repulsion.StepUp
	}
	return g.cfg.Repulsion.StepDown
}

// ToggleOverlay flips an overlay and logs the change.
func (g *Game) ToggleOverlay(id ui.OverlayID) bool {
	on := g.overlays.Toggle(id)
	slog.Info("overlay_toggled", "overlay", string(id), "enabled", on)
	return on
}

// PressAt starts a left-button interaction: pop or spawn immediately.
func (g *Game) PressAt(x, y float64) {
	g.MoveMouse(x, y)
	g.drag.pressed = true
	g.PopOrSpawn(x, y)
}

// DragTo continues a left-button drag. Every DragPokeEvery frames it pops or
// spawns at the cursor; while dragging, Advance also spawns bubbles at the
// configured interval.
func (g *Game) DragTo(x, y float64) {
	g.MoveMouse(x, y)
	if !g.drag.pressed {
		return
	}
	g.drag.spawning = true
	if every := g.cfg.Input.DragPokeEvery; every > 0 && g.frame%every == 0 {
		g.PopOrSpawn(x, y)
	}
}

// Release ends a drag.
func (g *Game) Release() {
	g.drag = dragState{}
}

// updateDragSpawn spawns at the cursor while dragging, below the cap.
func (g *Game) updateDragSpawn(dt float64) {
	if !g.drag.spawning {
		return
	}
	g.drag.spawnTimer += dt
	if g.drag.spawnTimer <= g.cfg.Input.DragSpawnInterval {
		return
	}
	g.drag.spawnTimer = 0
	if g.sim.Count() >= g.sim.MaxBubbles() {
		return
	}
	if _, err := g.sim.AddBubbleAtMouse(g.mouse.X, g.mouse.Y); err != nil {
		slog.Warn("spawn_failed", "error", err)
	}
}

// popped plays the pop effects for a bubble that just burst.
func (g *Game) popped(pos r2.Vec, radius float64, color bubble.Color) {
	if g.sparks != nil {
		g.sparks.Emit(pos, radius, color, g.rng)
	}
	g.audio.PlayPop(radius)
}
