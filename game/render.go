package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/bubbles/telemetry"
	"github.com/pthm-cable/bubbles/ui"
)

const controlsLegend = "[H] help  [S] stats  [G] controls  [F] perf  [P] pause"

// Draw renders the game.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.metaballs.Draw(g.sim.Bubbles(), float32(g.simTime))
	g.sparks.Draw()

	g.drawHUD()
	g.drawOverlays()

	rl.EndDrawing()
}

func (g *Game) drawHUD() {
	dir, strength := g.sim.Wind()
	g.hud.Draw(ui.HUDData{
		Title:             "Bubble Simulator",
		Count:             g.sim.Count(),
		MaxBubbles:        g.sim.MaxBubbles(),
		FPS:               rl.GetFPS(),
		Paused:            g.paused,
		SimTime:           g.simTime,
		WindDir:           dir,
		WindStrength:      strength,
		RepulsionStrength: g.sim.RepulsionStrength(),
		RepulsionRadius:   g.sim.RepulsionRadius(),
	})
	g.hud.DrawControls(int32(g.cfg.Screen.Height), controlsLegend)
}

func (g *Game) drawOverlays() {
	if g.overlays.IsEnabled(ui.OverlayStats) {
		g.statsPanel.Draw(ui.StatsData{
			Stats:             g.sim.Stats(),
			MaxBubbles:        g.sim.MaxBubbles(),
			AvgFPS:            g.AvgFPS(),
			Frame:             g.frame,
			Paused:            g.paused,
			Mouse:             g.mouse,
			RepulsionStrength: g.sim.RepulsionStrength(),
			RepulsionRadius:   g.sim.RepulsionRadius(),
		})
	}

	if g.overlays.IsEnabled(ui.OverlayPerf) {
		g.perfPanel.Draw(g.perfCollector.Stats(), telemetry.Phases)
	}

	if g.overlays.IsEnabled(ui.OverlayControls) {
		state, action := g.controls.Draw(ui.ControlsState{
			Strength: g.sim.RepulsionStrength(),
			Radius:   g.sim.RepulsionRadius(),
		})
		g.sim.SetRepulsionStrength(state.Strength)
		g.sim.SetRepulsionRadius(state.Radius)
		switch {
		case action.Clear:
			g.Clear()
		case action.Reset:
			g.Reset()
		case action.Burst:
			g.CenterBurst()
		}
	}

	if g.overlays.IsEnabled(ui.OverlayHelp) {
		g.helpPanel.Draw(int32(g.cfg.Screen.Width), int32(g.cfg.Screen.Height), g.helpData())
	}
}

func (g *Game) helpData() ui.HelpData {
	return ui.HelpData{
		MaxBubbles:        g.sim.MaxBubbles(),
		RepulsionStrength: g.sim.RepulsionStrength(),
		RepulsionRadius:   g.sim.RepulsionRadius(),
	}
}

// HelpLines returns the help text with the current settings.
func (g *Game) HelpLines() []string {
	return ui.HelpLines(g.helpData())
}
