// Package game drives the bubble simulation: frame timing, input, effects,
// telemetry and drawing. The same Game runs headless, behind the terminal
// frontend, or in a raylib window.
package game

import (
	"log/slog"
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/bubbles/audio"
	"github.com/pthm-cable/bubbles/config"
	"github.com/pthm-cable/bubbles/renderer"
	"github.com/pthm-cable/bubbles/simulation"
	"github.com/pthm-cable/bubbles/telemetry"
	"github.com/pthm-cable/bubbles/ui"
)

// fpsHistorySize is the number of frames averaged for the FPS readout.
const fpsHistorySize = 60

// Options configures a Game.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string
	Headless       bool // no raylib resources are created
	Audio          bool
	StepsPerUpdate int
}

// Game holds the complete game state.
type Game struct {
	cfg     *config.Config
	rng     *rand.Rand
	rngSeed int64
	sim     *simulation.Simulation

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool

	// Effects
	sparks *renderer.Sparks
	audio  *audio.Player

	// Rendering (nil when headless)
	metaballs  *renderer.MetaballRenderer
	hud        *ui.HUD
	statsPanel *ui.StatsPanel
	perfPanel  *ui.PerfPanel
	helpPanel  *ui.HelpPanel
	controls   *ui.ControlsPanel
	overlays   *ui.OverlayRegistry

	// State
	tick           int32
	frame          int
	simTime        float64
	paused         bool
	headless       bool
	stepsPerUpdate int
	mouse          r2.Vec // simulation space, y up
	drag           dragState
	fpsHistory     []float64
}

// dragState tracks a left-button drag across frames.
type dragState struct {
	pressed    bool
	spawning   bool
	spawnTimer float64
}

// NewGameWithOptions creates a game from the global config and seeds the
// initial population.
func NewGameWithOptions(opts Options) *Game {
	cfg := config.Cfg()

	rngSeed := opts.Seed
	rng := rand.New(rand.NewSource(rngSeed))

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	g := &Game{
		cfg:              cfg,
		rng:              rng,
		rngSeed:          rngSeed,
		sim:              simulation.New(cfg, rng),
		collector:        telemetry.NewCollector(statsWindow),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		logStats:         opts.LogStats,
		overlays:         ui.NewOverlayRegistry(),
		headless:         opts.Headless,
		stepsPerUpdate:   steps,
		mouse:            r2.Vec{X: cfg.Derived.WorldW / 2, Y: cfg.Derived.WorldH / 2},
		fpsHistory:       make([]float64, 0, fpsHistorySize),
	}
	g.sim.SetRecorder(g.collector)
	g.sim.SetPhaseTimer(g.perfCollector)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
	}
	g.outputManager = om
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	if opts.Audio {
		g.audio = audio.NewPlayer(cfg.Audio)
		if err := g.audio.Init(); err != nil {
			// Non-fatal, the simulation runs without sound
			slog.Warn("audio_init_failed", "error", err)
		}
	}

	if !opts.Headless {
		g.sparks = renderer.NewSparks(int32(cfg.Screen.Height))
		g.metaballs = renderer.NewMetaballRenderer(
			int32(cfg.Screen.Width), int32(cfg.Screen.Height),
			cfg.Render.MaxSlots, cfg.Render.Threshold, cfg.Render.Background,
		)
		g.hud = ui.NewHUD()
		g.statsPanel = ui.NewStatsPanel(int32(cfg.Screen.Width)-250, 10, 240)
		g.perfPanel = ui.NewPerfPanel(10, 100)
		g.helpPanel = ui.NewHelpPanel()
		rc := cfg.Repulsion
		g.controls = ui.NewControlsPanel(10, int32(cfg.Screen.Height)-190, 300,
			rc.MinStrength, rc.MaxStrength, rc.MinRadius, rc.MaxRadius)
	}

	if err := g.sim.Reset(); err != nil {
		slog.Warn("reset_failed", "error", err)
	}
	return g
}

// Update handles raylib input and advances one rendered frame.
func (g *Game) Update() {
	g.handleInput()
	g.Advance(float64(rl.GetFrameTime()))
	g.perfCollector.RecordFrame()
}

// UpdateHeadless runs StepsPerUpdate fixed-dt ticks with no frame pacing.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step(g.cfg.Physics.DT)
	}
}

// Advance runs one frame of dt seconds: dt is clamped to Physics.MaxDT, the
// simulation steps unless paused, and drag spawning and effects update.
func (g *Game) Advance(dt float64) {
	dt = min(dt, g.cfg.Physics.MaxDT)
	if dt < 0 {
		dt = 0
	}

	g.sim.UpdateMousePosition(g.mouse.X, g.mouse.Y)

	if !g.paused {
		for i := 0; i < g.stepsPerUpdate; i++ {
			g.step(dt)
		}
		g.updateDragSpawn(dt)
	}
	if g.sparks != nil {
		g.sparks.Update(dt)
	}

	g.frame++
	if dt > 0 {
		g.recordFPS(1 / dt)
	}
	if g.overlays.IsEnabled(ui.OverlayStats) && g.frame%fpsHistorySize == 0 {
		slog.Info("simulation_stats",
			"stats", g.sim.Stats(),
			"fps", g.AvgFPS(),
			"frame", g.frame,
			"paused", g.paused,
		)
	}
}

// step runs a single simulation tick.
func (g *Game) step(dt float64) {
	g.perfCollector.StartTick()

	g.sim.Update(dt)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.Advance(dt)
	g.flushTelemetry()

	g.perfCollector.EndTick()

	g.tick++
	g.simTime += dt
}

func (g *Game) recordFPS(fps float64) {
	if len(g.fpsHistory) == fpsHistorySize {
		copy(g.fpsHistory, g.fpsHistory[1:])
		g.fpsHistory = g.fpsHistory[:fpsHistorySize-1]
	}
	g.fpsHistory = append(g.fpsHistory, fps)
}

// AvgFPS returns the mean frame rate over the last frames, from clamped dt.
func (g *Game) AvgFPS() float64 {
	if len(g.fpsHistory) == 0 {
		return 0
	}
	return stat.Mean(g.fpsHistory, nil)
}

// Unload releases all resources.
func (g *Game) Unload() {
	if g.metaballs != nil {
		g.metaballs.Unload()
	}
	g.audio.Close()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}

// Tick returns the number of simulation steps taken.
func (g *Game) Tick() int32 {
	return g.tick
}

// Frame returns the number of frames advanced.
func (g *Game) Frame() int {
	return g.frame
}

// SimTime returns elapsed simulated seconds.
func (g *Game) SimTime() float64 {
	return g.simTime
}

// Paused reports whether the simulation is paused.
func (g *Game) Paused() bool {
	return g.paused
}

// Simulation exposes the underlying simulation.
func (g *Game) Simulation() *simulation.Simulation {
	return g.sim
}

// Overlays exposes the overlay toggles.
func (g *Game) Overlays() *ui.OverlayRegistry {
	return g.overlays
}
