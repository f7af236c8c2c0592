// Package term is a terminal frontend: it samples the metaball field once
// per character cell and draws it with tcell, mapping keys and mouse to the
// same commands as the raylib window.
package term

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/bubbles/bubble"
	"github.com/pthm-cable/bubbles/config"
	"github.com/pthm-cable/bubbles/game"
	"github.com/pthm-cable/bubbles/renderer"
	"github.com/pthm-cable/bubbles/ui"
)

const (
	frameInterval = 16 * time.Millisecond // ~60 FPS
	statusRows    = 1
)

// Frontend owns the terminal screen and the loop that drives the game.
type Frontend struct {
	screen tcell.Screen
	game   *game.Game
	frame  *renderer.Frame

	threshold  float64
	background bubble.Color
	spawnBatch int
	burstCount int
	worldW     float64
	worldH     float64

	cols, rows int
	buttons    tcell.ButtonMask // last mouse button state
	quit       bool
}

// New wraps an uninitialized screen. The screen is initialized here and
// finalized by Close.
func New(screen tcell.Screen, g *game.Game, cfg *config.Config) (*Frontend, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initializing terminal: %w", err)
	}
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()

	bg := cfg.Render.Background
	f := &Frontend{
		screen:     screen,
		game:       g,
		frame:      renderer.NewFrame(cfg.Render.MaxSlots),
		threshold:  cfg.Render.Threshold,
		background: bubble.Color{R: bg[0], G: bg[1], B: bg[2]},
		spawnBatch: cfg.Input.SpawnBatch,
		burstCount: cfg.Burst.Count,
		worldW:     cfg.Derived.WorldW,
		worldH:     cfg.Derived.WorldH,
	}
	f.cols, f.rows = screen.Size()
	return f, nil
}

// Run processes events and frames until quit or maxTicks simulation steps
// (0 = unlimited).
func (f *Frontend) Run(maxTicks int) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := f.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	last := time.Now()
	for !f.quit {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			f.handleEvent(ev)

		case now := <-ticker.C:
			f.game.Advance(now.Sub(last).Seconds())
			last = now
			f.draw()

			if maxTicks > 0 && int(f.game.Tick()) >= maxTicks {
				slog.Info("max ticks reached", "tick", f.game.Tick())
				return
			}
		}
	}
}

// Close restores the terminal.
func (f *Frontend) Close() {
	f.screen.Fini()
}

func (f *Frontend) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if !f.handleKey(ev.Key(), ev.Rune()) {
			f.quit = true
		}
	case *tcell.EventMouse:
		x, y := ev.Position()
		f.handleMouse(x, y, ev.Buttons())
	case *tcell.EventResize:
		f.cols, f.rows = f.screen.Size()
		f.screen.Sync()
	}
}

// handleKey applies a key press. It returns false to quit.
func (f *Frontend) handleKey(key tcell.Key, r rune) bool {
	g := f.game
	switch key {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		g.ScaleRepulsionStrength(true)
	case tcell.KeyDown:
		g.ScaleRepulsionStrength(false)
	case tcell.KeyRight:
		g.ScaleRepulsionRadius(true)
	case tcell.KeyLeft:
		g.ScaleRepulsionRadius(false)
	case tcell.KeyRune:
		switch r {
		case 'q':
			return false
		case ' ':
			g.AddRandom(f.spawnBatch)
		case 'c':
			g.Clear()
		case 'p':
			g.TogglePause()
		case 'r':
			g.Reset()
		case 'e':
			g.CenterBurst()
		case 's':
			g.ToggleOverlay(ui.OverlayStats)
		case 'h':
			g.ToggleOverlay(ui.OverlayHelp)
		}
	}
	return true
}

// handleMouse turns button state changes into press, drag and release.
func (f *Frontend) handleMouse(col, row int, buttons tcell.ButtonMask) {
	g := f.game
	x, y := f.cellToWorld(col, row)
	prev := f.buttons
	f.buttons = buttons

	pressed := func(b tcell.ButtonMask) bool { return buttons&b != 0 && prev&b == 0 }

	switch {
	case pressed(tcell.Button1):
		g.PressAt(x, y)
	case buttons&tcell.Button1 != 0:
		g.DragTo(x, y)
	default:
		if prev&tcell.Button1 != 0 {
			g.Release()
		}
		g.MoveMouse(x, y)
	}

	if pressed(tcell.Button2) {
		g.Burst(x, y, f.burstCount)
	}
	if pressed(tcell.Button3) {
		g.Detonate(x, y)
	}
}

// cellToWorld maps the centre of a cell to simulation space (y up). The
// status row is excluded from the field.
func (f *Frontend) cellToWorld(col, row int) (float64, float64) {
	rows := max(f.rows-statusRows, 1)
	cols := max(f.cols, 1)
	x := (float64(col) + 0.5) * f.worldW / float64(cols)
	y := f.worldH - (float64(row-statusRows)+0.5)*f.worldH/float64(rows)
	return x, y
}
