package ui

import (
	"fmt"
	"math"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/bubbles/simulation"
	"github.com/pthm-cable/bubbles/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title             string
	Count             int
	MaxBubbles        int
	FPS               int32
	Paused            bool
	SimTime           float64
	WindDir           r2.Vec
	WindStrength      float64
	RepulsionStrength float64
	RepulsionRadius   float64
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Bubbles: %d/%d | FPS: %d | Time: %.1fs", data.Count, data.MaxBubbles, data.FPS, data.SimTime),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Wind: %s %.0f | Repulsion: %.0f r=%.0f",
			windArrow(data.WindDir), data.WindStrength, data.RepulsionStrength, data.RepulsionRadius),
		10, 55, 16, rl.LightGray,
	)

	if data.Paused {
		rl.DrawText("PAUSED", 10, 75, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// windArrow picks the arrow closest to the wind direction (y up).
func windArrow(dir r2.Vec) string {
	if dir.X == 0 && dir.Y == 0 {
		return "-"
	}
	arrows := []string{"E", "NE", "N", "NW", "W", "SW", "S", "SE"}
	angle := math.Atan2(dir.Y, dir.X)
	idx := int(math.Round(angle/(math.Pi/4))+8) % 8
	return arrows[idx]
}

// StatsData holds everything the statistics panel shows.
type StatsData struct {
	Stats             simulation.Stats
	MaxBubbles        int
	AvgFPS            float64
	Frame             int
	Paused            bool
	Mouse             r2.Vec
	RepulsionStrength float64
	RepulsionRadius   float64
}

func statsOf(d any) StatsData { return d.(StatsData) }

// statsSections describes the statistics panel layout.
var statsSections = []SectionDescriptor{
	{
		Title: "Population",
		Fields: []FieldDescriptor{
			{
				Label:     "Bubbles",
				Widget:    WidgetFill,
				Getter:    func(d any) float32 { return float32(statsOf(d).Stats.Count) },
				MaxGetter: func(d any) float32 { return float32(statsOf(d).MaxBubbles) },
			},
			{Label: "Avg radius", Format: "%.1f", Getter: func(d any) float32 { return float32(statsOf(d).Stats.MeanRadius) }},
			{Label: "Avg speed", Format: "%.1f", Getter: func(d any) float32 { return float32(statsOf(d).Stats.MeanSpeed) }},
			{Label: "Total energy", Format: "%.1f", Getter: func(d any) float32 { return float32(statsOf(d).Stats.TotalEnergy) }},
		},
	},
	{
		Title: "Run",
		Fields: []FieldDescriptor{
			{Label: "FPS", Format: "%.1f", Getter: func(d any) float32 { return float32(statsOf(d).AvgFPS) }},
			{Label: "Frame", TextGetter: func(d any) string { return fmt.Sprintf("%d", statsOf(d).Frame) }},
			{Label: "Status", TextGetter: func(d any) string {
				if statsOf(d).Paused {
					return "PAUSED"
				}
				return "RUNNING"
			}},
			{Label: "Mouse", TextGetter: func(d any) string {
				m := statsOf(d).Mouse
				return fmt.Sprintf("(%.1f, %.1f)", m.X, m.Y)
			}},
		},
	},
	{
		Title: "Repulsion",
		Fields: []FieldDescriptor{
			{Label: "Strength", Format: "%.0f", Getter: func(d any) float32 { return float32(statsOf(d).RepulsionStrength) }},
			{Label: "Radius", Format: "%.0f", Getter: func(d any) float32 { return float32(statsOf(d).RepulsionRadius) }},
		},
	},
}

// StatsPanel renders the statistics overlay.
type StatsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewStatsPanel creates a new stats panel.
func NewStatsPanel(x, y, width int32) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *StatsPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the stats panel.
func (p *StatsPanel) Draw(data StatsData) {
	r := p.renderer
	padding := r.Theme.Padding

	height := padding*2 + r.Theme.LineHeight + 4
	for _, sd := range statsSections {
		height += r.SectionHeight(sd, data)
	}
	r.DrawPanel(p.x, p.y, p.width, height)

	y := p.y + padding
	rl.DrawText("Statistics", p.x+padding, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	for _, sd := range statsSections {
		y = r.DrawSection(p.x+padding, y, sd, data, p.width-padding*2)
	}
}

// PerfPanel renders the per-phase tick timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel. Phases are listed in the given order.
func (p *PerfPanel) Draw(stats telemetry.PerfStats, phases []string) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s  Max: %s", stats.AvgTickDuration.Round(time.Microsecond), stats.MaxTickDuration.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range phases {
		avg := stats.PhaseAvg[name]
		pct := stats.PhasePct[name]

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
