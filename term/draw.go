package term

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/bubbles/bubble"
	"github.com/pthm-cable/bubbles/ui"
)

// Glyphs by field intensity, from the outer glow to the surface.
var glowRunes = []rune{' ', '·', '░', '▒'}

const surfaceRune = '█'

func (f *Frontend) draw() {
	f.screen.Clear()
	f.frame.Pack(f.game.Simulation().Bubbles())

	bgStyle := tcell.StyleDefault.Background(toColor(f.background, 1))
	for row := statusRows; row < f.rows; row++ {
		for col := 0; col < f.cols; col++ {
			x, y := f.cellToWorld(col, row)
			field, color := f.frame.Sample(x, y)
			r, style := shade(field, f.threshold, color, bgStyle)
			f.screen.SetContent(col, row, r, nil, style)
		}
	}

	f.drawStatus()
	overlays := f.game.Overlays()
	if overlays.IsEnabled(ui.OverlayStats) {
		f.drawLines(f.cols-34, statusRows+1, f.statsLines())
	}
	if overlays.IsEnabled(ui.OverlayHelp) {
		lines := f.game.HelpLines()
		f.drawLines(2, statusRows+1, lines)
	}

	f.screen.Show()
}

// shade picks the glyph and style for a field value. Inside the surface the
// cell is solid in the blended color; outside, glow glyphs fade out with the
// field.
func shade(field, threshold float64, color bubble.Color, bg tcell.Style) (rune, tcell.Style) {
	if threshold <= 0 || field <= 0 {
		return ' ', bg
	}
	ratio := field / threshold
	if ratio >= 1 {
		// Brighten toward the centre like the shader's highlight.
		boost := min(1+0.15*(ratio-1), 1.3)
		return surfaceRune, bg.Foreground(toColor(color, boost))
	}
	idx := int(ratio * float64(len(glowRunes)))
	if idx <= 0 {
		return ' ', bg
	}
	return glowRunes[min(idx, len(glowRunes)-1)], bg.Foreground(toColor(color, 0.4+0.6*ratio))
}

// toColor converts a [0, 1] color scaled by gain to a terminal RGB color.
func toColor(c bubble.Color, gain float64) tcell.Color {
	conv := func(v float32) int32 {
		return int32(min(max(float64(v)*gain, 0), 1) * 255)
	}
	return tcell.NewRGBColor(conv(c.R), conv(c.G), conv(c.B))
}

func (f *Frontend) drawStatus() {
	g := f.game
	sim := g.Simulation()
	status := "RUNNING"
	if g.Paused() {
		status = "PAUSED"
	}
	text := fmt.Sprintf(" Bubbles %d/%d | %s | %.0f fps | repulsion %.0f r=%.0f | h help, q quit",
		sim.Count(), sim.MaxBubbles(), status, g.AvgFPS(), sim.RepulsionStrength(), sim.RepulsionRadius())
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	for col := 0; col < f.cols; col++ {
		f.screen.SetContent(col, 0, ' ', nil, style)
	}
	f.drawText(0, 0, text, style)
}

func (f *Frontend) statsLines() []string {
	g := f.game
	sim := g.Simulation()
	st := sim.Stats()
	m := sim.MousePosition()
	return []string{
		"Statistics",
		fmt.Sprintf("  Bubbles     %3d / %d", st.Count, sim.MaxBubbles()),
		fmt.Sprintf("  Avg radius  %6.1f", st.MeanRadius),
		fmt.Sprintf("  Avg speed   %6.1f", st.MeanSpeed),
		fmt.Sprintf("  Energy      %6.1f", st.TotalEnergy),
		fmt.Sprintf("  FPS         %6.1f", g.AvgFPS()),
		fmt.Sprintf("  Frame       %6d", g.Frame()),
		fmt.Sprintf("  Mouse       (%.0f, %.0f)", m.X, m.Y),
	}
}

func (f *Frontend) drawLines(col, row int, lines []string) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	width := 0
	for _, l := range lines {
		width = max(width, len([]rune(l)))
	}
	col = max(col, 0)
	for i, l := range lines {
		r := row + i
		if r >= f.rows {
			return
		}
		for c := 0; c < width+2; c++ {
			f.screen.SetContent(col+c, r, ' ', nil, style)
		}
		f.drawText(col+1, r, l, style)
	}
}

func (f *Frontend) drawText(col, row int, text string, style tcell.Style) {
	for _, r := range text {
		if col >= f.cols {
			return
		}
		f.screen.SetContent(col, row, r, nil, style)
		col++
	}
}
