package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HelpData carries the live values printed under the key reference.
type HelpData struct {
	MaxBubbles        int
	RepulsionStrength float64
	RepulsionRadius   float64
}

type helpSection struct {
	title string
	rows  [][2]string
}

var helpSections = []helpSection{
	{"Mouse", [][2]string{
		{"Left click", "Pop the bubble under the cursor, or add one"},
		{"Right click", "Burst of bubbles"},
		{"Middle click", "Detonate the bubble under the cursor"},
		{"Drag", "Sweep: pop or spawn along the path"},
		{"Move", "Repel bubbles"},
	}},
	{"Keyboard", [][2]string{
		{"SPACE", "Add 8 random bubbles"},
		{"C", "Clear all bubbles"},
		{"P", "Pause / resume"},
		{"S", "Toggle statistics"},
		{"R", "Reset simulation"},
		{"E", "Burst at the centre"},
		{"G", "Toggle repulsion controls"},
		{"F", "Toggle tick performance"},
	}},
	{"Repulsion", [][2]string{
		{"UP / DOWN", "Increase / decrease strength"},
		{"LEFT / RIGHT", "Decrease / increase radius"},
	}},
	{"Other", [][2]string{
		{"H", "Show this help"},
	}},
}

// HelpLines returns the help screen as plain text lines. The terminal
// frontend prints the same content.
func HelpLines(data HelpData) []string {
	var lines []string
	for _, s := range helpSections {
		lines = append(lines, s.title)
		for _, row := range s.rows {
			lines = append(lines, fmt.Sprintf("  %-14s %s", row[0], row[1]))
		}
	}
	lines = append(lines,
		"Current",
		fmt.Sprintf("  %-14s %d", "Max bubbles", data.MaxBubbles),
		fmt.Sprintf("  %-14s %.0f", "Strength", data.RepulsionStrength),
		fmt.Sprintf("  %-14s %.0f", "Radius", data.RepulsionRadius),
	)
	return lines
}

// HelpPanel renders the help overlay centred on screen.
type HelpPanel struct {
	renderer *Renderer
}

// NewHelpPanel creates a help overlay.
func NewHelpPanel() *HelpPanel {
	return &HelpPanel{renderer: NewRenderer()}
}

// Draw renders the key reference centred in a screenWidth x screenHeight window.
func (h *HelpPanel) Draw(screenWidth, screenHeight int32, data HelpData) {
	r := h.renderer
	padding := r.Theme.Padding
	lines := HelpLines(data)

	width := int32(420)
	height := int32(len(lines))*r.Theme.LineHeight + padding*3 + 20
	x := (screenWidth - width) / 2
	y := (screenHeight - height) / 2
	r.DrawPanel(x, y, width, height)

	ty := y + padding
	rl.DrawText("Bubble Simulator Controls", x+padding, ty, 18, rl.White)
	ty += 20 + padding

	for _, line := range lines {
		color := r.Theme.LabelColor
		if len(line) > 0 && line[0] != ' ' {
			color = r.Theme.SectionHeader
		}
		rl.DrawText(line, x+padding, ty, r.Theme.FontSize, color)
		ty += r.Theme.LineHeight
	}
}
