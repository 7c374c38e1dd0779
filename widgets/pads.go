package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// GridSize is the pad grid edge length
const GridSize = 8

// Grid holds one color per pad, row 0 at the bottom
type Grid [GridSize][GridSize][3]uint8

// GridFrom fills a grid from consecutive pad notes starting at first,
// eight per row, bottom row first
func GridFrom(first uint8, color func(note uint8) [3]uint8) Grid {
	var g Grid
	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			g[row][col] = color(first + uint8(row*GridSize+col))
		}
	}
	return g
}

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8, symbol rune) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render(string(symbol))
}

// RenderPadGrid renders the grid top row first. held marks pads drawn with
// heldSymbol instead of symbol.
func RenderPadGrid(g Grid, symbol, heldSymbol rune, held func(row, col int) bool) string {
	lines := make([]string, 0, GridSize)
	for row := GridSize - 1; row >= 0; row-- {
		cells := make([]string, GridSize)
		for col := 0; col < GridSize; col++ {
			s := symbol
			if held != nil && held(row, col) {
				s = heldSymbol
			}
			cells[col] = RenderPad(g[row][col], s)
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, symbol rune, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(color, symbol), name, desc)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
