package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridFrom(t *testing.T) {
	g := GridFrom(36, func(note uint8) [3]uint8 { return [3]uint8{note, 0, 0} })
	assert.Equal(t, uint8(36), g[0][0][0])
	assert.Equal(t, uint8(43), g[0][7][0])
	assert.Equal(t, uint8(44), g[1][0][0])
	assert.Equal(t, uint8(99), g[7][7][0])
}

func TestRenderPadGrid(t *testing.T) {
	held := func(row, col int) bool { return row == 0 && col == 0 }
	out := RenderPadGrid(Grid{}, 'o', 'x', held)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, GridSize)
	assert.Equal(t, 2*GridSize-1, lipgloss.Width(lines[0]))
	assert.Equal(t, GridSize, strings.Count(lines[0], "o"))
	// bottom row is printed last
	assert.Equal(t, 1, strings.Count(lines[GridSize-1], "x"))
	assert.Equal(t, 0, strings.Count(lines[0], "x"))
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{
		{Title: "Routers", Keys: []KeyBinding{{Key: "tab", Desc: "next router"}}},
		{Keys: []KeyBinding{{Key: "q", Desc: "quit"}}},
	})
	assert.Equal(t, "Routers\n  tab          next router\n  q            quit", out)
}

func TestRgbToHex(t *testing.T) {
	assert.Equal(t, "#00aaff", rgbToHex([3]uint8{0, 170, 255}))
}
