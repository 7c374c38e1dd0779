package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-midirouter/theme"
)

func newTestRenderer(t *testing.T) (*Renderer, uint16) {
	th := theme.New(theme.DefaultPalette())
	r, err := NewRenderer(th)
	require.NoError(t, err)
	bg := th.RGB(theme.RoleBG)
	return r, RGB565(bg[0], bg[1], bg[2])
}

func countInk(f *PixelFrame, bg uint16, x0, y0, x1, y1 int) int {
	n := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if f.At(x, y) != bg {
				n++
			}
		}
	}
	return n
}

func TestRenderEmptyView(t *testing.T) {
	r, bg := newTestRenderer(t)
	f := r.Render(View{Root: "C", Scales: []string{"major", "minor"}})

	assert.Zero(t, countInk(f, bg, 0, 25, Width, 110), "no chord or note text")
	assert.NotZero(t, countInk(f, bg, 0, 130, Width, Height), "scale row")
	assert.Equal(t, bg, f.At(Width-1, Height-1))
}

func TestRenderChords(t *testing.T) {
	r, bg := newTestRenderer(t)
	v := View{
		Root:   "C",
		Chords: []string{"C2 min", "E2"},
		Notes:  []string{"C2", "D#2", "G2", "E2"},
		Scales: []string{"major"},
	}
	f := r.Render(v)

	assert.NotZero(t, countInk(f, bg, margin, 15, chordWidth, 60), "first chord")
	assert.NotZero(t, countInk(f, bg, margin+chordWidth, 15, 2*chordWidth, 60), "second chord")
	assert.Zero(t, countInk(f, bg, margin+3*chordWidth, 30, Width, 60), "only two chords")
	assert.NotZero(t, countInk(f, bg, margin, 80, Width/2, 105), "note names")

	// same view, same pixels
	assert.Equal(t, f.Pix, r.Render(v).Pix)
}

func TestRenderActiveScaleHighlighted(t *testing.T) {
	r, _ := newTestRenderer(t)
	th := theme.New(theme.DefaultPalette())
	fg := th.RGB(theme.RoleFG)
	fg565 := RGB565(fg[0], fg[1], fg[2])

	scales := []string{"major", "minor"}
	a := r.Render(View{Scales: scales, ActiveScale: 0})
	b := r.Render(View{Scales: scales, ActiveScale: 1})

	hasFG := func(f *PixelFrame, x0, x1 int) bool {
		for y := 135; y < Height; y++ {
			for x := x0; x < x1; x++ {
				if f.At(x, y) == fg565 {
					return true
				}
			}
		}
		return false
	}
	assert.True(t, hasFG(a, 0, scaleWidth))
	assert.False(t, hasFG(a, scaleWidth, 2*scaleWidth))
	assert.True(t, hasFG(b, scaleWidth, 2*scaleWidth))
}

func TestRendererTextWidth(t *testing.T) {
	r, _ := newTestRenderer(t)
	assert.Greater(t, r.TextWidth("mixolydian", smallSize), r.TextWidth("major", smallSize))
	assert.Zero(t, r.TextWidth("", smallSize))
}
