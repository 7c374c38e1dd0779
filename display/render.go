package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"go-midirouter/theme"
)

// View is everything the display shows
type View struct {
	Root        string
	Chords      []string // held chord names
	Notes       []string // sounding note names
	Modifiers   string
	Scales      []string
	ActiveScale int
	Octave      int
	Latch       bool
	Status      string // free text, top right (link, router name)
}

// Font sizes (points at 72 DPI, so 1pt = 1px)
const (
	chordSize  = 40
	noteSize   = 20
	smallSize  = 14
	dpi        = 72
	margin     = 10
	chordWidth = 236 // at most four held chords fit on a line
	scaleWidth = 120 // eight scale names across the bottom
)

// Renderer paints Views into PixelFrames. Not safe for concurrent use.
type Renderer struct {
	font  *truetype.Font
	ctx   *freetype.Context
	img   *image.RGBA
	faces map[float64]font.Face

	bg, fg, accent, muted, warn color.RGBA
}

// NewRenderer loads the Go Regular font and takes its colors from th
func NewRenderer(th *theme.Theme) (*Renderer, error) {
	f, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("parse display font"))
	}

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	c := freetype.NewContext()
	c.SetDPI(dpi)
	c.SetFont(f)
	c.SetHinting(font.HintingFull)
	c.SetClip(img.Bounds())
	c.SetDst(img)

	return &Renderer{
		font:   f,
		ctx:    c,
		img:    img,
		faces:  make(map[float64]font.Face),
		bg:     rgba(th.RGB(theme.RoleBG)),
		fg:     rgba(th.RGB(theme.RoleFG)),
		accent: rgba(th.RGB(theme.RoleSuccess)),
		muted:  rgba(th.RGB(theme.RoleMuted)),
		warn:   rgba(th.RGB(theme.RoleWarning)),
	}, nil
}

// Render draws v into a fresh frame
func (r *Renderer) Render(v View) *PixelFrame {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(r.bg), image.Point{}, draw.Src)

	for i, name := range v.Chords {
		if i >= Width/chordWidth {
			break
		}
		r.text(name, chordSize, r.accent, margin+i*chordWidth, 55)
	}

	if len(v.Notes) > 0 {
		r.text(strings.Join(v.Notes, "  "), noteSize, r.fg, margin, 100)
	}

	status := fmt.Sprintf("%s  oct %+d", v.Root, v.Octave)
	if v.Latch {
		status += "  latch"
	}
	if v.Modifiers != "" {
		status += "  " + v.Modifiers
	}
	if v.Status != "" {
		status += "  " + v.Status
	}
	r.textRight(status, smallSize, r.warn, Width-margin, 20)

	for i, name := range v.Scales {
		c := r.muted
		if i == v.ActiveScale {
			c = r.fg
		}
		r.text(name, smallSize, c, margin+i*scaleWidth, 150)
	}

	return FromImage(r.img)
}

func (r *Renderer) text(s string, size float64, c color.RGBA, x, y int) {
	r.ctx.SetFontSize(size)
	r.ctx.SetSrc(image.NewUniform(c))
	// fails only without a font
	_, _ = r.ctx.DrawString(s, freetype.Pt(x, y))
}

func (r *Renderer) textRight(s string, size float64, c color.RGBA, right, y int) {
	w := font.MeasureString(r.face(size), s)
	r.text(s, size, c, right-w.Ceil(), y)
}

// TextWidth reports how wide s renders at size, in pixels
func (r *Renderer) TextWidth(s string, size float64) int {
	return font.MeasureString(r.face(size), s).Ceil()
}

func (r *Renderer) face(size float64) font.Face {
	if f, ok := r.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(r.font, &truetype.Options{Size: size, DPI: dpi, Hinting: font.HintingFull})
	r.faces[size] = f
	return f
}

func rgba(c theme.RGB) color.RGBA {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 0xFF}
}

// TestPattern paints vertical color bars, for checking a display link
func TestPattern() *PixelFrame {
	bars := []uint16{
		RGB565(255, 255, 255), RGB565(255, 255, 0), RGB565(0, 255, 255), RGB565(0, 255, 0),
		RGB565(255, 0, 255), RGB565(255, 0, 0), RGB565(0, 0, 255), RGB565(0, 0, 0),
	}
	f := NewPixelFrame()
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			f.Set(x, y, bars[x*len(bars)/Width])
		}
	}
	return f
}
