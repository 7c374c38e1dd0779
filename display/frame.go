package display

import (
	"image"
	"image/color"
)

// Push 2 display geometry and wire layout
const (
	Width  = 960
	Height = 160

	// every line is padded with filler pixels before transfer
	LineFiller  = 64
	LinePixels  = Width + LineFiller
	LineBytes   = LinePixels * 2
	PayloadSize = LineBytes * Height // 327680

	HeaderSize = 16
)

// Header precedes every frame payload
var Header = [HeaderSize]byte{0xFF, 0xCC, 0xAA, 0x88}

// PixelFrame is a 960x160 RGB565 buffer, row-major, top line first
type PixelFrame struct {
	Pix []uint16
}

func NewPixelFrame() *PixelFrame {
	return &PixelFrame{Pix: make([]uint16, Width*Height)}
}

func (f *PixelFrame) Set(x, y int, c uint16) {
	if x < 0 || y < 0 || x >= Width || y >= Height {
		return
	}
	f.Pix[y*Width+x] = c
}

func (f *PixelFrame) At(x, y int) uint16 {
	return f.Pix[y*Width+x]
}

// RGB565 packs 8-bit channels into 5-6-5
func RGB565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// FromImage converts the top-left 960x160 of img into a frame
func FromImage(img image.Image) *PixelFrame {
	f := NewPixelFrame()
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < Height && y < b.Dy(); y++ {
			row := rgba.Pix[y*rgba.Stride:]
			for x := 0; x < Width && x < b.Dx(); x++ {
				p := row[x*4 : x*4+3]
				f.Pix[y*Width+x] = RGB565(p[0], p[1], p[2])
			}
		}
		return f
	}
	for y := 0; y < Height && y < b.Dy(); y++ {
		for x := 0; x < Width && x < b.Dx(); x++ {
			c := color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			f.Pix[y*Width+x] = RGB565(c.R, c.G, c.B)
		}
	}
	return f
}
