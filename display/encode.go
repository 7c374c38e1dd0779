package display

// xorPattern de-whitens the payload, applied word by word
var xorPattern = [2]uint16{0xE7F3, 0xE7FF}

// Encode converts a frame into the display's wire payload:
//
//	for every line: 960 pixels + 64 filler pixels
//	each pixel: RGB565 -> BGR565, byte swap, XOR pattern, byte swap, little-endian
//
// dst is reused when it has room for PayloadSize bytes.
func Encode(f *PixelFrame, dst []byte) []byte {
	if cap(dst) < PayloadSize {
		dst = make([]byte, PayloadSize)
	}
	dst = dst[:PayloadSize]

	i := 0
	for y := 0; y < Height; y++ {
		line := f.Pix[y*Width : (y+1)*Width]
		for x := 0; x < LinePixels; x++ {
			var p uint16
			if x < Width {
				p = toBGR(line[x])
			}
			w := swap16(swap16(p) ^ xorPattern[x&1])
			dst[i] = byte(w)
			dst[i+1] = byte(w >> 8)
			i += 2
		}
	}
	return dst
}

func toBGR(p uint16) uint16 {
	r := (p & 0xF800) >> 11
	g := p & 0x07E0
	b := (p & 0x001F) << 11
	return r | g | b
}

func swap16(v uint16) uint16 {
	return v<<8 | v>>8
}
