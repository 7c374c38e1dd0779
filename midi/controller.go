package midi

// Surface is the LED side of a control surface
type Surface interface {
	ID() string
	LightPad(note, color uint8) error
	LightControl(cc, color uint8) error
	Close() error
}

// Push 2 palette indices (velocity / CC value selects the color)
const (
	ColorBlack     uint8 = 0
	ColorRose      uint8 = 1
	ColorPink      uint8 = 30
	ColorTeal      uint8 = 36
	ColorYellow    uint8 = 40
	ColorWhite     uint8 = 122
	ColorLightGray uint8 = 123
	ColorDarkGray  uint8 = 124
	ColorBlue      uint8 = 125
	ColorGreen     uint8 = 126
	ColorRed       uint8 = 127
)

// push2RGB approximates the factory palette for on-screen previews
var push2RGB = map[uint8][3]uint8{
	ColorBlack:     {0, 0, 0},
	ColorRose:      {237, 89, 128},
	ColorPink:      {204, 51, 153},
	ColorTeal:      {0, 170, 170},
	ColorYellow:    {230, 200, 0},
	ColorWhite:     {255, 255, 255},
	ColorLightGray: {160, 160, 160},
	ColorDarkGray:  {64, 64, 64},
	ColorBlue:      {0, 100, 255},
	ColorGreen:     {0, 255, 0},
	ColorRed:       {255, 0, 0},
}

// ColorRGB returns an RGB preview for a palette index. Unknown indices render dark gray.
func ColorRGB(color uint8) [3]uint8 {
	if rgb, ok := push2RGB[color]; ok {
		return rgb
	}
	return push2RGB[ColorDarkGray]
}
