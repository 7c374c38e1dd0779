package router

import (
	"go-midirouter/chord"
	"go-midirouter/midi"
)

// Push 2 numeric layout
const (
	ScaleFirstCC uint8 = 20 // scale select row, one control per catalog scale
	ScaleLastCC  uint8 = 27
	OctaveDownCC uint8 = 54
	OctaveUpCC   uint8 = 55
	LatchCC      uint8 = 57

	FirstNotePad uint8 = 36 // 8x6 note grid, bottom-left first
	LastNotePad  uint8 = 83
	FirstModPad  uint8 = 84 // top two pad rows hold the chord modifiers
	LastModPad   uint8 = 99

	GridColumns = 8
	NoteRows    = 6
	NumModPads  = int(LastModPad-FirstModPad) + 1

	// MinOctave and MaxOctave bound the performer's octave shift
	MinOctave = -3
	MaxOctave = 3
	// baseOctave puts the bottom-left pad on the table's fourth octave (C2 in C)
	baseOctave = 3

	maxValue uint8 = 127
)

// Modifier bound to each modifier pad, FirstModPad first
var padModifiers = [NumModPads]chord.Modifier{
	chord.Min, chord.Sus4, chord.Dim, chord.Min, chord.Sus4, chord.Dim, chord.Min, chord.Sus4,
	chord.Triad, chord.Sus2, chord.Aug, chord.Maj7, chord.Sus2, chord.Aug, chord.Inv, chord.Sus2,
}

var modifierColors = [chord.NumModifiers]uint8{
	chord.Min:   midi.ColorPink,
	chord.Sus2:  midi.ColorTeal,
	chord.Sus4:  midi.ColorTeal,
	chord.Dim:   midi.ColorYellow,
	chord.Aug:   midi.ColorYellow,
	chord.Maj7:  midi.ColorRose,
	chord.Triad: midi.ColorRose,
	chord.Inv:   midi.ColorRose,
}

// PadModifier returns the modifier bound to a modifier pad
func PadModifier(pad uint8) (chord.Modifier, bool) {
	if !isModPad(pad) {
		return 0, false
	}
	return padModifiers[pad-FirstModPad], true
}

func isModPad(n uint8) bool  { return n >= FirstModPad && n <= LastModPad }
func isNotePad(n uint8) bool { return n >= FirstNotePad && n <= LastNotePad }
func isScaleCC(n uint8) bool { return n >= ScaleFirstCC && n <= ScaleLastCC }

// ModifierRestingColor is the idle color of a modifier pad
func ModifierRestingColor(pad uint8) uint8 {
	m, ok := PadModifier(pad)
	if !ok {
		return midi.ColorBlack
	}
	return modifierColors[m]
}

// NoteRestingColor is the idle color of a note pad: columns 0 and 4 are
// highlighted as visual anchors
func NoteRestingColor(pad uint8) uint8 {
	if col := (pad - FirstNotePad) % GridColumns; col == 0 || col == 4 {
		return midi.ColorLightGray
	}
	return midi.ColorDarkGray
}

// ScaleForCC maps a scale-select control to its scale
func ScaleForCC(cc uint8) (chord.ScaleType, bool) {
	if !isScaleCC(cc) {
		return 0, false
	}
	return chord.ScaleType(cc - ScaleFirstCC), true
}

// PadIndex converts a note pad to a scale index for the given scale size and octave
func PadIndex(pad uint8, size, octave int) int {
	row := int(pad-FirstNotePad) / GridColumns
	col := int(pad-FirstNotePad) % GridColumns
	return size*(row+baseOctave+octave) + col
}
