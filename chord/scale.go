package chord

import (
	"errors"
	"fmt"
	"strings"
)

// ScaleType identifies one of the fixed scale patterns
type ScaleType int

// Catalog order matches the scale-select row on the controller (left to right)
const (
	ScaleMajor ScaleType = iota
	ScaleMinor
	ScaleNaturalMinor
	ScaleMelodicMinor
	ScaleDorian
	ScaleLocrian
	ScaleLydian
	ScaleMixolydian
	NumScales
)

// Scale definitions - intervals from root (semitones), one octave
var scales = [NumScales][]int{
	ScaleMajor:        {0, 2, 4, 5, 7, 9, 11},
	ScaleMinor:        {0, 2, 3, 5, 7, 8, 10},
	ScaleNaturalMinor: {0, 2, 3, 5, 7, 8, 10},
	ScaleMelodicMinor: {0, 2, 3, 5, 7, 9, 11},
	ScaleDorian:       {0, 2, 3, 5, 7, 9, 10},
	ScaleLocrian:      {0, 1, 3, 5, 6, 8, 10},
	ScaleLydian:       {0, 2, 4, 6, 7, 9, 11},
	ScaleMixolydian:   {0, 2, 4, 5, 7, 9, 10},
}

var scaleNames = [NumScales]string{
	"major",
	"minor",
	"natural minor",
	"melodic minor",
	"dorian",
	"locrian",
	"lydian",
	"mixolydian",
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var flatNames = map[string]string{
	"DB": "C#", "EB": "D#", "GB": "F#", "AB": "G#", "BB": "A#",
}

var (
	ErrUnknownScale = errors.New("unknown scale")
	ErrUnknownRoot  = errors.New("unknown root note")
)

func (s ScaleType) String() string {
	if s < 0 || s >= NumScales {
		return fmt.Sprintf("scale(%d)", int(s))
	}
	return scaleNames[s]
}

// ScaleNames lists the catalog in selector order
func ScaleNames() []string {
	return append([]string(nil), scaleNames[:]...)
}

// ParseScale looks up a scale by name. Case, dashes and underscores are ignored.
func ParseScale(name string) (ScaleType, error) {
	norm := strings.ToLower(strings.TrimSpace(name))
	norm = strings.NewReplacer("-", " ", "_", " ").Replace(norm)
	for i, n := range scaleNames {
		if n == norm {
			return ScaleType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScale, name)
}

// ParseRoot converts a pitch-class name (C, F#, Bb...) to 0-11
func ParseRoot(name string) (int, error) {
	norm := strings.ToUpper(strings.TrimSpace(name))
	if alias, ok := flatNames[norm]; ok {
		norm = alias
	}
	for i, n := range noteNames {
		if n == norm {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRoot, name)
}

// NoteName formats a MIDI note as name+octave (60 = C4)
func NoteName(note int) string {
	if note < 0 {
		return "?"
	}
	return fmt.Sprintf("%s%d", noteNames[note%12], note/12-1)
}

// PitchName formats a MIDI note without its octave
func PitchName(note int) string {
	if note < 0 {
		return "?"
	}
	return noteNames[note%12]
}

// Table maps scale-relative indices to absolute MIDI notes.
// Index 0 is the root in octave -1; indices grow one scale degree at a time.
type Table struct {
	root  int
	scale ScaleType
	notes []int
}

// NewTable builds the lookup for root (0-11) and scale across 0..127
func NewTable(root int, scale ScaleType) *Table {
	t := &Table{root: ((root % 12) + 12) % 12, scale: scale}
	steps := scales[scale]
	for base := t.root; base <= 127; base += 12 {
		for _, off := range steps {
			if n := base + off; n <= 127 {
				t.notes = append(t.notes, n)
			}
		}
	}
	return t
}

func (t *Table) Root() int        { return t.root }
func (t *Table) Scale() ScaleType { return t.scale }

// Size is the number of degrees per octave
func (t *Table) Size() int { return len(scales[t.scale]) }

// Notes returns every in-range note of the table in ascending order
func (t *Table) Notes() []int {
	return append([]int(nil), t.notes...)
}

// Degree returns the note for scale index i. Indices past either end of the
// table extrapolate by whole octaves, so the result may fall outside 0..127.
func (t *Table) Degree(i int) int {
	if i >= 0 && i < len(t.notes) {
		return t.notes[i]
	}
	size := t.Size()
	octave := i / size
	step := i % size
	if step < 0 {
		step += size
		octave--
	}
	return t.root + 12*octave + scales[t.scale][step]
}
