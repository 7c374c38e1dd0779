package chord

import (
	"strings"
)

// Modifier is a chord-shaping flag bound to one or more modifier pads
type Modifier int

const (
	Min Modifier = iota
	Sus2
	Sus4
	Dim
	Aug
	Maj7
	Triad
	Inv
	NumModifiers
)

var modifierNames = [NumModifiers]string{"min", "sus2", "sus4", "dim", "aug", "maj7", "triad", "inv"}

func (m Modifier) String() string {
	if m < 0 || m >= NumModifiers {
		return "?"
	}
	return modifierNames[m]
}

// Modifiers is a set of active modifiers
type Modifiers uint16

// With returns the set with m added
func (s Modifiers) With(m Modifier) Modifiers { return s | 1<<m }

// Without returns the set with m removed
func (s Modifiers) Without(m Modifier) Modifiers { return s &^ (1 << m) }

func (s Modifiers) Has(m Modifier) bool { return s&(1<<m) != 0 }

// Of builds a set from a list of modifiers
func Of(mods ...Modifier) Modifiers {
	var s Modifiers
	for _, m := range mods {
		s = s.With(m)
	}
	return s
}

func (s Modifiers) String() string {
	var names []string
	for m := Modifier(0); m < NumModifiers; m++ {
		if s.Has(m) {
			names = append(names, m.String())
		}
	}
	return strings.Join(names, "+")
}

// Resolve drops modifiers that lose against another active one.
// Rules apply in order: sus4 over sus2, aug over dim, sus over min, dim/aug over sus.
func (s Modifiers) Resolve() Modifiers {
	if s.Has(Sus4) {
		s = s.Without(Sus2)
	}
	if s.Has(Aug) {
		s = s.Without(Dim)
	}
	if s.Has(Sus2) || s.Has(Sus4) {
		s = s.Without(Min)
	}
	if s.Has(Dim) || s.Has(Aug) {
		s = s.Without(Sus2).Without(Sus4)
	}
	return s
}

// Result is the outcome of building a chord for one pad
type Result struct {
	Tones     []int  // first tone is always the unmodified root
	Type      string // "maj7" or ""
	ModifierA string // "min" or ""
	ModifierB string // "dim", "aug", "sus2", "sus4" or ""
}

// Root returns the unmodified root tone
func (r Result) Root() int {
	if len(r.Tones) == 0 {
		return -1
	}
	return r.Tones[0]
}

// Name formats the chord as "C4 min maj7"
func (r Result) Name() string {
	parts := []string{NoteName(r.Root())}
	for _, label := range []string{r.ModifierA, r.ModifierB, r.Type} {
		if label != "" {
			parts = append(parts, label)
		}
	}
	return strings.Join(parts, " ")
}

// Build computes the chord for scale index under mods. It reports false when
// the root itself falls outside the MIDI range; other tones out of range are
// dropped from the result.
func Build(t *Table, index int, mods Modifiers) (Result, bool) {
	root := t.Degree(index)
	if !inRange(root) {
		return Result{}, false
	}
	if mods == 0 {
		return Result{Tones: []int{root}}, true
	}

	mods = mods.Resolve()
	third := t.Degree(index + 2)
	fifth := t.Degree(index + 4)
	seventh := t.Degree(index + 6)

	// min and dim stack: both lower the third
	var res Result
	if mods.Has(Min) {
		third--
		seventh--
		res.ModifierA = "min"
	}
	if mods.Has(Sus2) {
		third = t.Degree(index + 1)
		res.ModifierB = "sus2"
	}
	if mods.Has(Sus4) {
		third = t.Degree(index + 3)
		res.ModifierB = "sus4"
	}
	if mods.Has(Dim) {
		third--
		fifth--
		seventh--
		res.ModifierB = "dim"
	}
	if mods.Has(Aug) {
		fifth++
		seventh++
		res.ModifierB = "aug"
	}

	res.Tones = append(res.Tones, root)
	for _, n := range []int{third, fifth} {
		if inRange(n) {
			res.Tones = append(res.Tones, n)
		}
	}
	if mods.Has(Maj7) {
		res.Type = "maj7"
		if inRange(seventh) {
			res.Tones = append(res.Tones, seventh)
		}
	}
	return res, true
}

func inRange(n int) bool {
	return n >= 0 && n <= 127
}
