package chord

import "sort"

// NoteSet is a set of MIDI note numbers
type NoteSet map[int]struct{}

func NewNoteSet(notes ...int) NoteSet {
	s := make(NoteSet, len(notes))
	s.Add(notes...)
	return s
}

func (s NoteSet) Add(notes ...int) {
	for _, n := range notes {
		s[n] = struct{}{}
	}
}

func (s NoteSet) Remove(notes ...int) {
	for _, n := range notes {
		delete(s, n)
	}
}

func (s NoteSet) Has(n int) bool {
	_, ok := s[n]
	return ok
}

// Sorted returns the members in ascending order
func (s NoteSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Delta is the aggregated note-off and note-on work for one reconcile pass
type Delta struct {
	Stop  []int
	Start []int
}

func (d Delta) Empty() bool {
	return len(d.Stop) == 0 && len(d.Start) == 0
}

// Reconcile re-voices held pads after the modifier set changed from prev to
// next. held lists the scale index of every pressed pad. Each pad's own root
// never appears in the delta. sounding is updated in place.
func Reconcile(t *Table, held []int, prev, next Modifiers, sounding NoteSet) Delta {
	stop := NewNoteSet()
	start := NewNoteSet()

	for _, idx := range held {
		before, ok := Build(t, idx, prev)
		if !ok {
			continue
		}
		after, _ := Build(t, idx, next)
		root := before.Root()

		oldTones := NewNoteSet(before.Tones...)
		newTones := NewNoteSet(after.Tones...)
		for n := range oldTones {
			if !newTones.Has(n) && n != root {
				stop.Add(n)
			}
		}
		for n := range newTones {
			if !oldTones.Has(n) && n != root {
				start.Add(n)
			}
		}
	}

	for n := range start {
		stop.Remove(n)
	}
	for n := range sounding {
		start.Remove(n)
	}

	d := Delta{Stop: stop.Sorted(), Start: start.Sorted()}
	sounding.Remove(d.Stop...)
	sounding.Add(d.Start...)
	return d
}
