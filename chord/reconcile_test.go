package chord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcileAddMin(t *testing.T) {
	tbl := NewTable(0, ScaleMajor)
	sounding := NewNoteSet(36)

	d := Reconcile(tbl, []int{c2}, 0, Of(Min), sounding)

	assert.Empty(t, d.Stop)
	assert.Equal(t, []int{39, 43}, d.Start)
	assert.Equal(t, []int{36, 39, 43}, sounding.Sorted())

	// and back again
	d = Reconcile(tbl, []int{c2}, Of(Min), 0, sounding)
	assert.Equal(t, []int{39, 43}, d.Stop)
	assert.Empty(t, d.Start)
	assert.Equal(t, []int{36}, sounding.Sorted())
}

func TestReconcileNoStopStartOverlap(t *testing.T) {
	tbl := NewTable(0, ScaleMajor)
	// E2 sus2 = 40 41 47, C2 sus2 = 36 38 43
	held := []int{c2 + 2, c2}
	sounding := NewNoteSet(36, 38, 40, 41, 43, 47)

	d := Reconcile(tbl, held, Of(Sus2), Of(Sus4), sounding)

	// 41 leaves E2's chord but enters C2's, so it keeps sounding
	assert.Equal(t, []int{38}, d.Stop)
	assert.Equal(t, []int{45}, d.Start)
	for _, n := range d.Stop {
		assert.NotContains(t, d.Start, n)
	}
	assert.Equal(t, []int{36, 40, 41, 43, 45, 47}, sounding.Sorted())
}

func TestReconcileSkipsPadRoot(t *testing.T) {
	tbl := NewTable(0, ScaleMajor)
	sounding := NewNoteSet(36, 40, 43)

	d := Reconcile(tbl, []int{c2}, Of(Triad), Of(Min, Maj7), sounding)

	assert.NotContains(t, d.Stop, 36)
	assert.NotContains(t, d.Start, 36)
	assert.Equal(t, []int{40}, d.Stop)
	assert.Equal(t, []int{39, 46}, d.Start)
}

func TestReconcileStopsOtherPadRoot(t *testing.T) {
	tbl := NewTable(0, ScaleMajor)
	// B1 sus2 holds C2 as its third while C2 is also pressed on its own pad
	held := []int{c2 - 1, c2}
	sounding := NewNoteSet(35, 36, 38, 41, 43)

	d := Reconcile(tbl, held, Of(Sus2), Of(Sus4), sounding)

	assert.Contains(t, d.Stop, 36)
}

func TestReconcileIgnoresOutOfRangePads(t *testing.T) {
	tbl := NewTable(0, ScaleMajor)
	sounding := NewNoteSet()

	d := Reconcile(tbl, []int{500}, 0, Of(Min), sounding)

	assert.True(t, d.Empty())
	assert.Empty(t, sounding)
}
