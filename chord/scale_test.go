package chord

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScale(t *testing.T) {
	tests := []struct {
		name string
		want ScaleType
	}{
		{"major", ScaleMajor},
		{"Natural_Minor", ScaleNaturalMinor},
		{"melodic-minor", ScaleMelodicMinor},
		{" Mixolydian ", ScaleMixolydian},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScale(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseScale("blues")
	assert.ErrorIs(t, err, ErrUnknownScale)
}

func TestParseRoot(t *testing.T) {
	for name, want := range map[string]int{"C": 0, "c#": 1, "Bb": 10, "F#": 6, "b": 11} {
		got, err := ParseRoot(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseRoot("H")
	assert.ErrorIs(t, err, ErrUnknownRoot)
}

func TestTableMajor(t *testing.T) {
	tbl := NewTable(0, ScaleMajor)
	notes := tbl.Notes()

	assert.Equal(t, []int{0, 2, 4, 5, 7, 9, 11, 12}, notes[:8])
	assert.Equal(t, 127, notes[len(notes)-1])
	assert.Equal(t, 36, tbl.Degree(21))
	assert.Equal(t, 7, tbl.Size())
}

func TestTableMonotonic(t *testing.T) {
	for s := ScaleType(0); s < NumScales; s++ {
		for root := 0; root < 12; root++ {
			notes := NewTable(root, s).Notes()
			for i := 1; i < len(notes); i++ {
				require.GreaterOrEqual(t, notes[i], notes[i-1], "%s root %d index %d", s, root, i)
			}
			require.LessOrEqual(t, notes[len(notes)-1], 127)
		}
	}
}

func TestDegreeExtrapolates(t *testing.T) {
	tbl := NewTable(2, ScaleMajor)
	notes := tbl.Notes()

	assert.Equal(t, 2, notes[0])
	last := len(notes) - 1
	assert.Equal(t, notes[last], tbl.Degree(last))
	assert.Greater(t, tbl.Degree(last+1), 127)
	assert.Equal(t, tbl.Degree(7)+12, tbl.Degree(14))
	assert.Equal(t, 1, tbl.Degree(-1))
}

func TestNoteName(t *testing.T) {
	assert.Equal(t, "C4", NoteName(60))
	assert.Equal(t, "C-1", NoteName(0))
	assert.Equal(t, "A#2", NoteName(46))
	assert.Equal(t, "G", PitchName(127))
}
