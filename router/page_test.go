package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-midirouter/chord"
	"go-midirouter/midi"
)

func noteOn(n uint8) midi.ControllerEvent {
	return midi.ControllerEvent{Kind: midi.KindNoteOn, Number: n, Value: 100}
}

func noteOff(n uint8) midi.ControllerEvent {
	return midi.ControllerEvent{Kind: midi.KindNoteOff, Number: n}
}

func press(cc uint8) midi.ControllerEvent {
	return midi.ControllerEvent{Kind: midi.KindControlChange, Number: cc, Value: 127}
}

// drain collects every queued note event without blocking
func drain(p *Page) []midi.NoteEvent {
	var evs []midi.NoteEvent
	for {
		select {
		case ev, ok := <-p.Out():
			if !ok {
				return evs
			}
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func on(tones ...int) midi.NoteEvent {
	return midi.NoteEvent{On: true, Tones: tones, Velocity: 100}
}

func off(tones ...int) midi.NoteEvent {
	return midi.NoteEvent{Tones: tones}
}

const (
	padMin   = FirstModPad      // 84
	padSus4  = FirstModPad + 1  // 85
	padTriad = FirstModPad + 8  // 92
	padSus2  = FirstModPad + 9  // 93
	padMaj7  = FirstModPad + 11 // 95
	padInv   = FirstModPad + 14 // 98
)

func TestPageInitialLayout(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)
	s := p.Snapshot()

	assert.Equal(t, chord.ScaleMajor, s.Scale)
	assert.Equal(t, midi.ColorWhite, s.LEDs[LED{Control: true, Number: ScaleFirstCC}])
	assert.Equal(t, midi.ColorDarkGray, s.LEDs[LED{Control: true, Number: ScaleLastCC}])
	assert.Equal(t, midi.ColorLightGray, s.LEDs[LED{Number: 36}])
	assert.Equal(t, midi.ColorDarkGray, s.LEDs[LED{Number: 37}])
	assert.Equal(t, midi.ColorLightGray, s.LEDs[LED{Number: 40}])
	assert.Equal(t, midi.ColorPink, s.LEDs[LED{Number: padMin}])
	assert.Equal(t, midi.ColorTeal, s.LEDs[LED{Number: padSus2}])
	assert.Empty(t, drain(p))
}

func TestPageMinRevoicesHeldPad(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)

	p.Handle(noteOn(36))
	assert.Equal(t, []midi.NoteEvent{on(36)}, drain(p))
	assert.Equal(t, midi.ColorGreen, p.Snapshot().LEDs[LED{Number: 36}])

	p.Handle(noteOn(padMin))
	assert.Equal(t, []midi.NoteEvent{on(39, 43)}, drain(p))
	s := p.Snapshot()
	assert.Equal(t, []int{36, 39, 43}, s.Sounding)
	require.Len(t, s.Held, 1)
	assert.Equal(t, "C2 min", s.Held[0].Chord.Name())
	assert.Equal(t, midi.ColorBlue, s.LEDs[LED{Number: padMin}])

	p.Handle(noteOff(padMin))
	assert.Equal(t, []midi.NoteEvent{off(39, 43)}, drain(p))
	assert.Equal(t, midi.ColorPink, p.Snapshot().LEDs[LED{Number: padMin}])

	p.Handle(noteOff(36))
	assert.Equal(t, []midi.NoteEvent{off(36)}, drain(p))
	assert.Empty(t, p.Snapshot().Sounding)
	assert.Equal(t, midi.ColorLightGray, p.Snapshot().LEDs[LED{Number: 36}])
}

func TestPageReleaseMatchesPress(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)
	p.Handle(noteOn(padMin))
	p.Handle(noteOn(padMaj7))
	drain(p)

	for pad := FirstNotePad; pad <= LastNotePad; pad++ {
		p.Handle(noteOn(pad))
		pressed := drain(p)
		p.Handle(noteOff(pad))
		released := drain(p)

		require.Len(t, pressed, 1, "pad %d", pad)
		require.Len(t, released, 1, "pad %d", pad)
		assert.Equal(t, pressed[0].Tones, released[0].Tones, "pad %d", pad)
		assert.False(t, released[0].On)
	}
	assert.Empty(t, p.Snapshot().Sounding)
}

func TestPageReleaseAfterNoOpModifier(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)
	p.Handle(noteOn(padTriad))
	assert.Empty(t, drain(p))

	p.Handle(noteOn(36))
	pressed := drain(p)
	assert.Equal(t, []midi.NoteEvent{on(36, 40, 43)}, pressed)

	// inv on top of triad leaves the voicing alone
	p.Handle(noteOn(padInv))
	assert.Empty(t, drain(p))
	p.Handle(noteOff(padInv))
	assert.Empty(t, drain(p))

	p.Handle(noteOff(36))
	released := drain(p)
	require.Len(t, released, 1)
	assert.Equal(t, pressed[0].Tones, released[0].Tones)
	assert.Equal(t, off(36, 40, 43), released[0])
	assert.Empty(t, p.Snapshot().Sounding)
}

func TestPageTwoPadsNoStopStartOverlap(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)

	p.Handle(noteOn(padSus2))
	assert.Empty(t, drain(p))

	p.Handle(noteOn(36)) // C2
	p.Handle(noteOn(38)) // E2
	assert.Equal(t, []midi.NoteEvent{on(36, 38, 43), on(40, 41, 47)}, drain(p))

	// sus4 wins over the still-held sus2
	p.Handle(noteOn(padSus4))
	evs := drain(p)
	assert.Equal(t, []midi.NoteEvent{off(38), on(45)}, evs)
	assert.Equal(t, []int{36, 40, 41, 43, 45, 47}, p.Snapshot().Sounding)
}

func TestPageLatchDoubleToggle(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)

	p.Handle(press(LatchCC))
	assert.True(t, p.Snapshot().Latch)
	assert.Equal(t, midi.ColorWhite, p.Snapshot().LEDs[LED{Control: true, Number: LatchCC}])

	p.Handle(noteOn(padMin))
	assert.True(t, p.Snapshot().Flags[0])
	p.Handle(noteOn(padMin))
	assert.False(t, p.Snapshot().Flags[0])

	p.Handle(noteOn(padMin))
	p.Handle(noteOff(padMin))
	assert.True(t, p.Snapshot().Flags[0], "note-off ignored in latch mode")
	assert.Equal(t, midi.ColorBlue, p.Snapshot().LEDs[LED{Number: padMin}])
}

func TestPageLatchOffClearsModifiers(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)
	p.Handle(press(LatchCC))
	p.Handle(noteOn(36))
	p.Handle(noteOn(padMin))
	p.Handle(noteOff(padMin))
	assert.Equal(t, []midi.NoteEvent{on(36), on(39, 43)}, drain(p))

	p.Handle(press(LatchCC))
	assert.Equal(t, []midi.NoteEvent{off(39, 43)}, drain(p))
	s := p.Snapshot()
	assert.False(t, s.Latch)
	assert.Equal(t, chord.Modifiers(0), s.Modifiers)
	assert.Equal(t, midi.ColorPink, s.LEDs[LED{Number: padMin}])
}

func TestPageOctaveBounds(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)

	for i := 0; i < MaxOctave+2; i++ {
		p.Handle(press(OctaveUpCC))
	}
	s := p.Snapshot()
	assert.Equal(t, MaxOctave, s.Octave)
	assert.Equal(t, midi.ColorDarkGray, s.LEDs[LED{Control: true, Number: OctaveUpCC}])

	p.Handle(noteOn(36))
	assert.Equal(t, []midi.NoteEvent{on(72)}, drain(p))

	for i := 0; i < 10; i++ {
		p.Handle(press(OctaveDownCC))
	}
	assert.Equal(t, MinOctave, p.Snapshot().Octave)

	// released with the index it was pressed with
	p.Handle(noteOff(36))
	assert.Equal(t, []midi.NoteEvent{off(72)}, drain(p))
}

func TestPageOctaveIgnoresRelease(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)
	p.Handle(midi.ControllerEvent{Kind: midi.KindControlChange, Number: OctaveUpCC, Value: 0})
	assert.Equal(t, 0, p.Snapshot().Octave)
}

func TestPageScaleSelectReleasesNotes(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)
	p.Handle(noteOn(36))
	p.Handle(noteOn(37))
	drain(p)

	p.Handle(press(ScaleFirstCC + 1))
	assert.Equal(t, []midi.NoteEvent{off(36, 38)}, drain(p))

	s := p.Snapshot()
	assert.Equal(t, chord.ScaleMinor, s.Scale)
	assert.Empty(t, s.Held)
	assert.Equal(t, midi.ColorWhite, s.LEDs[LED{Control: true, Number: ScaleFirstCC + 1}])
	assert.Equal(t, midi.ColorDarkGray, s.LEDs[LED{Control: true, Number: ScaleFirstCC}])
	assert.Equal(t, midi.ColorLightGray, s.LEDs[LED{Number: 36}])

	// releasing a pad pressed before the switch is a no-op
	p.Handle(noteOff(36))
	assert.Empty(t, drain(p))

	// scale select only reacts to full value
	p.Handle(midi.ControllerEvent{Kind: midi.KindControlChange, Number: ScaleFirstCC, Value: 64})
	assert.Equal(t, chord.ScaleMinor, p.Snapshot().Scale)
}

func TestPageIgnoresDuplicateAndUnknown(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)

	p.Handle(noteOn(36))
	p.Handle(noteOn(36))
	assert.Len(t, drain(p), 1)

	p.Handle(noteOff(40))
	p.Handle(noteOn(20))
	p.Handle(noteOn(120))
	p.Handle(press(100))
	assert.Empty(t, drain(p))
}

func TestPageRecoversFromPanic(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)
	table := p.table

	p.mu.Lock()
	p.table = nil
	p.mu.Unlock()
	assert.NotPanics(t, func() { p.Handle(noteOn(36)) })

	p.mu.Lock()
	p.table = table
	p.mu.Unlock()
	p.Handle(noteOn(36))
	assert.Equal(t, []midi.NoteEvent{on(36)}, drain(p))
}

func TestPageCloseReleasesNotes(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)
	p.Handle(noteOn(padMin))
	p.Handle(noteOn(36))
	drain(p)

	p.Close()
	assert.Equal(t, []midi.NoteEvent{off(36, 39, 43)}, drain(p))
	_, open := <-p.Out()
	assert.False(t, open)

	p.Handle(noteOn(36))
	p.Close()
}

func TestPageUpdatesCoalesce(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)
	p.Handle(noteOn(36))
	p.Handle(noteOff(36))

	<-p.Updates()
	select {
	case <-p.Updates():
		t.Fatal("updates should coalesce")
	default:
	}
}

func TestPageTakeLEDs(t *testing.T) {
	p := NewPage(0, chord.ScaleMajor)
	leds, dirty := p.TakeLEDs()
	assert.True(t, dirty)
	assert.Len(t, leds, int(LastModPad-FirstNotePad+1)+int(ScaleLastCC-ScaleFirstCC+1)+3)

	_, dirty = p.TakeLEDs()
	assert.False(t, dirty)

	p.Handle(noteOn(36))
	leds, dirty = p.TakeLEDs()
	assert.True(t, dirty)
	assert.Equal(t, midi.ColorGreen, leds[LED{Number: 36}])
}
