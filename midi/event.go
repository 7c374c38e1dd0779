package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI status bytes (channel nibble cleared)
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// EventKind is the type of a controller event
type EventKind int

const (
	KindNoteOn EventKind = iota
	KindNoteOff
	KindControlChange
)

func (k EventKind) String() string {
	switch k {
	case KindNoteOn:
		return "note-on"
	case KindNoteOff:
		return "note-off"
	case KindControlChange:
		return "cc"
	}
	return "unknown"
}

// ControllerEvent is one discrete message from a control surface
type ControllerEvent struct {
	Kind    EventKind
	Channel uint8
	Number  uint8 // note or controller number
	Value   uint8 // velocity or controller value
}

func (e ControllerEvent) String() string {
	return fmt.Sprintf("%s ch=%d num=%d val=%d", e.Kind, e.Channel, e.Number, e.Value)
}

// Decode converts a raw message into a ControllerEvent.
// A note-on with velocity 0 decodes as a note-off.
// Anything other than note and control change messages reports false.
func Decode(msg gomidi.Message) (ControllerEvent, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		return ControllerEvent{Kind: KindNoteOn, Channel: ch, Number: key, Value: vel}, true
	case msg.GetNoteEnd(&ch, &key):
		msg.GetNoteOff(&ch, &key, &vel)
		return ControllerEvent{Kind: KindNoteOff, Channel: ch, Number: key, Value: vel}, true
	case msg.GetControlChange(&ch, &key, &vel):
		return ControllerEvent{Kind: KindControlChange, Channel: ch, Number: key, Value: vel}, true
	}
	return ControllerEvent{}, false
}

// NoteEvent is an aggregated note-on or note-off for several tones at once
type NoteEvent struct {
	On       bool
	Channel  uint8
	Tones    []int
	Velocity uint8
}

// Messages expands the event into one message per tone
func (e NoteEvent) Messages() []gomidi.Message {
	msgs := make([]gomidi.Message, 0, len(e.Tones))
	for _, t := range e.Tones {
		if t < 0 || t > 127 {
			continue
		}
		if e.On {
			msgs = append(msgs, gomidi.NoteOn(e.Channel, uint8(t), e.Velocity))
		} else {
			msgs = append(msgs, gomidi.NoteOff(e.Channel, uint8(t)))
		}
	}
	return msgs
}
