package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Sink is a destination for routed messages
type Sink interface {
	Name() string
	Send(msg gomidi.Message) error
	Close() error
}

// Output is a Sink backed by an output port, optionally forcing every
// channel message onto a fixed channel
type Output struct {
	port    drivers.Out
	name    string
	send    func(gomidi.Message) error
	channel *uint8 // 0-15, nil = keep the source channel
}

// NewOutput opens port. channel is zero-based.
func NewOutput(port drivers.Out, channel *uint8) (*Output, error) {
	send, err := gomidi.SendTo(port)
	if err != nil {
		return nil, fmt.Errorf("open output %q: %w", port.String(), err)
	}
	return &Output{port: port, name: port.String(), send: send, channel: channel}, nil
}

func (o *Output) Name() string {
	return o.name
}

func (o *Output) Send(msg gomidi.Message) error {
	return o.send(OverrideChannel(msg, o.channel))
}

// Close releases the port
func (o *Output) Close() error {
	if o.port == nil {
		return nil
	}
	return o.port.Close()
}

// OverrideChannel rewrites the channel nibble of a channel voice message.
// System messages and a nil channel leave msg untouched.
func OverrideChannel(msg gomidi.Message, channel *uint8) gomidi.Message {
	if channel == nil || len(msg) == 0 || msg[0] >= 0xF0 || msg[0] < 0x80 {
		return msg
	}
	out := make(gomidi.Message, len(msg))
	copy(out, msg)
	out[0] = out[0]&0xF0 | *channel&0x0F
	return out
}

// SendNotes writes every message of ev to sink and returns the first error
func SendNotes(sink Sink, ev NoteEvent) error {
	var firstErr error
	for _, msg := range ev.Messages() {
		if err := sink.Send(msg); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
