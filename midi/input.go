package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Input delivers messages from one input port, in arrival order
type Input struct {
	name     string
	stopFunc func()
	msgs     chan gomidi.Message
}

// inputBuffer absorbs bursts (pad mashing, knob sweeps) without dropping
const inputBuffer = 128

// NewInput starts listening on inPort. Active sensing is dropped; clock and
// transport messages are delivered like everything else.
func NewInput(inPort drivers.In) (*Input, error) {
	in := &Input{
		name: inPort.String(),
		msgs: make(chan gomidi.Message, inputBuffer),
	}

	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		if isActiveSensing(msg) {
			return
		}
		in.msgs <- msg
	}, gomidi.UseSysEx())
	if err != nil {
		return nil, fmt.Errorf("open input %q: %w", inPort.String(), err)
	}
	in.stopFunc = stop
	return in, nil
}

// NewInputFrom wraps an existing message channel (tests, virtual sources)
func NewInputFrom(name string, msgs chan gomidi.Message) *Input {
	return &Input{name: name, msgs: msgs}
}

func (in *Input) Name() string {
	return in.name
}

func (in *Input) Messages() <-chan gomidi.Message {
	return in.msgs
}

// Close stops listening. The message channel is left open because the
// driver may still be delivering a callback.
func (in *Input) Close() error {
	if in.stopFunc != nil {
		in.stopFunc()
		in.stopFunc = nil
	}
	return nil
}

// activeSensing is the 0xFE keep-alive some devices send every 300ms
const activeSensing = 0xFE

func isActiveSensing(msg gomidi.Message) bool {
	return len(msg) == 1 && msg[0] == activeSensing
}
