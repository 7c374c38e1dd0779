package midi

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go-midirouter/logging"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Push 2 LED-addressable ranges
const (
	Push2FirstPad     uint8 = 36
	Push2LastPad      uint8 = 99
	Push2FirstControl uint8 = 3
	Push2LastControl  uint8 = 119
)

var ledSendCount uint64

// Push2Surface drives the pad and button LEDs of an Ableton Push 2 over its
// user port. Pads are lit with note-on, buttons with control change.
type Push2Surface struct {
	id      string
	outPort drivers.Out
	send    func(msg gomidi.Message) error

	mu  sync.Mutex
	lit map[uint16]uint8 // last color per pad/control, for diffing
}

// NewPush2Surface opens outPort for LED feedback
func NewPush2Surface(id string, outPort drivers.Out) (*Push2Surface, error) {
	send, err := gomidi.SendTo(outPort)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return newPush2Surface(id, outPort, send), nil
}

func newPush2Surface(id string, outPort drivers.Out, send func(gomidi.Message) error) *Push2Surface {
	return &Push2Surface{
		id:      id,
		outPort: outPort,
		send:    send,
		lit:     make(map[uint16]uint8),
	}
}

func (p *Push2Surface) ID() string {
	return p.id
}

// LightPad sets a pad color; repeated identical requests are skipped
func (p *Push2Surface) LightPad(note, color uint8) error {
	if !p.changed(uint16(note), color) {
		return nil
	}
	return p.write(gomidi.NoteOn(0, note, color))
}

// LightControl sets a button color; repeated identical requests are skipped
func (p *Push2Surface) LightControl(cc, color uint8) error {
	if !p.changed(0x100|uint16(cc), color) {
		return nil
	}
	return p.write(gomidi.ControlChange(0, cc, color))
}

func (p *Push2Surface) changed(key uint16, color uint8) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.lit[key]; ok && prev == color {
		return false
	}
	p.lit[key] = color
	return true
}

func (p *Push2Surface) write(msg gomidi.Message) error {
	if p.send == nil {
		return nil
	}
	count := atomic.AddUint64(&ledSendCount, 1)
	if count%100 == 0 {
		logging.Log("push2-led", "sent=%d", count)
	}
	return p.send(msg)
}

// Close turns every pad and button LED off and releases the port
func (p *Push2Surface) Close() error {
	if p.send == nil {
		return nil
	}
	p.mu.Lock()
	p.lit = make(map[uint16]uint8)
	p.mu.Unlock()

	var firstErr error
	for n := Push2FirstPad; n <= Push2LastPad; n++ {
		if err := p.send(gomidi.NoteOn(0, n, ColorBlack)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for cc := Push2FirstControl; cc <= Push2LastControl; cc++ {
		if err := p.send(gomidi.ControlChange(0, cc, ColorBlack)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if p.outPort != nil {
		if err := p.outPort.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
