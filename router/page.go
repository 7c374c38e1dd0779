package router

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"go-midirouter/chord"
	"go-midirouter/logging"
	"go-midirouter/midi"
)

// LED addresses one light on the surface: a pad (note) or a button (control)
type LED struct {
	Control bool
	Number  uint8
}

// HeldChord is one pressed note pad and the chord it currently sounds
type HeldChord struct {
	Pad   uint8
	Index int
	Chord chord.Result
}

// Snapshot is an immutable copy of the page state for renderers
type Snapshot struct {
	Root      int
	Scale     chord.ScaleType
	Octave    int
	Latch     bool
	Flags     [NumModPads]bool
	Modifiers chord.Modifiers
	Held      []HeldChord // ordered by pad
	Sounding  []int       // ascending
	LEDs      map[LED]uint8
}

// Page is the scale-chord instrument: it owns the controller state and turns
// controller events into note events and LED colors. All methods are safe for
// concurrent use; events are handled one at a time.
type Page struct {
	mu sync.Mutex

	root     int
	table    *chord.Table
	octave   int
	latch    bool
	flags    [NumModPads]bool
	prev     chord.Modifiers
	pressed  map[uint8]int // note pad -> scale index assigned at press time
	sounding chord.NoteSet
	velocity uint8
	channel  uint8

	leds     map[LED]uint8
	ledDirty bool

	out     chan midi.NoteEvent
	updates chan struct{}
	closed  bool

	log *zap.SugaredLogger
}

// outBuffer is the number of note events queued ahead of the send loop
const outBuffer = 64

// NewPage creates a page on root (0-11) and scale and lights the surface layout
func NewPage(root int, scale chord.ScaleType) *Page {
	p := &Page{
		root:     root,
		pressed:  make(map[uint8]int),
		sounding: chord.NewNoteSet(),
		velocity: 100,
		leds:     make(map[LED]uint8),
		out:      make(chan midi.NoteEvent, outBuffer),
		updates:  make(chan struct{}, 1),
		log:      logging.For("page"),
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for pad := FirstNotePad; pad <= LastNotePad; pad++ {
		p.setPad(pad, NoteRestingColor(pad))
	}
	for pad := FirstModPad; pad <= LastModPad; pad++ {
		p.setPad(pad, ModifierRestingColor(pad))
	}
	p.setControl(LatchCC, midi.ColorDarkGray)
	p.selectScale(scale)
	p.lightOctave()
	return p
}

// Out delivers note events in the order they were produced
func (p *Page) Out() <-chan midi.NoteEvent {
	return p.out
}

// Updates signals (coalesced) that the state changed
func (p *Page) Updates() <-chan struct{} {
	return p.updates
}

// Handle applies one controller event. A panic inside a handler is logged
// and swallowed so the next event is still processed.
func (p *Page) Handle(ev midi.ControllerEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorw("event handler panicked", "event", ev.String(), "panic", r)
		}
	}()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	switch ev.Kind {
	case midi.KindControlChange:
		if ev.Value != maxValue {
			return
		}
		switch {
		case isScaleCC(ev.Number):
			s, _ := ScaleForCC(ev.Number)
			p.selectScale(s)
		case ev.Number == OctaveDownCC:
			p.shiftOctave(-1)
		case ev.Number == OctaveUpCC:
			p.shiftOctave(1)
		case ev.Number == LatchCC:
			p.toggleLatch()
		default:
			return
		}
	case midi.KindNoteOn, midi.KindNoteOff:
		on := ev.Kind == midi.KindNoteOn
		switch {
		case isModPad(ev.Number):
			p.modifierPad(ev.Number, on)
		case isNotePad(ev.Number):
			if on {
				p.notePadOn(ev)
			} else {
				p.notePadOff(ev)
			}
		default:
			return
		}
	}
	p.notify()
}

func (p *Page) selectScale(s chord.ScaleType) {
	if len(p.sounding) > 0 {
		p.emit(false, p.sounding.Sorted(), 0)
		p.sounding = chord.NewNoteSet()
	}
	for pad := range p.pressed {
		p.setPad(pad, NoteRestingColor(pad))
	}
	p.pressed = make(map[uint8]int)
	p.table = chord.NewTable(p.root, s)

	for cc := ScaleFirstCC; cc <= ScaleLastCC; cc++ {
		p.setControl(cc, midi.ColorDarkGray)
	}
	p.setControl(ScaleFirstCC+uint8(s), midi.ColorWhite)
	p.log.Infow("scale selected", "root", chord.PitchName(p.root), "scale", s.String())
}

func (p *Page) shiftOctave(delta int) {
	next := p.octave + delta
	if next < MinOctave || next > MaxOctave {
		return
	}
	p.octave = next
	p.lightOctave()
	logging.Log("page", "octave=%d", p.octave)
}

func (p *Page) lightOctave() {
	down, up := midi.ColorWhite, midi.ColorWhite
	if p.octave == MinOctave {
		down = midi.ColorDarkGray
	}
	if p.octave == MaxOctave {
		up = midi.ColorDarkGray
	}
	p.setControl(OctaveDownCC, down)
	p.setControl(OctaveUpCC, up)
}

func (p *Page) toggleLatch() {
	p.latch = !p.latch
	if p.latch {
		p.setControl(LatchCC, midi.ColorWhite)
	} else {
		p.setControl(LatchCC, midi.ColorDarkGray)
		for i := range p.flags {
			p.flags[i] = false
			pad := FirstModPad + uint8(i)
			p.setPad(pad, ModifierRestingColor(pad))
		}
	}
	p.reconcile()
}

func (p *Page) modifierPad(pad uint8, on bool) {
	i := pad - FirstModPad
	switch {
	case !p.latch:
		p.flags[i] = on
	case on:
		p.flags[i] = !p.flags[i]
	}
	if p.flags[i] {
		p.setPad(pad, midi.ColorBlue)
	} else {
		p.setPad(pad, ModifierRestingColor(pad))
	}
	p.reconcile()
}

func (p *Page) reconcile() {
	next := p.modifiers()
	d := chord.Reconcile(p.table, p.heldIndices(), p.prev, next, p.sounding)
	if len(d.Stop) > 0 {
		p.emit(false, d.Stop, 0)
	}
	if len(d.Start) > 0 {
		p.emit(true, d.Start, p.velocity)
	}
	if !d.Empty() {
		logging.Log("page", "reconcile %s -> %s stop=%v start=%v", p.prev, next, d.Stop, d.Start)
	}
	p.prev = next
}

func (p *Page) notePadOn(ev midi.ControllerEvent) {
	if _, held := p.pressed[ev.Number]; held {
		return
	}
	idx := PadIndex(ev.Number, p.table.Size(), p.octave)
	res, ok := chord.Build(p.table, idx, p.modifiers())
	if !ok {
		logging.Log("page", "pad %d index %d out of range", ev.Number, idx)
		return
	}
	p.pressed[ev.Number] = idx
	p.sounding.Add(res.Tones...)
	p.velocity = ev.Value
	p.channel = ev.Channel
	p.setPad(ev.Number, midi.ColorGreen)
	p.emit(true, res.Tones, ev.Value)
}

func (p *Page) notePadOff(ev midi.ControllerEvent) {
	idx, held := p.pressed[ev.Number]
	if !held {
		return
	}
	delete(p.pressed, ev.Number)
	res, _ := chord.Build(p.table, idx, p.modifiers())
	p.sounding.Remove(res.Tones...)
	p.setPad(ev.Number, NoteRestingColor(ev.Number))
	p.emit(false, res.Tones, 0)
}

func (p *Page) modifiers() chord.Modifiers {
	var mods chord.Modifiers
	for i, on := range p.flags {
		if on {
			mods = mods.With(padModifiers[i])
		}
	}
	return mods
}

func (p *Page) heldIndices() []int {
	pads := p.heldPads()
	idx := make([]int, len(pads))
	for i, pad := range pads {
		idx[i] = p.pressed[pad]
	}
	return idx
}

func (p *Page) heldPads() []uint8 {
	pads := make([]uint8, 0, len(p.pressed))
	for pad := range p.pressed {
		pads = append(pads, pad)
	}
	sort.Slice(pads, func(i, j int) bool { return pads[i] < pads[j] })
	return pads
}

func (p *Page) emit(on bool, tones []int, velocity uint8) {
	p.out <- midi.NoteEvent{
		On:       on,
		Channel:  p.channel,
		Tones:    append([]int(nil), tones...),
		Velocity: velocity,
	}
}

func (p *Page) setPad(pad, color uint8) {
	p.leds[LED{Number: pad}] = color
	p.ledDirty = true
}

func (p *Page) setControl(cc, color uint8) {
	p.leds[LED{Control: true, Number: cc}] = color
	p.ledDirty = true
}

func (p *Page) notify() {
	select {
	case p.updates <- struct{}{}:
	default:
	}
}

// Snapshot copies the state under the lock
func (p *Page) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		Root:      p.root,
		Scale:     p.table.Scale(),
		Octave:    p.octave,
		Latch:     p.latch,
		Flags:     p.flags,
		Modifiers: p.modifiers(),
		Sounding:  p.sounding.Sorted(),
		LEDs:      make(map[LED]uint8, len(p.leds)),
	}
	for _, pad := range p.heldPads() {
		idx := p.pressed[pad]
		res, _ := chord.Build(p.table, idx, s.Modifiers)
		s.Held = append(s.Held, HeldChord{Pad: pad, Index: idx, Chord: res})
	}
	for k, v := range p.leds {
		s.LEDs[k] = v
	}
	return s
}

// TakeLEDs returns the LED colors if they changed since the last call
func (p *Page) TakeLEDs() (map[LED]uint8, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.ledDirty {
		return nil, false
	}
	p.ledDirty = false
	leds := make(map[LED]uint8, len(p.leds))
	for k, v := range p.leds {
		leds[k] = v
	}
	return leds, true
}

// Close releases every sounding note and ends the Out channel.
// Events handled after Close are ignored.
func (p *Page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	if len(p.sounding) > 0 {
		p.emit(false, p.sounding.Sorted(), 0)
		p.sounding = chord.NewNoteSet()
	}
	p.pressed = make(map[uint8]int)
	p.closed = true
	close(p.out)
}
