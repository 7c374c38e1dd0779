package router

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"go-midirouter/chord"
	"go-midirouter/display"
	"go-midirouter/logging"
	"go-midirouter/midi"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Kind selects a router implementation
type Kind string

const (
	KindPlain      Kind = "plain-forward"
	KindScaleChord Kind = "scale-chord"
)

// Router moves messages from one input to its sinks until ctx ends
type Router interface {
	ID() string
	Name() string
	Kind() Kind
	Run(ctx context.Context) error
	Status() Status
}

// Status is a point-in-time summary for monitoring
type Status struct {
	ID       string
	Name     string
	Kind     Kind
	In       string
	Outs     []string
	Received uint64
	Sent     uint64
	Errors   uint64
	Display  string // display link state, empty when not driven

	Page *Snapshot // scale-chord routers only
}

// ledFPS bounds how often LED changes are flushed to the surface
const ledFPS = 30

type base struct {
	id    string
	name  string
	in    *midi.Input
	sinks []midi.Sink
	log   *zap.SugaredLogger

	received atomic.Uint64
	sent     atomic.Uint64
	errors   atomic.Uint64
}

func (b *base) ID() string   { return b.id }
func (b *base) Name() string { return b.name }

func (b *base) status(kind Kind) Status {
	s := Status{
		ID:       b.id,
		Name:     b.name,
		Kind:     kind,
		Received: b.received.Load(),
		Sent:     b.sent.Load(),
		Errors:   b.errors.Load(),
	}
	if b.in != nil {
		s.In = b.in.Name()
	}
	for _, sink := range b.sinks {
		s.Outs = append(s.Outs, sink.Name())
	}
	return s
}

func (b *base) forward(msg gomidi.Message) {
	for _, sink := range b.sinks {
		if err := sink.Send(msg); err != nil {
			b.errors.Add(1)
			logging.Every(50, "router", "%s: send to %s failed: %v", b.name, sink.Name(), err)
			continue
		}
		b.sent.Add(1)
	}
}

func (b *base) closeSinks() {
	for _, sink := range b.sinks {
		if err := sink.Close(); err != nil {
			b.log.Warnw("sink close failed", "sink", sink.Name(), "err", err)
		}
	}
}

// PlainRouter forwards every message to every sink unchanged (apart from
// the per-sink channel override)
type PlainRouter struct {
	base
}

func NewPlainRouter(id, name string, in *midi.Input, sinks []midi.Sink) *PlainRouter {
	return &PlainRouter{base{id: id, name: name, in: in, sinks: sinks, log: logging.For("router").With("router", name)}}
}

func (r *PlainRouter) Kind() Kind { return KindPlain }

func (r *PlainRouter) Status() Status { return r.status(KindPlain) }

func (r *PlainRouter) Run(ctx context.Context) error {
	r.log.Infow("running", "kind", KindPlain, "in", r.in.Name(), "outs", len(r.sinks))
	defer r.closeSinks()
	defer r.in.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-r.in.Messages():
			r.received.Add(1)
			r.forward(msg)
		}
	}
}

// ScaleChordRouter plays the scale-chord page from a grid controller,
// lights its pads and optionally drives its display
type ScaleChordRouter struct {
	base
	page    *Page
	surface midi.Surface
	link    *display.Link

	mu        sync.Mutex
	linkState string
	updates   chan struct{}
}

// NewScaleChordRouter wires a page to its input, sinks, surface (may be nil)
// and display link (may be nil)
func NewScaleChordRouter(id, name string, in *midi.Input, sinks []midi.Sink, surface midi.Surface, page *Page, link *display.Link) *ScaleChordRouter {
	return &ScaleChordRouter{
		base:    base{id: id, name: name, in: in, sinks: sinks, log: logging.For("router").With("router", name)},
		page:    page,
		surface: surface,
		link:    link,
		updates: make(chan struct{}, 1),
	}
}

func (r *ScaleChordRouter) Kind() Kind { return KindScaleChord }

func (r *ScaleChordRouter) Page() *Page { return r.page }

// Updates signals (coalesced) that page or display state changed
func (r *ScaleChordRouter) Updates() <-chan struct{} { return r.updates }

func (r *ScaleChordRouter) Status() Status {
	s := r.status(KindScaleChord)
	snap := r.page.Snapshot()
	s.Page = &snap
	r.mu.Lock()
	s.Display = r.linkState
	r.mu.Unlock()
	return s
}

func (r *ScaleChordRouter) Run(ctx context.Context) error {
	r.log.Infow("running", "kind", KindScaleChord, "in", r.in.Name(), "outs", len(r.sinks),
		"surface", r.surface != nil, "display", r.link != nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.sendLoop()
	}()

	loopCtx, stop := context.WithCancel(ctx)
	defer stop()

	if r.surface != nil {
		r.flushLEDs()
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.ledLoop(loopCtx)
		}()
	}
	if r.link != nil {
		r.setLinkState(display.StateDisconnected.String())
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.link.Run(loopCtx)
		}()
		go func() {
			defer wg.Done()
			r.watchLink(loopCtx)
		}()
	}

	r.readLoop(ctx)

	r.in.Close()
	r.page.Close()
	stop()
	wg.Wait()
	if r.surface != nil {
		if err := r.surface.Close(); err != nil {
			r.log.Warnw("surface close failed", "err", err)
		}
	}
	r.closeSinks()
	r.log.Infow("stopped")
	return nil
}

func (r *ScaleChordRouter) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-r.in.Messages():
			r.received.Add(1)
			ev, ok := midi.Decode(msg)
			if !ok {
				continue
			}
			r.page.Handle(ev)
		case <-r.page.Updates():
			r.notify()
		}
	}
}

// sendLoop drains page output until the page is closed
func (r *ScaleChordRouter) sendLoop() {
	for ev := range r.page.Out() {
		for _, msg := range ev.Messages() {
			r.forward(msg)
		}
	}
}

// ledLoop runs at fixed FPS and flushes changed LEDs
func (r *ScaleChordRouter) ledLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / ledFPS)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.flushLEDs()
		}
	}
}

func (r *ScaleChordRouter) flushLEDs() {
	leds, dirty := r.page.TakeLEDs()
	if !dirty {
		return
	}
	for led, color := range leds {
		var err error
		if led.Control {
			err = r.surface.LightControl(led.Number, color)
		} else {
			err = r.surface.LightPad(led.Number, color)
		}
		if err != nil {
			logging.Every(100, "led", "%s: light %+v failed: %v", r.name, led, err)
		}
	}
}

func (r *ScaleChordRouter) watchLink(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-r.link.Events():
			if !ok {
				return
			}
			switch ev.State {
			case display.StateConnected:
				r.log.Infow("display connected")
			case display.StateDisconnected:
				r.log.Warnw("display disconnected", "err", ev.Err)
			}
			r.setLinkState(ev.State.String())
		}
	}
}

func (r *ScaleChordRouter) setLinkState(state string) {
	r.mu.Lock()
	r.linkState = state
	r.mu.Unlock()
	r.notify()
}

func (r *ScaleChordRouter) notify() {
	select {
	case r.updates <- struct{}{}:
	default:
	}
}

// View converts a snapshot into what the display shows
func View(s Snapshot) display.View {
	v := display.View{
		Root:        chord.PitchName(s.Root),
		Scales:      chord.ScaleNames(),
		ActiveScale: int(s.Scale),
		Octave:      s.Octave,
		Latch:       s.Latch,
		Modifiers:   s.Modifiers.String(),
	}
	for _, h := range s.Held {
		v.Chords = append(v.Chords, h.Chord.Name())
	}
	for _, n := range s.Sounding {
		v.Notes = append(v.Notes, chord.NoteName(n))
	}
	return v
}
