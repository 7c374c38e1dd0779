package midi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go-midirouter/logging"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

var (
	ErrPortNotFound = errors.New("midi port not found")
	ErrScanTimeout  = errors.New("midi port scan timed out")
)

// scanTimeout bounds a port enumeration (CoreMIDI can hang)
const scanTimeout = 3 * time.Second

// scanPorts is swapped out in tests
var scanPorts = Scan

// Ports is one snapshot of the available MIDI ports
type Ports struct {
	In  []drivers.In
	Out []drivers.Out
}

// InNames returns the input port names
func (p Ports) InNames() []string {
	names := make([]string, len(p.In))
	for i, port := range p.In {
		names[i] = port.String()
	}
	return names
}

// OutNames returns the output port names
func (p Ports) OutNames() []string {
	names := make([]string, len(p.Out))
	for i, port := range p.Out {
		names[i] = port.String()
	}
	return names
}

// FindIn returns the first input whose name contains pattern (case-insensitive)
func (p Ports) FindIn(pattern string) (drivers.In, bool) {
	for _, port := range p.In {
		if Match(port.String(), pattern) {
			return port, true
		}
	}
	return nil, false
}

// FindOut returns the first output whose name contains pattern (case-insensitive)
func (p Ports) FindOut(pattern string) (drivers.Out, bool) {
	for _, port := range p.Out {
		if Match(port.String(), pattern) {
			return port, true
		}
	}
	return nil, false
}

// Match reports whether name contains pattern, ignoring case
func Match(name, pattern string) bool {
	if pattern == "" {
		return false
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(pattern))
}

// Scan enumerates ports, giving up after scanTimeout
func Scan() (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		ch <- Ports{In: gomidi.GetInPorts(), Out: gomidi.GetOutPorts()}
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(scanTimeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return Ports{}, ErrScanTimeout
	}
}

// WaitIn polls until an input matching pattern shows up or ctx ends.
// Every miss is logged as a warning. When ctx ends first the error wraps
// both ErrPortNotFound and the context error.
func WaitIn(ctx context.Context, pattern string, every time.Duration) (drivers.In, error) {
	return wait(ctx, pattern, every, "input", func(p Ports) (drivers.In, bool) { return p.FindIn(pattern) })
}

// WaitOut polls until an output matching pattern shows up or ctx ends
func WaitOut(ctx context.Context, pattern string, every time.Duration) (drivers.Out, error) {
	return wait(ctx, pattern, every, "output", func(p Ports) (drivers.Out, bool) { return p.FindOut(pattern) })
}

func wait[T any](ctx context.Context, pattern string, every time.Duration, dir string, find func(Ports) (T, bool)) (T, error) {
	log := logging.For("ports")
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		ports, err := scanPorts()
		if err == nil {
			if port, ok := find(ports); ok {
				return port, nil
			}
			log.Warnw("port not available, retrying", "dir", dir, "pattern", pattern, "every", every)
		} else {
			log.Warnw("port scan failed", "err", err)
		}

		select {
		case <-ctx.Done():
			var zero T
			return zero, fmt.Errorf("%w: %s %q: %w", ErrPortNotFound, dir, pattern, ctx.Err())
		case <-ticker.C:
		}
	}
}

// PortEvent is emitted when a port appears or disappears
type PortEvent struct {
	Type PortEventType
	Dir  string // "in" or "out"
	Name string
}

type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

func (t PortEventType) String() string {
	if t == PortConnected {
		return "connected"
	}
	return "disconnected"
}

// PortWatcher reports hot-plug changes by diffing periodic scans
type PortWatcher struct {
	mu       sync.RWMutex
	seen     map[string]bool // "in:name" / "out:name"
	events   chan PortEvent
	pollRate time.Duration
	scan     func() (in, out []string, err error)
}

// NewPortWatcher creates a watcher polling every pollRate
func NewPortWatcher(pollRate time.Duration) *PortWatcher {
	return &PortWatcher{
		seen:     make(map[string]bool),
		events:   make(chan PortEvent, 16),
		pollRate: pollRate,
		scan:     scanNames,
	}
}

// Events returns a channel of port connect/disconnect events
func (w *PortWatcher) Events() <-chan PortEvent {
	return w.events
}

// Current returns the currently known port keys, sorted
func (w *PortWatcher) Current() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	keys := make([]string, 0, len(w.seen))
	for k := range w.seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *PortWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()

	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			close(w.events)
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *PortWatcher) poll(ctx context.Context) {
	ins, outs, err := w.scan()
	if err != nil {
		logging.Log("ports", "scan skipped: %v", err)
		return
	}

	now := make(map[string]bool)
	for _, n := range ins {
		now["in:"+n] = true
	}
	for _, n := range outs {
		now["out:"+n] = true
	}

	w.mu.Lock()
	var events []PortEvent
	for key := range now {
		if !w.seen[key] {
			events = append(events, portEvent(PortConnected, key))
		}
	}
	for key := range w.seen {
		if !now[key] {
			events = append(events, portEvent(PortDisconnected, key))
		}
	}
	w.seen = now
	w.mu.Unlock()

	sort.Slice(events, func(i, j int) bool { return events[i].Dir+events[i].Name < events[j].Dir+events[j].Name })
	for _, ev := range events {
		select {
		case w.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func scanNames() (in, out []string, err error) {
	ports, err := scanPorts()
	if err != nil {
		return nil, nil, err
	}
	return ports.InNames(), ports.OutNames(), nil
}

func portEvent(t PortEventType, key string) PortEvent {
	dir, name, _ := strings.Cut(key, ":")
	return PortEvent{Type: t, Dir: dir, Name: name}
}
