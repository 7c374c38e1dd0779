package display

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"go.uber.org/zap"

	"go-midirouter/logging"
)

// State is the connection state of a display link
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "disconnected"
}

// LinkEvent reports a lifecycle transition. Err is set on disconnect.
type LinkEvent struct {
	State State
	Err   error
}

// Conn is an open display transport
type Conn interface {
	Write(ctx context.Context, b []byte) (int, error)
	Close() error
}

// Dialer opens the display transport. It returns an error wrapping
// ErrNotFound while the device is absent.
type Dialer interface {
	Dial() (Conn, error)
}

var (
	ErrNotFound   = errors.New("display not found")
	ErrShortWrite = errors.New("short display write")
)

// Defaults for a Push 2
const (
	DefaultRetryInterval = 5 * time.Second
	DefaultWriteTimeout  = time.Second
)

// Link keeps a display connected and continuously redrawn
type Link struct {
	dialer        Dialer
	frame         func() *PixelFrame
	events        chan LinkEvent
	retry         time.Duration
	writeTimeout  time.Duration
	frameInterval time.Duration

	connected atomic.Bool
	frames    atomic.Uint64
	log       *zap.SugaredLogger
}

// Option configures a Link
type Option func(*Link)

// WithRetryInterval sets how often a missing display is polled for
func WithRetryInterval(d time.Duration) Option {
	return func(l *Link) { l.retry = d }
}

// WithWriteTimeout bounds each transfer
func WithWriteTimeout(d time.Duration) Option {
	return func(l *Link) { l.writeTimeout = d }
}

// WithFrameInterval throttles redraws; zero redraws as fast as the transport allows
func WithFrameInterval(d time.Duration) Option {
	return func(l *Link) { l.frameInterval = d }
}

// NewLink creates a link that paints frame() on every redraw
func NewLink(dialer Dialer, frame func() *PixelFrame, opts ...Option) *Link {
	l := &Link{
		dialer:       dialer,
		frame:        frame,
		events:       make(chan LinkEvent, 8),
		retry:        DefaultRetryInterval,
		writeTimeout: DefaultWriteTimeout,
		log:          logging.For("display"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Events returns lifecycle transitions. Closed when Run returns.
func (l *Link) Events() <-chan LinkEvent {
	return l.events
}

func (l *Link) Connected() bool {
	return l.connected.Load()
}

// Frames is the number of frames written since start
func (l *Link) Frames() uint64 {
	return l.frames.Load()
}

// Run connects, redraws until a write fails, then reconnects, until ctx ends
func (l *Link) Run(ctx context.Context) {
	defer close(l.events)

	for {
		conn, err := l.connect(ctx)
		if err != nil {
			return
		}
		l.connected.Store(true)
		l.log.Infow("display connected")
		l.emit(ctx, LinkEvent{State: StateConnected})

		err = l.redraw(ctx, conn)
		l.connected.Store(false)
		if cerr := conn.Close(); cerr != nil {
			l.log.Debugw("close transport", "err", cerr)
		}
		if ctx.Err() != nil {
			return
		}
		l.log.Warnw("display disconnected", "err", err)
		l.emit(ctx, LinkEvent{State: StateDisconnected, Err: err})
	}
}

func (l *Link) connect(ctx context.Context) (Conn, error) {
	l.emit(ctx, LinkEvent{State: StateConnecting})
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		conn, err := l.dialer.Dial()
		if err == nil {
			return conn, nil
		}
		if errors.Is(err, ErrNotFound) {
			logging.Every(12, "display", "display not found, retrying every %s", l.retry)
		} else {
			l.log.Warnw("display open failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Link) redraw(ctx context.Context, conn Conn) error {
	buf := make([]byte, PayloadSize)
	for l.connected.Load() {
		if ctx.Err() != nil {
			return nil
		}

		Encode(l.frame(), buf)
		if err := l.write(ctx, conn, Header[:]); err != nil {
			return err
		}
		if err := l.write(ctx, conn, buf); err != nil {
			return err
		}
		n := l.frames.Add(1)
		if n%500 == 0 {
			logging.Log("display", "frames=%d", n)
		}

		if l.frameInterval > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(l.frameInterval):
			}
		}
	}
	return nil
}

func (l *Link) write(ctx context.Context, conn Conn, b []byte) error {
	wctx, cancel := context.WithTimeout(ctx, l.writeTimeout)
	defer cancel()

	n, err := conn.Write(wctx, b)
	if err != nil {
		return fault.Wrap(err, fmsg.With("display write"), ftag.With(ftag.Internal))
	}
	if n != len(b) {
		return fault.Wrap(ErrShortWrite, fmsg.With("display write"), ftag.With(ftag.Internal))
	}
	return nil
}

func (l *Link) emit(ctx context.Context, ev LinkEvent) {
	select {
	case l.events <- ev:
	case <-ctx.Done():
	}
}
