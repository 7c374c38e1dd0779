package router

import (
	"context"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"

	"go-midirouter/chord"
	"go-midirouter/config"
	"go-midirouter/display"
	"go-midirouter/midi"
	"go-midirouter/theme"
)

// Env carries what every router built from config shares
type Env struct {
	Theme        *theme.Theme
	PortRetry    time.Duration
	DisplayRetry time.Duration
	WriteTimeout time.Duration
}

// EnvFrom takes the timings out of a validated config
func EnvFrom(cfg *config.Config, th *theme.Theme) Env {
	return Env{
		Theme:        th,
		PortRetry:    cfg.PortRetry(),
		DisplayRetry: cfg.DisplayRetry(),
		WriteTimeout: cfg.WriteTimeout(),
	}
}

// FromConfig opens the ports named by rc, waiting for any that are missing,
// and builds the router. It returns early only when ctx ends or a port
// cannot be opened.
func FromConfig(ctx context.Context, rc config.RouterConfig, env Env) (Router, error) {
	inPort, err := midi.WaitIn(ctx, rc.In, env.PortRetry)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(rc.Name+": input"))
	}
	in, err := midi.NewInput(inPort)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(rc.Name))
	}

	sinks := make([]midi.Sink, 0, len(rc.Out))
	for _, o := range rc.Out {
		port, err := midi.WaitOut(ctx, o.Port, env.PortRetry)
		if err != nil {
			release(in, sinks, nil)
			return nil, fault.Wrap(err, fmsg.With(rc.Name+": output"))
		}
		out, err := midi.NewOutput(port, o.ZeroBasedChannel())
		if err != nil {
			release(in, sinks, nil)
			return nil, fault.Wrap(err, fmsg.With(rc.Name))
		}
		sinks = append(sinks, out)
	}

	if rc.Kind == config.KindPlain {
		return NewPlainRouter(rc.ID, rc.Name, in, sinks), nil
	}

	root, err := chord.ParseRoot(rc.Root)
	if err != nil {
		release(in, sinks, nil)
		return nil, fault.Wrap(err, fmsg.With(rc.Name))
	}
	scale, err := chord.ParseScale(rc.Scale)
	if err != nil {
		release(in, sinks, nil)
		return nil, fault.Wrap(err, fmsg.With(rc.Name))
	}
	page := NewPage(root, scale)

	var surface midi.Surface
	if rc.Surface != "" {
		port, err := midi.WaitOut(ctx, rc.Surface, env.PortRetry)
		if err != nil {
			release(in, sinks, nil)
			return nil, fault.Wrap(err, fmsg.With(rc.Name+": surface"))
		}
		s, err := midi.NewPush2Surface(rc.ID, port)
		if err != nil {
			release(in, sinks, nil)
			return nil, fault.Wrap(err, fmsg.With(rc.Name+": surface"))
		}
		surface = s
	}

	var link *display.Link
	if rc.Display {
		link, err = newDisplayLink(rc.Name, page, env)
		if err != nil {
			release(in, sinks, surface)
			return nil, fault.Wrap(err, fmsg.With(rc.Name+": display"))
		}
	}

	return NewScaleChordRouter(rc.ID, rc.Name, in, sinks, surface, page, link), nil
}

// release closes whatever FromConfig opened before failing
func release(in *midi.Input, sinks []midi.Sink, surface midi.Surface) {
	if in != nil {
		in.Close()
	}
	for _, s := range sinks {
		s.Close()
	}
	if surface != nil {
		surface.Close()
	}
}

func newDisplayLink(name string, page *Page, env Env) (*display.Link, error) {
	th := env.Theme
	if th == nil {
		th = theme.New(theme.DefaultPalette())
	}
	renderer, err := display.NewRenderer(th)
	if err != nil {
		return nil, err
	}

	var opts []display.Option
	if env.DisplayRetry > 0 {
		opts = append(opts, display.WithRetryInterval(env.DisplayRetry))
	}
	if env.WriteTimeout > 0 {
		opts = append(opts, display.WithWriteTimeout(env.WriteTimeout))
	}

	frame := func() *display.PixelFrame {
		v := View(page.Snapshot())
		v.Status = name
		return renderer.Render(v)
	}
	return display.NewLink(display.NewPush2Dialer(), frame, opts...), nil
}
