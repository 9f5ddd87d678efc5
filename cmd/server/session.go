package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	mandel "github.com/marben/mandelzoom"
	"github.com/marben/mandelzoom/internal/wire"
)

// session is one browser connection. It turns the client's pointer events
// into zoom requests and streams finished frames back.
type session struct {
	c      *websocket.Conn
	engine *mandel.Engine
	sel    mandel.Selection

	frames chan *frame      // latest frame only
	notes  chan wire.Status // rejected requests
}

func newSession(c *websocket.Conn, engine *mandel.Engine) *session {
	return &session{
		c:      c,
		engine: engine,
		frames: make(chan *frame, 1),
		notes:  make(chan wire.Status, 8),
	}
}

// push queues f, replacing a frame the client has not received yet.
func (s *session) push(f *frame) {
	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case <-s.frames:
		default:
		}
	}
}

func (s *session) note(err error) {
	st := wire.Status{
		Type:     wire.StatusError,
		Viewport: s.engine.Viewport(),
		Depth:    s.engine.Depth(),
		Error:    err.Error(),
	}
	select {
	case s.notes <- st:
	default:
		slog.Debug("dropping note", "err", err)
	}
}

// run serves the connection until the client goes away or ctx ends.
func (s *session) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.c.CloseNow()

	errc := make(chan error, 2)
	go func() { errc <- s.readLoop(ctx) }()
	go func() { errc <- s.writeLoop(ctx) }()

	err := <-errc
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *session) readLoop(ctx context.Context) error {
	for {
		var ev wire.Event
		if err := wsjson.Read(ctx, s.c, &ev); err != nil {
			return fmt.Errorf("read event: %w", err)
		}
		if err := s.handle(ev); err != nil {
			slog.Warn("request rejected", "event", ev.Type, "err", err)
			s.note(err)
		}
	}
}

func (s *session) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st := <-s.notes:
			if err := wsjson.Write(ctx, s.c, st); err != nil {
				return fmt.Errorf("write status: %w", err)
			}
		case f := <-s.frames:
			if err := wsjson.Write(ctx, s.c, f.status); err != nil {
				return fmt.Errorf("write frame status: %w", err)
			}
			if err := s.c.Write(ctx, websocket.MessageBinary, f.png); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
		}
	}
}

func (s *session) handle(ev wire.Event) error {
	p := image.Pt(ev.X, ev.Y)
	switch ev.Type {
	case wire.EventStart:
		s.sel.Begin(p)
	case wire.EventUpdate:
		s.sel.Update(p)
		if r, ok := s.sel.Rect(); ok {
			slog.Debug("selection update", "rect", r)
		}
	case wire.EventEnd:
		start, end, ok := s.sel.End(p)
		if !ok {
			return errors.New("selection end without start")
		}
		return s.engine.StartZoomRender(start, end)
	case wire.EventOut:
		return s.engine.ZoomOut()
	case wire.EventReset:
		return s.engine.Reset()
	default:
		return fmt.Errorf("unknown event %q", ev.Type)
	}
	return nil
}
