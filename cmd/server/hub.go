package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"sync"

	mandel "github.com/marben/mandelzoom"
	"github.com/marben/mandelzoom/internal/annotate"
	"github.com/marben/mandelzoom/internal/wire"
)

// frame is one finished pass, encoded once and shared by every session.
type frame struct {
	status wire.Status
	png    []byte
}

// hub owns the engine's output: it snapshots each finished pass, keeps the
// latest frame for late joiners and fans frames out to the sessions.
type hub struct {
	engine *mandel.Engine
	sink   *mandel.RGBASink
	base   mandel.Region

	mu       sync.Mutex
	sessions map[*session]struct{}
	last     *frame
	lastImg  *image.RGBA

	ready     chan struct{} // closed with the first frame
	readyOnce sync.Once
}

func newHub(sink *mandel.RGBASink, base mandel.Region) *hub {
	return &hub{
		sink:     sink,
		base:     base,
		sessions: make(map[*session]struct{}),
		ready:    make(chan struct{}),
	}
}

// passDone is the engine's pass callback. The engine stays busy until it
// returns, so the sink is stable while we copy it.
func (h *hub) passDone(s mandel.PassStats) {
	img := h.sink.Snapshot()
	h.mu.Lock()
	h.lastImg = img
	h.mu.Unlock()
	h.readyOnce.Do(func() { close(h.ready) })

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		slog.Error("encode frame", "err", err)
		return
	}

	b := h.engine.Bounds()
	f := &frame{
		status: wire.Status{
			Type:        wire.StatusFrame,
			Width:       b.Dx(),
			Height:      b.Dy(),
			Viewport:    s.Region,
			Description: annotate.Describe(s.Region, h.engine.MaxIter(), h.base),
			ElapsedMS:   s.Elapsed.Milliseconds(),
			Tiles:       s.Tiles,
			Depth:       h.engine.Depth(),
		},
		png: buf.Bytes(),
	}

	h.mu.Lock()
	h.last = f
	sessions := make([]*session, 0, len(h.sessions))
	for sess := range h.sessions {
		sessions = append(sessions, sess)
	}
	h.mu.Unlock()

	slog.Info("frame ready",
		"viewport", s.Region,
		"elapsed", s.Elapsed,
		"bytes", annotate.Count(len(f.png)),
		"sessions", len(sessions))
	for _, sess := range sessions {
		sess.push(f)
	}
}

// GetImage implements mandel.ImgProvider. It blocks until the first pass is
// done or ctx ends.
func (h *hub) GetImage(ctx context.Context) (image.RGBA, error) {
	select {
	case <-h.ready:
	case <-ctx.Done():
		return image.RGBA{}, fmt.Errorf("waiting for first frame: %w", ctx.Err())
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return *h.lastImg, nil
}

var _ mandel.ImgProvider = (*hub)(nil)

// serve accepts sessions until the listener is closed.
func (h *hub) serve(ctx context.Context, l *WebsocketListener) error {
	for {
		c, err := l.Accept()
		if err != nil {
			return err
		}
		sess := newSession(c, h.engine)
		h.add(sess)
		go func() {
			defer h.remove(sess)
			if err := sess.run(ctx); err != nil {
				slog.Debug("session ended", "err", err)
			}
		}()
	}
}

func (h *hub) add(sess *session) {
	h.mu.Lock()
	h.sessions[sess] = struct{}{}
	last := h.last
	h.mu.Unlock()

	slog.Info("session connected", "sessions", h.count())
	if last != nil {
		sess.push(last)
	}
}

func (h *hub) remove(sess *session) {
	h.mu.Lock()
	delete(h.sessions, sess)
	h.mu.Unlock()
	slog.Info("session disconnected", "sessions", h.count())
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}
