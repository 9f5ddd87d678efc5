package mandel

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingSink counts writes per pixel. Out-of-bounds writes panic.
type countingSink struct {
	w, h   int
	counts []atomic.Int32
}

func newCountingSink(w, h int) *countingSink {
	return &countingSink{w: w, h: h, counts: make([]atomic.Int32, w*h)}
}

func (s *countingSink) SetPixel(x, y int, _ color.RGBA) {
	if x < 0 || x >= s.w || y < 0 || y >= s.h {
		panic("pixel out of bounds")
	}
	s.counts[y*s.w+x].Add(1)
}

func (s *countingSink) count(x, y int) int32 {
	return s.counts[y*s.w+x].Load()
}

func (s *countingSink) reset() {
	for i := range s.counts {
		s.counts[i].Store(0)
	}
}

// gateSink blocks every write until open is closed.
type gateSink struct {
	open    chan struct{}
	entered chan struct{}
	once    sync.Once
	release sync.Once
}

func newGateSink() *gateSink {
	return &gateSink{open: make(chan struct{}), entered: make(chan struct{})}
}

func (s *gateSink) openGate() {
	s.release.Do(func() { close(s.open) })
}

func (s *gateSink) SetPixel(int, int, color.RGBA) {
	s.once.Do(func() { close(s.entered) })
	<-s.open
}

func waitEngine(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func newTestEngine(t *testing.T, w, h int, sink PixelSink, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{WithMaxIter(64)}, opts...)
	e, err := NewEngine(w, h, sink, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

// =============================================================================
// Render pass Tests
// =============================================================================

func TestEngine_FullPassWritesEachPixelOnce(t *testing.T) {
	tests := []struct {
		name        string
		w, h        int
		parallelism int
		covered     image.Rectangle
	}{
		{"exact fit", 400, 400, 64, image.Rect(0, 0, 400, 400)},
		{"remainder strip", 403, 405, 64, image.Rect(0, 0, 400, 400)},
		{"single worker", 97, 31, 1, image.Rect(0, 0, 97, 31)},
		{"non-square parallelism", 100, 100, 10, image.Rect(0, 0, 99, 99)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := newCountingSink(tt.w, tt.h)
			e := newTestEngine(t, tt.w, tt.h, sink)

			if err := e.StartInitialRender(FullView, tt.parallelism); err != nil {
				t.Fatalf("StartInitialRender: %v", err)
			}
			waitEngine(t, e)

			for y := range tt.h {
				for x := range tt.w {
					want := int32(0)
					if image.Pt(x, y).In(tt.covered) {
						want = 1
					}
					if got := sink.count(x, y); got != want {
						t.Fatalf("pixel (%d,%d) written %d times, want %d", x, y, got, want)
					}
				}
			}
		})
	}
}

func TestEngine_RepeatedPassesReuseWorkers(t *testing.T) {
	sink := newCountingSink(64, 64)
	e := newTestEngine(t, 64, 64, sink)

	for i := range 20 {
		sink.reset()
		if err := e.StartInitialRender(FullView, 16); err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
		waitEngine(t, e)
		for y := range 64 {
			for x := range 64 {
				if got := sink.count(x, y); got != 1 {
					t.Fatalf("pass %d: pixel (%d,%d) written %d times", i, x, y, got)
				}
			}
		}
	}
}

func TestEngine_ChangingParallelism(t *testing.T) {
	sink := newCountingSink(120, 120)
	e := newTestEngine(t, 120, 120, sink)

	for _, p := range []int{64, 4, 9, 1, 64} {
		sink.reset()
		if err := e.StartInitialRender(FullView, p); err != nil {
			t.Fatalf("parallelism %d: %v", p, err)
		}
		waitEngine(t, e)
		if e.Parallelism() != p {
			t.Errorf("Parallelism() = %d, want %d", e.Parallelism(), p)
		}
		if got := sink.count(119, 119); got != 1 {
			t.Errorf("parallelism %d: corner written %d times", p, got)
		}
	}
}

func TestEngine_TooManyWorkersChangesNothing(t *testing.T) {
	sink := newCountingSink(64, 64)
	e := newTestEngine(t, 64, 64, sink)

	if err := e.StartInitialRender(SeahorseValley, 4); err != nil {
		t.Fatal(err)
	}
	waitEngine(t, e)
	sink.reset()

	err := e.StartInitialRender(FullView, MaxWorkers+1)
	if !errors.Is(err, ErrTooManyWorkers) {
		t.Fatalf("err = %v, want ErrTooManyWorkers", err)
	}
	if e.Viewport() != SeahorseValley {
		t.Errorf("Viewport() = %v, want %v", e.Viewport(), SeahorseValley)
	}
	if e.Parallelism() != 4 {
		t.Errorf("Parallelism() = %d, want 4", e.Parallelism())
	}
	if e.Busy() {
		t.Error("engine should not be busy after a rejected pass")
	}
	if got := sink.count(0, 0); got != 0 {
		t.Errorf("rejected pass wrote pixel (0,0) %d times", got)
	}
}

func TestEngine_InvalidRegion(t *testing.T) {
	e := newTestEngine(t, 64, 64, newCountingSink(64, 64))
	err := e.StartInitialRender(Region{Xmin: 1, Xmax: 1, Ymin: 0, Ymax: 1}, 4)
	if !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("err = %v, want ErrInvalidRegion", err)
	}
}

// =============================================================================
// Zoom Tests
// =============================================================================

func TestEngine_ZoomShrinksStep(t *testing.T) {
	const w, h = 200, 200
	e := newTestEngine(t, w, h, newCountingSink(w, h))

	if err := e.StartInitialRender(FullView, 16); err != nil {
		t.Fatal(err)
	}
	waitEngine(t, e)
	before := NewMapper(e.Viewport(), w, h)

	// Corners given bottom-right first to exercise normalization.
	if err := e.StartZoomRender(image.Pt(150, 120), image.Pt(50, 20)); err != nil {
		t.Fatalf("StartZoomRender: %v", err)
	}
	waitEngine(t, e)
	after := NewMapper(e.Viewport(), w, h)

	if !(after.StepX < before.StepX && after.StepY < before.StepY) {
		t.Errorf("step (%g,%g) not smaller than (%g,%g)", after.StepX, after.StepY, before.StepX, before.StepY)
	}

	want := NewRegion(before.ToComplex(50, 20), before.ToComplex(150, 120))
	if e.Viewport() != want {
		t.Errorf("Viewport() = %v, want %v", e.Viewport(), want)
	}
	if e.Depth() != 1 {
		t.Errorf("Depth() = %d, want 1", e.Depth())
	}
}

func TestEngine_ZoomClampsSelection(t *testing.T) {
	const w, h = 100, 100
	e := newTestEngine(t, w, h, newCountingSink(w, h))

	if err := e.StartInitialRender(FullView, 4); err != nil {
		t.Fatal(err)
	}
	waitEngine(t, e)

	if err := e.StartZoomRender(image.Pt(-30, -30), image.Pt(50, 500)); err != nil {
		t.Fatalf("StartZoomRender: %v", err)
	}
	waitEngine(t, e)

	got := e.Viewport()
	want := Region{Xmin: FullView.Xmin, Xmax: -0.5, Ymin: FullView.Ymin, Ymax: FullView.Ymax}
	if math.Abs(got.Xmin-want.Xmin) > 1e-12 || math.Abs(got.Xmax-want.Xmax) > 1e-12 ||
		math.Abs(got.Ymin-want.Ymin) > 1e-12 || math.Abs(got.Ymax-want.Ymax) > 1e-12 {
		t.Errorf("Viewport() = %v, want %v", got, want)
	}
}

func TestEngine_DegenerateSelection(t *testing.T) {
	const w, h = 100, 100
	sink := newCountingSink(w, h)
	e := newTestEngine(t, w, h, sink)

	if err := e.StartInitialRender(FullView, 4); err != nil {
		t.Fatal(err)
	}
	waitEngine(t, e)
	sink.reset()

	tests := []struct {
		name       string
		start, end image.Point
	}{
		{"single click", image.Pt(40, 40), image.Pt(40, 40)},
		{"zero width", image.Pt(10, 10), image.Pt(10, 60)},
		{"zero height", image.Pt(10, 10), image.Pt(60, 10)},
		{"clamped to a line", image.Pt(-10, 20), image.Pt(-50, 80)},
		{"fully outside", image.Pt(200, 200), image.Pt(300, 300)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.StartZoomRender(tt.start, tt.end)
			if !errors.Is(err, ErrDegenerateSelection) {
				t.Fatalf("err = %v, want ErrDegenerateSelection", err)
			}
			if e.Viewport() != FullView {
				t.Errorf("Viewport() = %v, want %v", e.Viewport(), FullView)
			}
			if e.Busy() {
				t.Error("degenerate selection started a pass")
			}
		})
	}

	if got := sink.count(50, 50); got != 0 {
		t.Errorf("pixel rewritten %d times after degenerate selections", got)
	}
	if e.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", e.Depth())
	}
}

func TestEngine_ZoomBeforeRender(t *testing.T) {
	e := newTestEngine(t, 64, 64, newCountingSink(64, 64))
	err := e.StartZoomRender(image.Pt(0, 0), image.Pt(10, 10))
	if !errors.Is(err, ErrInvalidRegion) {
		t.Errorf("err = %v, want ErrInvalidRegion", err)
	}
}

func TestEngine_ZoomOutAndReset(t *testing.T) {
	const w, h = 80, 80
	e := newTestEngine(t, w, h, newCountingSink(w, h))

	if err := e.ZoomOut(); !errors.Is(err, ErrNoHistory) {
		t.Fatalf("ZoomOut on fresh engine: err = %v, want ErrNoHistory", err)
	}

	if err := e.StartInitialRender(FullView, 4); err != nil {
		t.Fatal(err)
	}
	waitEngine(t, e)

	var regions []Region
	for range 3 {
		regions = append(regions, e.Viewport())
		if err := e.StartZoomRender(image.Pt(20, 20), image.Pt(60, 60)); err != nil {
			t.Fatal(err)
		}
		waitEngine(t, e)
	}
	if e.Depth() != 3 {
		t.Fatalf("Depth() = %d, want 3", e.Depth())
	}

	if err := e.ZoomOut(); err != nil {
		t.Fatal(err)
	}
	waitEngine(t, e)
	if e.Viewport() != regions[2] {
		t.Errorf("after ZoomOut Viewport() = %v, want %v", e.Viewport(), regions[2])
	}

	if err := e.Reset(); err != nil {
		t.Fatal(err)
	}
	waitEngine(t, e)
	if e.Viewport() != FullView {
		t.Errorf("after Reset Viewport() = %v, want %v", e.Viewport(), FullView)
	}
	if e.Depth() != 0 {
		t.Errorf("after Reset Depth() = %d, want 0", e.Depth())
	}
}

// =============================================================================
// Busy policy Tests
// =============================================================================

func TestEngine_RejectsWhileBusy(t *testing.T) {
	sink := newGateSink()
	e := newTestEngine(t, 32, 32, sink)
	t.Cleanup(sink.openGate)

	if err := e.StartInitialRender(FullView, 4); err != nil {
		t.Fatal(err)
	}
	<-sink.entered

	if !e.Busy() {
		t.Fatal("engine should be busy")
	}
	if err := e.StartZoomRender(image.Pt(0, 0), image.Pt(16, 16)); !errors.Is(err, ErrPassInProgress) {
		t.Errorf("zoom: err = %v, want ErrPassInProgress", err)
	}
	if err := e.StartInitialRender(SeahorseValley, 4); !errors.Is(err, ErrPassInProgress) {
		t.Errorf("initial: err = %v, want ErrPassInProgress", err)
	}
	if e.Viewport() != FullView {
		t.Errorf("Viewport() = %v, want %v", e.Viewport(), FullView)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := e.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait on blocked pass: err = %v, want DeadlineExceeded", err)
	}

	sink.openGate()
	waitEngine(t, e)

	if err := e.StartZoomRender(image.Pt(0, 0), image.Pt(16, 16)); err != nil {
		t.Errorf("zoom after completion: %v", err)
	}
	waitEngine(t, e)
}

func TestEngine_OnPassDone(t *testing.T) {
	var mu sync.Mutex
	var stats []PassStats
	e := newTestEngine(t, 90, 90, newCountingSink(90, 90), WithOnPassDone(func(s PassStats) {
		mu.Lock()
		stats = append(stats, s)
		mu.Unlock()
	}))

	if err := e.StartInitialRender(FullView, 16); err != nil {
		t.Fatal(err)
	}
	waitEngine(t, e)
	if err := e.StartZoomRender(image.Pt(10, 10), image.Pt(40, 40)); err != nil {
		t.Fatal(err)
	}
	waitEngine(t, e)

	mu.Lock()
	defer mu.Unlock()
	if len(stats) != 2 {
		t.Fatalf("callback fired %d times, want 2", len(stats))
	}
	if stats[0].Region != FullView || stats[0].Tiles != 16 {
		t.Errorf("first pass stats = %+v", stats[0])
	}
	if stats[0].Covered != image.Rect(0, 0, 88, 88) {
		t.Errorf("Covered = %v, want %v", stats[0].Covered, image.Rect(0, 0, 88, 88))
	}
	if stats[1].Region != e.Viewport() || stats[1].Cancelled {
		t.Errorf("second pass stats = %+v", stats[1])
	}
}

func TestEngine_Close(t *testing.T) {
	e, err := NewEngine(32, 32, newCountingSink(32, 32), WithMaxIter(16))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.StartInitialRender(FullView, 4); err != nil {
		t.Fatal(err)
	}
	e.Close()
	e.Close()

	waitEngine(t, e)
	if err := e.StartInitialRender(FullView, 4); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestNewEngine_Errors(t *testing.T) {
	if _, err := NewEngine(0, 10, newCountingSink(1, 1)); err == nil {
		t.Error("zero width should fail")
	}
	if _, err := NewEngine(10, 10, nil); err == nil {
		t.Error("nil sink should fail")
	}
}

func TestEngine_RGBASinkSnapshot(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	sink := NewRGBASink(img)
	e := newTestEngine(t, 48, 48, sink)

	if err := e.StartInitialRender(FullView, 9); err != nil {
		t.Fatal(err)
	}
	waitEngine(t, e)

	snap := sink.Snapshot()
	if snap == img {
		t.Fatal("Snapshot returned the backing image")
	}
	pal := NewPalette(64)
	m := NewMapper(FullView, 48, 48)
	want := pal.Color(Escape(m.ToComplex(5, 7), 64))
	if got := snap.RGBAAt(5, 7); got != want {
		t.Errorf("pixel (5,7) = %v, want %v", got, want)
	}
	// The center of the full view is inside the set.
	if got := snap.RGBAAt(24, 24); got != pal[0] {
		t.Errorf("center pixel = %v, want %v", got, pal[0])
	}
}

func TestEngine_OnPassDoneMayQueryEngine(t *testing.T) {
	type seen struct {
		busy    bool
		region  Region
		waitErr error
	}
	got := make(chan seen, 1)

	var e *Engine
	e = newTestEngine(t, 32, 32, newCountingSink(32, 32), WithOnPassDone(func(PassStats) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		got <- seen{busy: e.Busy(), region: e.Viewport(), waitErr: e.Wait(ctx)}
	}))

	if err := e.StartInitialRender(FullView, 4); err != nil {
		t.Fatal(err)
	}
	waitEngine(t, e)

	s := <-got
	if !s.busy {
		t.Error("engine should report busy inside the callback")
	}
	if s.region != FullView {
		t.Errorf("Viewport() in callback = %v, want %v", s.region, FullView)
	}
	if !errors.Is(s.waitErr, context.DeadlineExceeded) {
		t.Errorf("Wait in callback: err = %v, want DeadlineExceeded", s.waitErr)
	}

	// The engine is idle again once the callback has returned.
	if e.Busy() {
		t.Error("engine still busy after the callback returned")
	}
	if err := e.StartZoomRender(image.Pt(0, 0), image.Pt(16, 16)); err != nil {
		t.Fatalf("zoom after callback: %v", err)
	}
	waitEngine(t, e)
	<-got
}
