package mandel

import (
	"image"
	"sync"
)

// Selection turns start/update/end pointer events into a zoom rectangle.
// Update events only matter for visual feedback; the zoom uses the start
// and end points.
type Selection struct {
	mu      sync.Mutex
	active  bool
	start   image.Point
	current image.Point
}

// Begin starts a new selection at p, discarding any unfinished one.
func (s *Selection) Begin(p image.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.start, s.current = p, p
}

// Update moves the free corner. It is ignored without a prior Begin.
func (s *Selection) Update(p image.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.current = p
	}
}

// End closes the selection at p. ok is false if no selection was active.
func (s *Selection) End(p image.Point) (start, end image.Point, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return image.Point{}, image.Point{}, false
	}
	s.active = false
	s.current = p
	return s.start, p, true
}

// Rect is the rectangle spanned so far, for drawing an overlay.
func (s *Selection) Rect() (image.Rectangle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return image.Rectangle{Min: s.start, Max: s.current}.Canon(), s.active
}
