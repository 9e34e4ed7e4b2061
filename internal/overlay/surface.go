package overlay

import (
	"sync"

	"voiceballoon/internal/ports"
)

type resizable interface {
	Resize(width, height int)
}

type poster interface {
	Post()
}

// Surface is the overlay SurfaceHolder. Only the owner of the surface
// lifecycle calls Created, Changed and Destroyed; drawers go through
// LockCanvas/UnlockCanvasAndPost, which hold the surface lock in between.
type Surface struct {
	mu     sync.Mutex
	canvas ports.Canvas
}

func NewSurface() *Surface {
	return &Surface{}
}

// Created attaches the canvas backing the surface.
func (s *Surface) Created(canvas ports.Canvas) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas = canvas
}

// Changed resizes the backing canvas when it supports resizing.
func (s *Surface) Changed(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.canvas.(resizable); ok && width > 0 && height > 0 {
		r.Resize(width, height)
	}
}

// Destroyed detaches the canvas; later draws are dropped.
func (s *Surface) Destroyed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canvas = nil
}

// Available reports whether the surface currently has a canvas.
func (s *Surface) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas != nil
}

// LockCanvas returns the canvas and keeps the surface locked until
// UnlockCanvasAndPost. It returns false when no canvas is attached.
func (s *Surface) LockCanvas() (ports.Canvas, bool) {
	s.mu.Lock()
	if s.canvas == nil {
		s.mu.Unlock()
		return nil, false
	}
	return s.canvas, true
}

func (s *Surface) UnlockCanvasAndPost(canvas ports.Canvas) {
	if p, ok := canvas.(poster); ok {
		p.Post()
	}
	s.mu.Unlock()
}
