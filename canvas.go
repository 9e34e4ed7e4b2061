package main

import (
	"context"
	"sync"

	"voiceballoon/internal/domain"
)

// drawOp is one canvas call replayed by the frontend.
type drawOp struct {
	Op       string       `json:"op"`
	Left     float64      `json:"left,omitempty"`
	Top      float64      `json:"top,omitempty"`
	Right    float64      `json:"right,omitempty"`
	Bottom   float64      `json:"bottom,omitempty"`
	Radius   float64      `json:"radius,omitempty"`
	Text     string       `json:"text,omitempty"`
	X        float64      `json:"x,omitempty"`
	Baseline float64      `json:"baseline,omitempty"`
	Size     float64      `json:"size,omitempty"`
	Color    domain.Color `json:"color"`
}

type overlayFrame struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Ops    []drawOp `json:"ops"`
}

type emitFunc func(ctx context.Context, event string, data ...interface{})

// webCanvas records draw calls and ships each posted frame to the webview,
// which paints it on an HTML canvas.
type webCanvas struct {
	mu     sync.Mutex
	ctx    context.Context
	emit   emitFunc
	width  int
	height int
	ops    []drawOp
}

func newWebCanvas(width, height int, emit emitFunc) *webCanvas {
	return &webCanvas{width: width, height: height, emit: emit}
}

func (c *webCanvas) attach(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctx = ctx
}

func (c *webCanvas) Size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *webCanvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops[:0], drawOp{Op: "clear", Color: domain.ColorTransparent})
}

func (c *webCanvas) FillRoundRect(left, top, right, bottom, radius float64, color domain.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, drawOp{Op: "roundRect", Left: left, Top: top, Right: right, Bottom: bottom, Radius: radius, Color: color})
}

func (c *webCanvas) DrawText(text string, x, baseline, size float64, color domain.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = append(c.ops, drawOp{Op: "text", Text: text, X: x, Baseline: baseline, Size: size, Color: color})
}

func (c *webCanvas) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = width
	c.height = height
	c.ops = nil
}

// Post emits the recorded frame. Frames recorded before the webview is up
// are dropped.
func (c *webCanvas) Post() {
	c.mu.Lock()
	frame := overlayFrame{Width: c.width, Height: c.height, Ops: append([]drawOp(nil), c.ops...)}
	ctx := c.ctx
	c.mu.Unlock()

	if ctx == nil || c.emit == nil {
		return
	}
	c.emit(ctx, eventOverlay, frame)
}
