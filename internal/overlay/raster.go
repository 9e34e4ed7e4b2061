package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"voiceballoon/internal/domain"
)

// RasterCanvas is a double-buffered RGBA canvas. Drawing goes to the back
// buffer; Post publishes it for Snapshot and EncodePNG. Drawing methods are
// not safe for concurrent use and run under the owning Surface lock.
type RasterCanvas struct {
	font *opentype.Font

	faces map[float64]font.Face
	back  *image.RGBA

	frontMu sync.RWMutex
	front   *image.RGBA
}

// NewRasterCanvas draws text with balloonFont, or Go Regular when nil.
func NewRasterCanvas(width, height int, balloonFont *opentype.Font) (*RasterCanvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	if balloonFont == nil {
		parsed, err := fallbackFont()
		if err != nil {
			return nil, err
		}
		balloonFont = parsed
	}
	bounds := image.Rect(0, 0, width, height)
	return &RasterCanvas{
		font:  balloonFont,
		faces: make(map[float64]font.Face),
		back:  image.NewRGBA(bounds),
		front: image.NewRGBA(bounds),
	}, nil
}

func (c *RasterCanvas) Size() (int, int) {
	b := c.back.Bounds()
	return b.Dx(), b.Dy()
}

func (c *RasterCanvas) Clear() {
	draw.Draw(c.back, c.back.Bounds(), image.Transparent, image.Point{}, draw.Src)
}

func (c *RasterCanvas) FillRoundRect(left, top, right, bottom, radius float64, fill domain.Color) {
	w, h := c.Size()
	left, right = clamp(left, 0, float64(w)), clamp(right, 0, float64(w))
	top, bottom = clamp(top, 0, float64(h)), clamp(bottom, 0, float64(h))
	if right <= left || bottom <= top {
		return
	}
	radius = math.Min(radius, math.Min(right-left, bottom-top)/2)

	l, t, r, b, rad := float32(left), float32(top), float32(right), float32(bottom), float32(radius)
	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Over
	z.MoveTo(l+rad, t)
	z.LineTo(r-rad, t)
	z.QuadTo(r, t, r, t+rad)
	z.LineTo(r, b-rad)
	z.QuadTo(r, b, r-rad, b)
	z.LineTo(l+rad, b)
	z.QuadTo(l, b, l, b-rad)
	z.LineTo(l, t+rad)
	z.QuadTo(l, t, l+rad, t)
	z.ClosePath()
	z.Draw(c.back, c.back.Bounds(), image.NewUniform(toNRGBA(fill)), image.Point{})
}

func (c *RasterCanvas) DrawText(text string, x, baseline, size float64, fill domain.Color) {
	face, err := c.face(size)
	if err != nil {
		return
	}
	d := font.Drawer{
		Dst:  c.back,
		Src:  image.NewUniform(toNRGBA(fill)),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(baseline * 64)},
	}
	d.DrawString(text)
}

// Resize drops both buffers and starts blank at the new size.
func (c *RasterCanvas) Resize(width, height int) {
	bounds := image.Rect(0, 0, width, height)
	c.back = image.NewRGBA(bounds)

	c.frontMu.Lock()
	c.front = image.NewRGBA(bounds)
	c.frontMu.Unlock()
}

// Post publishes the back buffer.
func (c *RasterCanvas) Post() {
	c.frontMu.Lock()
	defer c.frontMu.Unlock()
	if c.front.Bounds() != c.back.Bounds() {
		c.front = image.NewRGBA(c.back.Bounds())
	}
	copy(c.front.Pix, c.back.Pix)
}

// Snapshot returns a copy of the last posted frame.
func (c *RasterCanvas) Snapshot() *image.RGBA {
	c.frontMu.RLock()
	defer c.frontMu.RUnlock()
	out := image.NewRGBA(c.front.Bounds())
	copy(out.Pix, c.front.Pix)
	return out
}

// EncodePNG writes the last posted frame as PNG.
func (c *RasterCanvas) EncodePNG(w io.Writer) error {
	return png.Encode(w, c.Snapshot())
}

func (c *RasterCanvas) face(size float64) (font.Face, error) {
	if face, ok := c.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, err
	}
	c.faces[size] = face
	return face, nil
}

func toNRGBA(c domain.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
