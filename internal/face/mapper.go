package face

import (
	"image"
	"math"

	"voiceballoon/internal/domain"
)

// sensorExtent is the width of the normalized face space (-1000..1000).
const sensorExtent = 2000

// Mapper converts normalized sensor rectangles into surface pixels. Rotation
// is the display orientation in degrees, clockwise.
type Mapper struct {
	Width    int
	Height   int
	Mirror   bool
	Rotation int
}

// Map is a pure function of the rectangle and the mapper settings.
func (m Mapper) Map(r domain.NormalizedRect) image.Rectangle {
	x0, y0 := m.mapPoint(float64(r.Left), float64(r.Top))
	x1, y1 := m.mapPoint(float64(r.Right), float64(r.Bottom))
	return image.Rect(round(x0), round(y0), round(x1), round(y1))
}

// Unmap inverts Map up to rounding.
func (m Mapper) Unmap(p image.Rectangle) domain.NormalizedRect {
	x0, y0 := m.unmapPoint(float64(p.Min.X), float64(p.Min.Y))
	x1, y1 := m.unmapPoint(float64(p.Max.X), float64(p.Max.Y))
	return domain.NormalizedRect{
		Left:   round(math.Min(x0, x1)),
		Top:    round(math.Min(y0, y1)),
		Right:  round(math.Max(x0, x1)),
		Bottom: round(math.Max(y0, y1)),
	}
}

func (m Mapper) mapPoint(x, y float64) (float64, float64) {
	if m.Mirror {
		x = -x
	}
	x, y = rotate(x, y, m.Rotation)
	return x*float64(m.Width)/sensorExtent + float64(m.Width)/2,
		y*float64(m.Height)/sensorExtent + float64(m.Height)/2
}

func (m Mapper) unmapPoint(px, py float64) (float64, float64) {
	x := (px - float64(m.Width)/2) * sensorExtent / float64(m.Width)
	y := (py - float64(m.Height)/2) * sensorExtent / float64(m.Height)
	x, y = rotate(x, y, -m.Rotation)
	if m.Mirror {
		x = -x
	}
	return x, y
}

func rotate(x, y float64, degrees int) (float64, float64) {
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return -y, x
	case 180:
		return -x, -y
	case 270:
		return y, -x
	default:
		return x, y
	}
}

func round(v float64) int {
	return int(math.Round(v))
}
