package face

import (
	"image"
	"testing"

	"voiceballoon/internal/domain"
)

func TestMapperMirroredPortrait(t *testing.T) {
	t.Parallel()

	m := Mapper{Width: 1080, Height: 1920, Mirror: true, Rotation: 90}
	got := m.Map(domain.NormalizedRect{Left: -200, Top: -500, Right: 200, Bottom: 500})
	want := image.Rect(270, 768, 810, 1152)
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMapperCenteredFaceStaysCentered(t *testing.T) {
	t.Parallel()

	for _, rotation := range []int{0, 90, 180, 270} {
		m := Mapper{Width: 1000, Height: 1000, Mirror: true, Rotation: rotation}
		got := m.Map(domain.NormalizedRect{Left: -100, Top: -100, Right: 100, Bottom: 100})
		want := image.Rect(450, 450, 550, 550)
		if got != want {
			t.Fatalf("rotation %d: expected %v, got %v", rotation, want, got)
		}
	}
}

func TestMapperWithoutRotationOrMirror(t *testing.T) {
	t.Parallel()

	m := Mapper{Width: 2000, Height: 2000}
	got := m.Map(domain.NormalizedRect{Left: -1000, Top: -1000, Right: 0, Bottom: 0})
	want := image.Rect(0, 0, 1000, 1000)
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMapperResultIsNormalized(t *testing.T) {
	t.Parallel()

	m := Mapper{Width: 640, Height: 480, Mirror: true, Rotation: 270}
	got := m.Map(domain.NormalizedRect{Left: -900, Top: -300, Right: 100, Bottom: 700})
	if got.Min.X > got.Max.X || got.Min.Y > got.Max.Y {
		t.Fatalf("expected min <= max, got %v", got)
	}
}

func TestMapperUnmapInvertsMap(t *testing.T) {
	t.Parallel()

	rects := []domain.NormalizedRect{
		{Left: -200, Top: -500, Right: 200, Bottom: 500},
		{Left: -1000, Top: -1000, Right: 1000, Bottom: 1000},
		{Left: 100, Top: -800, Right: 600, Bottom: -200},
	}
	for _, rotation := range []int{0, 90, 180, 270} {
		for _, mirror := range []bool{false, true} {
			m := Mapper{Width: 2000, Height: 2000, Mirror: mirror, Rotation: rotation}
			for _, rect := range rects {
				back := m.Unmap(m.Map(rect))
				if back != rect {
					t.Fatalf("rotation=%d mirror=%v: expected %+v, got %+v", rotation, mirror, rect, back)
				}
			}
		}
	}
}
