package usecase

import (
	"math/rand/v2"

	"voiceballoon/internal/domain"
	"voiceballoon/internal/ports"
)

const (
	defaultTextHeight = 80
	faceMargin        = 10
)

// PlacementConfig positions balloons on the overlay surface.
type PlacementConfig struct {
	TextHeight float64
	Fallback   domain.Point
	BandMin    domain.Point
	BandMax    domain.Point
	Rand       *rand.Rand
}

type balloonPlacer struct {
	faces ports.FaceSource
	cfg   PlacementConfig
}

func newBalloonPlacer(faces ports.FaceSource, cfg PlacementConfig) *balloonPlacer {
	if cfg.TextHeight <= 0 {
		cfg.TextHeight = defaultTextHeight
	}
	if cfg.Fallback == (domain.Point{}) {
		cfg.Fallback = domain.Point{X: 330, Y: 330}
	}
	if cfg.BandMax == (domain.Point{}) {
		cfg.BandMin = domain.Point{X: 0, Y: 200}
		cfg.BandMax = domain.Point{X: 400, Y: 600}
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &balloonPlacer{faces: faces, cfg: cfg}
}

// Direct places a balloon for untranslated text.
func (p *balloonPlacer) Direct() domain.Point {
	if point, ok := p.aboveFace(); ok {
		return point
	}
	return p.cfg.Fallback
}

// Translated places a balloon for a finished translation job.
func (p *balloonPlacer) Translated() domain.Point {
	if point, ok := p.aboveFace(); ok {
		return point
	}
	return domain.Point{
		X: p.cfg.BandMin.X + p.cfg.Rand.Float64()*(p.cfg.BandMax.X-p.cfg.BandMin.X),
		Y: p.cfg.BandMin.Y + p.cfg.Rand.Float64()*(p.cfg.BandMax.Y-p.cfg.BandMin.Y),
	}
}

func (p *balloonPlacer) aboveFace() (domain.Point, bool) {
	if p.faces == nil {
		return domain.Point{}, false
	}
	left, top, _, _, ok := p.faces.LatestFace()
	if !ok {
		return domain.Point{}, false
	}
	y := top - p.cfg.TextHeight - faceMargin
	if y < 0 {
		y = 0
	}
	return domain.Point{X: left, Y: y}, true
}
