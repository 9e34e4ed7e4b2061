package face

import (
	"image"
	"sync"
	"time"

	"voiceballoon/internal/domain"
)

// MinScore is the lowest accepted detection confidence on the 0-100 scale.
const MinScore = 30

// Tracker keeps the latest accepted face in surface pixels.
type Tracker struct {
	staleAfter time.Duration
	now        func() time.Time

	mu     sync.RWMutex
	mapper Mapper
	latest image.Rectangle
	seenAt time.Time
	found  bool
}

func NewTracker(mapper Mapper, staleAfter time.Duration) *Tracker {
	if staleAfter <= 0 {
		staleAfter = 2 * time.Second
	}
	return &Tracker{staleAfter: staleAfter, now: time.Now, mapper: mapper}
}

// Update consumes one batch of detections and returns how many passed the
// confidence threshold. The highest scoring accepted face becomes latest.
func (t *Tracker) Update(detections []domain.FaceDetection) int {
	accepted := 0
	best := domain.FaceDetection{Score: -1}
	for _, detection := range detections {
		if detection.Score < MinScore {
			continue
		}
		accepted++
		if detection.Score > best.Score {
			best = detection
		}
	}
	if accepted == 0 {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = t.mapper.Map(best.Rect)
	t.seenAt = t.now()
	t.found = true
	return accepted
}

// SetSurface updates the target surface size for later detections.
func (t *Tracker) SetSurface(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mapper.Width = width
	t.mapper.Height = height
}

// Latest returns the most recent face rectangle unless it has gone stale.
func (t *Tracker) Latest() (image.Rectangle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if !t.found || t.now().Sub(t.seenAt) > t.staleAfter {
		return image.Rectangle{}, false
	}
	return t.latest, true
}

func (t *Tracker) LatestFace() (float64, float64, float64, float64, bool) {
	r, ok := t.Latest()
	if !ok {
		return 0, 0, 0, 0, false
	}
	return float64(r.Min.X), float64(r.Min.Y), float64(r.Max.X), float64(r.Max.Y), true
}
