package ports

import (
	"context"
	"io"
	"time"

	"voiceballoon/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// RecognitionConfig describes provider-agnostic recognition settings.
type RecognitionConfig struct {
	Language      string
	MaxResults    int
	SpeechTimeout time.Duration
	Audio         AudioConfig
}

// RecognitionSession is one listening session. Events is closed once the
// session has delivered its terminal event or has been cancelled.
type RecognitionSession interface {
	Events() <-chan domain.RecognitionEvent
	Cancel() error
}

// SpeechRecognizer starts listening sessions. An error means the speech
// service is unavailable; failures after start arrive as error events.
type SpeechRecognizer interface {
	StartListening(ctx context.Context, cfg RecognitionConfig) (RecognitionSession, error)
}

// Translator maps source text to translated text.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Canvas is a drawable overlay frame.
type Canvas interface {
	Size() (width int, height int)
	Clear()
	FillRoundRect(left, top, right, bottom, radius float64, color domain.Color)
	DrawText(text string, x, baseline, size float64, color domain.Color)
}

// SurfaceHolder hands out the overlay canvas while the surface exists.
type SurfaceHolder interface {
	LockCanvas() (Canvas, bool)
	UnlockCanvasAndPost(canvas Canvas)
}

// BalloonDrawer renders balloons onto the overlay.
type BalloonDrawer interface {
	DrawBalloon(left, top float64, color domain.Color, text string)
}

// FaceSource supplies the latest detected face in surface pixels.
type FaceSource interface {
	LatestFace() (left, top, right, bottom float64, ok bool)
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs delayed callbacks.
type Scheduler interface {
	AfterFunc(delay time.Duration, fn func()) Timer
}

// EventSink emits loop state/events to the UI.
type EventSink interface {
	LoopStateChanged(state domain.LoopState, reason domain.LoopStateReason)
	RecognitionStatus(kind domain.RecognitionEventKind)
	SignalLevel(rmsDB float64)
	PartialResult(text string)
	Results(candidates []string)
	RecognitionError(code domain.RecognitionErrorCode)
}
