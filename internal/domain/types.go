package domain

import "time"

// LoopState models the continuous-recognition lifecycle.
type LoopState string

const (
	LoopStateIdle             LoopState = "idle"
	LoopStateListening        LoopState = "listening"
	LoopStateResult           LoopState = "result"
	LoopStateErrorTerminal    LoopState = "error_terminal"
	LoopStateErrorRecoverable LoopState = "error_recoverable"
	LoopStateStopped          LoopState = "stopped"
)

// LoopStateReason provides a structured reason for state transitions.
type LoopStateReason string

const (
	LoopReasonInitial            LoopStateReason = "initial"
	LoopReasonListeningStarted   LoopStateReason = "listening_started"
	LoopReasonListeningRestarted LoopStateReason = "listening_restarted"
	LoopReasonServiceUnavailable LoopStateReason = "service_unavailable"
	LoopReasonResult             LoopStateReason = "result"
	LoopReasonStopKeyword        LoopStateReason = "stop_keyword"
	LoopReasonEndOfSpeech        LoopStateReason = "end_of_speech"
	LoopReasonRecoverableError   LoopStateReason = "recoverable_error"
	LoopReasonTerminalError      LoopStateReason = "terminal_error"
	LoopReasonManualStop         LoopStateReason = "manual_stop"
)

// RecognitionErrorCode is the fixed error enumeration reported by recognizers.
type RecognitionErrorCode string

const (
	RecognitionErrorAudio                   RecognitionErrorCode = "audio"
	RecognitionErrorClient                  RecognitionErrorCode = "client"
	RecognitionErrorInsufficientPermissions RecognitionErrorCode = "insufficient_permissions"
	RecognitionErrorNetwork                 RecognitionErrorCode = "network"
	RecognitionErrorNetworkTimeout          RecognitionErrorCode = "network_timeout"
	RecognitionErrorNoMatch                 RecognitionErrorCode = "no_match"
	RecognitionErrorRecognizerBusy          RecognitionErrorCode = "recognizer_busy"
	RecognitionErrorServer                  RecognitionErrorCode = "server"
	RecognitionErrorSpeechTimeout           RecognitionErrorCode = "speech_timeout"
)

// Recoverable reports whether the loop retries after this error.
func (c RecognitionErrorCode) Recoverable() bool {
	switch c {
	case RecognitionErrorNoMatch, RecognitionErrorRecognizerBusy, RecognitionErrorSpeechTimeout:
		return true
	default:
		return false
	}
}

// RecognitionEventKind identifies a recognizer callback.
type RecognitionEventKind string

const (
	RecognitionEventReady       RecognitionEventKind = "ready"
	RecognitionEventBeginning   RecognitionEventKind = "beginning_of_speech"
	RecognitionEventRms         RecognitionEventKind = "rms"
	RecognitionEventPartial     RecognitionEventKind = "partial"
	RecognitionEventEndOfSpeech RecognitionEventKind = "end_of_speech"
	RecognitionEventResults     RecognitionEventKind = "results"
	RecognitionEventError       RecognitionEventKind = "error"
)

// RecognitionEvent is one callback from an active recognition session.
type RecognitionEvent struct {
	Kind      RecognitionEventKind `json:"kind"`
	Utterance Utterance            `json:"utterance"`
	Partial   string               `json:"partial,omitempty"`
	RmsDB     float64              `json:"rmsDb,omitempty"`
	Error     RecognitionErrorCode `json:"error,omitempty"`
}

// Terminal reports whether the event ends its session.
func (e RecognitionEvent) Terminal() bool {
	return e.Kind == RecognitionEventResults || e.Kind == RecognitionEventError
}

// Utterance is the ranked candidate list of one finalized recognition.
type Utterance struct {
	Candidates []string `json:"candidates"`
}

// NewUtterance copies candidates so the utterance stays immutable.
func NewUtterance(candidates ...string) Utterance {
	return Utterance{Candidates: append([]string(nil), candidates...)}
}

// Best returns the highest ranked candidate or "".
func (u Utterance) Best() string {
	if len(u.Candidates) == 0 {
		return ""
	}
	return u.Candidates[0]
}

// ContainsAny reports whether any candidate exactly equals one of keywords.
func (u Utterance) ContainsAny(keywords []string) bool {
	for _, candidate := range u.Candidates {
		for _, keyword := range keywords {
			if candidate == keyword {
				return true
			}
		}
	}
	return false
}

// DefaultStopKeywords end the continuous-listening loop.
var DefaultStopKeywords = []string{"終わり", "おわり", "キャンセル"}

// Color is an opaque RGBA overlay color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

var (
	ColorGreen       = Color{R: 0x00, G: 0xff, B: 0x00, A: 0xff}
	ColorCyan        = Color{R: 0x00, G: 0xff, B: 0xff, A: 0xff}
	ColorBlack       = Color{R: 0x00, G: 0x00, B: 0x00, A: 0xff}
	ColorTransparent = Color{}
)

// Point is a position on the overlay surface in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BalloonRequest is one last-write-wins overlay draw.
type BalloonRequest struct {
	Position Point  `json:"position"`
	Color    Color  `json:"color"`
	Text     string `json:"text"`
}

// NormalizedRect is a face rectangle in the -1000..1000 sensor space.
type NormalizedRect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// FaceDetection is one detected face with a 0-100 confidence score.
type FaceDetection struct {
	Rect  NormalizedRect `json:"rect"`
	Score int            `json:"score"`
}

// Status summarizes the current loop status.
type Status struct {
	State          LoopState       `json:"state"`
	Reason         LoopStateReason `json:"reason"`
	Active         bool            `json:"active"`
	SessionID      string          `json:"sessionId,omitempty"`
	RestartPending bool            `json:"restartPending"`
	LastText       string          `json:"lastText,omitempty"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// FaceBatch is one frame of face detections from the face feed.
type FaceBatch struct {
	Faces []FaceDetection `json:"faces"`
}
