package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"voiceballoon/internal/domain"
	"voiceballoon/internal/ports"
)

type fakeRecognizer struct {
	mu       sync.Mutex
	sessions []*fakeSession
	started  []*fakeSession
	err      error
}

func (f *fakeRecognizer) StartListening(_ context.Context, _ ports.RecognitionConfig) (ports.RecognitionSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var session *fakeSession
	if len(f.started) < len(f.sessions) {
		session = f.sessions[len(f.started)]
	} else {
		session = newFakeSession()
	}
	f.started = append(f.started, session)
	return session, nil
}

func (f *fakeRecognizer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.started)
}

func (f *fakeRecognizer) session(i int) *fakeSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.started[i]
}

type fakeSession struct {
	events chan domain.RecognitionEvent

	mu          sync.Mutex
	cancelCalls int
	closed      bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{events: make(chan domain.RecognitionEvent, 16)}
}

func (f *fakeSession) Events() <-chan domain.RecognitionEvent { return f.events }

func (f *fakeSession) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	if !f.closed {
		close(f.events)
		f.closed = true
	}
	return nil
}

func (f *fakeSession) cancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelCalls > 0
}

type fakeTranslator struct {
	mu     sync.Mutex
	texts  []string
	result string
	err    error
}

func (f *fakeTranslator) Translate(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.err != nil {
		return "", f.err
	}
	return f.result, nil
}

func (f *fakeTranslator) snapshotTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.texts))
	copy(out, f.texts)
	return out
}

type fakeDrawer struct {
	mu       sync.Mutex
	requests []domain.BalloonRequest
}

func (f *fakeDrawer) DrawBalloon(left, top float64, color domain.Color, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, domain.BalloonRequest{
		Position: domain.Point{X: left, Y: top},
		Color:    color,
		Text:     text,
	})
}

func (f *fakeDrawer) snapshot() []domain.BalloonRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.BalloonRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

type fakeFaces struct {
	left, top, right, bottom float64
	ok                       bool
}

func (f fakeFaces) LatestFace() (float64, float64, float64, float64, bool) {
	return f.left, f.top, f.right, f.bottom, f.ok
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

func (f *fakeScheduler) AfterFunc(delay time.Duration, fn func()) ports.Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	timer := &fakeTimer{delay: delay, fn: fn}
	f.timers = append(f.timers, timer)
	return timer
}

func (f *fakeScheduler) snapshot() []*fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*fakeTimer, len(f.timers))
	copy(out, f.timers)
	return out
}

func (f *fakeScheduler) pending() int {
	count := 0
	for _, timer := range f.snapshot() {
		if !timer.stopped {
			count++
		}
	}
	return count
}

type fakeEventSink struct {
	mu sync.Mutex

	states   []stateEvent
	statuses []domain.RecognitionEventKind
	levels   []float64
	partials []string
	results  [][]string
	errors   []domain.RecognitionErrorCode
}

type stateEvent struct {
	state  domain.LoopState
	reason domain.LoopStateReason
}

func (f *fakeEventSink) LoopStateChanged(state domain.LoopState, reason domain.LoopStateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, stateEvent{state: state, reason: reason})
}

func (f *fakeEventSink) RecognitionStatus(kind domain.RecognitionEventKind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, kind)
}

func (f *fakeEventSink) SignalLevel(rmsDB float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels = append(f.levels, rmsDB)
}

func (f *fakeEventSink) PartialResult(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partials = append(f.partials, text)
}

func (f *fakeEventSink) Results(candidates []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, candidates)
}

func (f *fakeEventSink) RecognitionError(code domain.RecognitionErrorCode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, code)
}

func (f *fakeEventSink) snapshotStates() []stateEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]stateEvent, len(f.states))
	copy(out, f.states)
	return out
}

func (f *fakeEventSink) snapshotErrors() []domain.RecognitionErrorCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.RecognitionErrorCode, len(f.errors))
	copy(out, f.errors)
	return out
}

var errServiceDown = errors.New("speech service down")

// drain runs queued loop work on the calling goroutine.
func drain(l *RecognitionLoop) {
	for {
		select {
		case fn := <-l.inbox:
			fn()
		default:
			return
		}
	}
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
