package usecase

import (
	"context"
	"time"

	"voiceballoon/internal/ports"
)

type activeSession struct {
	id        string
	session   ports.RecognitionSession
	cancel    context.CancelFunc
	startedAt time.Time
}

// release cancels the session without blocking the loop; provider teardown
// can wait on sockets and child processes.
func (s *activeSession) release() {
	s.cancel()
	go func() {
		_ = s.session.Cancel()
	}()
}

type pendingRestart struct {
	token uint64
	delay time.Duration
	timer ports.Timer
}

// RealScheduler schedules callbacks on the runtime timer heap.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(delay time.Duration, fn func()) ports.Timer {
	return time.AfterFunc(delay, fn)
}
