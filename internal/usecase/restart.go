package usecase

import (
	"time"

	"voiceballoon/internal/domain"
)

// scheduleRestart replaces any pending restart with one firing after delay.
func (l *RecognitionLoop) scheduleRestart(delay time.Duration) {
	l.cancelRestart()

	l.restartToken++
	token := l.restartToken
	timer := l.scheduler.AfterFunc(delay, func() {
		l.post(func() { l.fireRestart(token) })
	})
	l.restart = &pendingRestart{token: token, delay: delay, timer: timer}
}

func (l *RecognitionLoop) cancelRestart() {
	if l.restart == nil {
		return
	}
	l.restart.timer.Stop()
	l.restart = nil
}

// fireRestart ignores timers superseded after they were queued.
func (l *RecognitionLoop) fireRestart(token uint64) {
	if l.restart == nil || l.restart.token != token {
		return
	}
	l.restart = nil
	l.start(domain.LoopReasonListeningRestarted)
}
