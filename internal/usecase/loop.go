package usecase

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"voiceballoon/internal/domain"
	"voiceballoon/internal/ports"
)

const (
	defaultEndOfSpeechDelay = 500 * time.Millisecond
	defaultRecoverableDelay = 1000 * time.Millisecond
	inboxSize               = 128
)

// Config controls continuous-recognition behavior.
type Config struct {
	Recognition      ports.RecognitionConfig
	StopKeywords     []string
	Translate        bool
	DiscardStale     bool
	BalloonColor     domain.Color
	EndOfSpeechDelay time.Duration
	RecoverableDelay time.Duration
	Placement        PlacementConfig
}

// RecognitionLoop keeps a speech recognition session alive and routes
// finalized utterances to translation and the overlay. All state is owned by
// the goroutine running Run; other goroutines post work onto its inbox.
type RecognitionLoop struct {
	recognizer ports.SpeechRecognizer
	translator ports.Translator
	overlay    ports.BalloonDrawer
	events     ports.EventSink
	scheduler  ports.Scheduler
	placer     *balloonPlacer
	logger     *slog.Logger
	cfg        Config

	ctx   context.Context
	inbox chan func()
	done  chan struct{}

	current      *activeSession
	restart      *pendingRestart
	restartToken uint64
	jobSeq       uint64
	drawnSeq     uint64

	statusMu sync.Mutex
	status   domain.Status
}

func NewRecognitionLoop(
	recognizer ports.SpeechRecognizer,
	translator ports.Translator,
	overlay ports.BalloonDrawer,
	faces ports.FaceSource,
	events ports.EventSink,
	scheduler ports.Scheduler,
	logger *slog.Logger,
	cfg Config,
) *RecognitionLoop {
	if len(cfg.StopKeywords) == 0 {
		cfg.StopKeywords = domain.DefaultStopKeywords
	}
	if cfg.EndOfSpeechDelay <= 0 {
		cfg.EndOfSpeechDelay = defaultEndOfSpeechDelay
	}
	if cfg.RecoverableDelay <= 0 {
		cfg.RecoverableDelay = defaultRecoverableDelay
	}
	if cfg.BalloonColor == (domain.Color{}) {
		cfg.BalloonColor = domain.ColorGreen
	}
	if scheduler == nil {
		scheduler = RealScheduler{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RecognitionLoop{
		recognizer: recognizer,
		translator: translator,
		overlay:    overlay,
		events:     events,
		scheduler:  scheduler,
		placer:     newBalloonPlacer(faces, cfg.Placement),
		logger:     logger,
		cfg:        cfg,
		ctx:        context.Background(),
		inbox:      make(chan func(), inboxSize),
		done:       make(chan struct{}),
		status: domain.Status{
			State:     domain.LoopStateIdle,
			Reason:    domain.LoopReasonInitial,
			UpdatedAt: time.Now(),
		},
	}
}

// Run processes loop work until ctx is cancelled.
func (l *RecognitionLoop) Run(ctx context.Context) error {
	l.ctx = ctx
	defer close(l.done)
	defer l.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.inbox:
			fn()
		}
	}
}

// Start begins a new listening session. Failures are logged, never returned.
func (l *RecognitionLoop) Start() {
	l.post(func() { l.start(domain.LoopReasonListeningStarted) })
}

// Stop ends the active session and any pending restart.
func (l *RecognitionLoop) Stop() {
	l.post(l.stop)
}

// Status returns the current loop status.
func (l *RecognitionLoop) Status() domain.Status {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()
	return l.status
}

func (l *RecognitionLoop) post(fn func()) {
	select {
	case l.inbox <- fn:
	case <-l.done:
	}
}

func (l *RecognitionLoop) start(reason domain.LoopStateReason) {
	l.cancelRestart()

	if previous := l.current; previous != nil {
		l.current = nil
		previous.release()
		reason = domain.LoopReasonListeningRestarted
	}

	sessionCtx, cancel := context.WithCancel(l.ctx)
	session, err := l.recognizer.StartListening(sessionCtx, l.cfg.Recognition)
	if err != nil {
		cancel()
		l.logger.Warn("speech service unavailable", "error", err)
		l.setState(domain.LoopStateIdle, domain.LoopReasonServiceUnavailable, "")
		return
	}

	active := &activeSession{
		id:        uuid.NewString(),
		session:   session,
		cancel:    cancel,
		startedAt: time.Now(),
	}
	l.current = active
	go l.forward(active)

	l.logger.Debug("listening", "session_id", active.id, "reason", reason)
	l.setState(domain.LoopStateListening, reason, active.id)
}

func (l *RecognitionLoop) stop() {
	l.cancelRestart()
	if active := l.current; active != nil {
		l.current = nil
		active.release()
	}
	l.setState(domain.LoopStateIdle, domain.LoopReasonManualStop, "")
}

func (l *RecognitionLoop) shutdown() {
	l.cancelRestart()
	if active := l.current; active != nil {
		l.current = nil
		active.release()
	}
}

func (l *RecognitionLoop) forward(active *activeSession) {
	for event := range active.session.Events() {
		event := event
		l.post(func() { l.handleEvent(active, event) })
	}
}

func (l *RecognitionLoop) handleEvent(active *activeSession, event domain.RecognitionEvent) {
	if l.current != active {
		return
	}

	switch event.Kind {
	case domain.RecognitionEventReady, domain.RecognitionEventBeginning:
		l.events.RecognitionStatus(event.Kind)
	case domain.RecognitionEventRms:
		l.events.SignalLevel(event.RmsDB)
	case domain.RecognitionEventPartial:
		if text := strings.TrimSpace(event.Partial); text != "" {
			l.events.PartialResult(text)
		}
	case domain.RecognitionEventEndOfSpeech:
		l.events.RecognitionStatus(event.Kind)
		l.scheduleRestart(l.cfg.EndOfSpeechDelay)
		l.touchStatus()
	case domain.RecognitionEventResults:
		l.finishSession(active)
		l.handleResults(event.Utterance)
	case domain.RecognitionEventError:
		l.finishSession(active)
		l.handleError(active, event.Error)
	}
}

func (l *RecognitionLoop) finishSession(active *activeSession) {
	l.current = nil
	active.release()
}

func (l *RecognitionLoop) handleResults(utterance domain.Utterance) {
	l.events.Results(utterance.Candidates)

	if utterance.ContainsAny(l.cfg.StopKeywords) {
		l.cancelRestart()
		l.logger.Info("stop keyword recognized", "candidates", len(utterance.Candidates))
		l.setState(domain.LoopStateStopped, domain.LoopReasonStopKeyword, "")
		return
	}

	best := utterance.Best()
	l.setLastText(best)
	l.setState(domain.LoopStateResult, domain.LoopReasonResult, "")
	if strings.TrimSpace(best) != "" {
		l.dispatch(best)
	}

	l.start(domain.LoopReasonListeningRestarted)
}

func (l *RecognitionLoop) handleError(active *activeSession, code domain.RecognitionErrorCode) {
	l.events.RecognitionError(code)

	if code.Recoverable() {
		l.logger.Debug("recognition error, retrying", "session_id", active.id, "code", code)
		l.scheduleRestart(l.cfg.RecoverableDelay)
		l.setState(domain.LoopStateErrorRecoverable, domain.LoopReasonRecoverableError, "")
		return
	}

	l.cancelRestart()
	l.logger.Warn("recognition error", "session_id", active.id, "code", code)
	l.setState(domain.LoopStateErrorTerminal, domain.LoopReasonTerminalError, "")
}

func (l *RecognitionLoop) setState(state domain.LoopState, reason domain.LoopStateReason, sessionID string) {
	l.statusMu.Lock()
	l.status.State = state
	l.status.Reason = reason
	l.status.SessionID = sessionID
	l.status.RestartPending = l.restart != nil
	l.status.Active = state == domain.LoopStateListening || l.restart != nil
	l.status.UpdatedAt = time.Now()
	l.statusMu.Unlock()

	l.events.LoopStateChanged(state, reason)
}

func (l *RecognitionLoop) touchStatus() {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()
	l.status.RestartPending = l.restart != nil
	l.status.Active = l.status.State == domain.LoopStateListening || l.restart != nil
	l.status.UpdatedAt = time.Now()
}

func (l *RecognitionLoop) setLastText(text string) {
	l.statusMu.Lock()
	defer l.statusMu.Unlock()
	l.status.LastText = text
}
