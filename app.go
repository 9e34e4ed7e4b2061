package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"voiceballoon/internal/bootstrap"
	"voiceballoon/internal/config"
	"voiceballoon/internal/domain"
	"voiceballoon/internal/face"
	"voiceballoon/internal/overlay"
	"voiceballoon/internal/providers/mqttface"
	"voiceballoon/internal/usecase"
)

const (
	eventState   = "voiceballoon:state"
	eventStatus  = "voiceballoon:status"
	eventLevel   = "voiceballoon:level"
	eventPartial = "voiceballoon:partial"
	eventResults = "voiceballoon:results"
	eventError   = "voiceballoon:error"
	eventOverlay = "voiceballoon:overlay"
)

// App is the Wails application root.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
	emit   emitFunc

	canvas  *webCanvas
	loop    *usecase.RecognitionLoop
	faces   *face.Tracker
	surface *overlay.Surface
	feed    *mqttface.Subscriber
	cfg     config.Config
	bootErr error
}

func NewApp(logger *slog.Logger) *App {
	return &App{
		logger: logger,
		emit:   runtime.EventsEmit,
		canvas: newWebCanvas(1080, 1920, runtime.EventsEmit),
	}
}

func (a *App) startup(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.canvas.attach(ctx)

	services, err := bootstrap.Build(a, a.canvas, a.logger)
	if err != nil {
		a.bootErr = err
		a.logger.Error("startup failed", "error", err)
		a.emitEvent(eventError, map[string]string{"code": "startup", "message": "Startup failed", "detail": err.Error()})
		return
	}

	a.cfg = services.Config
	a.loop = services.Loop
	a.faces = services.Faces
	a.surface = services.Surface
	a.feed = services.FaceFeed
	a.SurfaceChanged(a.cfg.Overlay.Width, a.cfg.Overlay.Height)

	go func() {
		_ = a.loop.Run(a.ctx)
	}()
	a.loop.Start()

	if a.feed != nil {
		go func() {
			if err := a.feed.Start(a.ctx); err != nil {
				a.logger.Warn("face feed unavailable", "error", err)
			}
		}()
	}
}

func (a *App) shutdown(_ context.Context) {
	if a.surface != nil {
		a.surface.Destroyed()
	}
	if a.cancel != nil {
		a.cancel()
	}
}

// StartListening starts (or restarts) continuous recognition.
func (a *App) StartListening() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	a.loop.Start()
	return a.loop.Status(), nil
}

// StopListening ends recognition and any pending restart.
func (a *App) StopListening() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.loop.Stop()
	return nil
}

// GetStatus returns the current loop status.
func (a *App) GetStatus() domain.Status {
	if a.loop == nil {
		status := domain.Status{State: domain.LoopStateIdle, Reason: domain.LoopReasonInitial}
		if a.bootErr != nil {
			status.Reason = domain.LoopReasonServiceUnavailable
		}
		return status
	}
	return a.loop.Status()
}

// UpdateFaces feeds detections from the webview camera and returns how many
// passed the confidence threshold.
func (a *App) UpdateFaces(batch domain.FaceBatch) int {
	if a.faces == nil {
		return 0
	}
	return a.faces.Update(batch.Faces)
}

// SurfaceChanged is called by the frontend when the overlay canvas resizes.
func (a *App) SurfaceChanged(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if a.surface != nil {
		a.surface.Changed(width, height)
	}
	if a.faces != nil {
		a.faces.SetSurface(width, height)
	}
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}

	return map[string]string{
		"provider":    "Deepgram",
		"model":       a.cfg.Deepgram.Model,
		"language":    a.cfg.Deepgram.Language,
		"translation": fmt.Sprintf("%s→%s (enabled=%t)", a.cfg.Translate.Source, a.cfg.Translate.Target, a.cfg.Translate.Enabled),
		"audioInput":  a.cfg.Audio.InputDevice,
		"faceTopic":   a.cfg.MQTT.FaceTopic,
	}
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.loop == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// LoopStateChanged emits loop lifecycle updates to the frontend.
func (a *App) LoopStateChanged(state domain.LoopState, reason domain.LoopStateReason) {
	a.emitEvent(eventState, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": stateReasonMessage(reason),
	})
}

func (a *App) RecognitionStatus(kind domain.RecognitionEventKind) {
	a.emitEvent(eventStatus, map[string]string{
		"kind":    string(kind),
		"message": statusMessage(kind),
	})
}

func (a *App) SignalLevel(rmsDB float64) {
	a.emitEvent(eventLevel, map[string]any{
		"db":      rmsDB,
		"message": levelMessage(rmsDB),
	})
}

func (a *App) PartialResult(text string) {
	a.emitEvent(eventPartial, map[string]string{"text": text})
}

func (a *App) Results(candidates []string) {
	a.emitEvent(eventResults, map[string]any{"candidates": candidates})
}

func (a *App) RecognitionError(code domain.RecognitionErrorCode) {
	a.emitEvent(eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code),
	})
}

func (a *App) emitEvent(name string, payload any) {
	if a.ctx == nil || a.emit == nil {
		return
	}
	a.emit(a.ctx, name, payload)
}

func stateReasonMessage(reason domain.LoopStateReason) string {
	switch reason {
	case domain.LoopReasonInitial:
		return "Idle"
	case domain.LoopReasonListeningStarted:
		return "Listening"
	case domain.LoopReasonListeningRestarted:
		return "Listening again"
	case domain.LoopReasonServiceUnavailable:
		return "Speech service unavailable"
	case domain.LoopReasonResult:
		return "Heard you"
	case domain.LoopReasonStopKeyword:
		return "Stopped by keyword"
	case domain.LoopReasonEndOfSpeech:
		return "End of speech"
	case domain.LoopReasonRecoverableError:
		return "Retrying shortly"
	case domain.LoopReasonTerminalError:
		return "Recognition failed; press start to retry"
	case domain.LoopReasonManualStop:
		return "Stopped"
	default:
		return ""
	}
}

func statusMessage(kind domain.RecognitionEventKind) string {
	switch kind {
	case domain.RecognitionEventReady:
		return "Ready for speech"
	case domain.RecognitionEventBeginning:
		return "Beginning of speech"
	case domain.RecognitionEventEndOfSpeech:
		return "End of speech"
	default:
		return ""
	}
}

func levelMessage(rmsDB float64) string {
	return fmt.Sprintf("receive : % 2.2f[dB]", rmsDB)
}

func errorMessage(code domain.RecognitionErrorCode) string {
	switch code {
	case domain.RecognitionErrorAudio:
		return "Audio recording error"
	case domain.RecognitionErrorClient:
		return "Client side error"
	case domain.RecognitionErrorInsufficientPermissions:
		return "Insufficient permissions"
	case domain.RecognitionErrorNetwork:
		return "Network error"
	case domain.RecognitionErrorNetworkTimeout:
		return "Network timeout"
	case domain.RecognitionErrorNoMatch:
		return "No recognition result matched"
	case domain.RecognitionErrorRecognizerBusy:
		return "Recognition service busy"
	case domain.RecognitionErrorServer:
		return "Server error"
	case domain.RecognitionErrorSpeechTimeout:
		return "No speech input"
	default:
		return "Unknown error"
	}
}
