// Command balloond runs the balloon overlay headless: the overlay is
// rendered in-process and served at /overlay.png, and listening is driven
// over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"voiceballoon/internal/bootstrap"
	"voiceballoon/internal/domain"
	"voiceballoon/internal/logging"
)

func main() {
	logger := logging.FromEnv()

	services, err := bootstrap.Build(logSink{logger: logger}, nil, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              services.Config.HTTP.Addr,
		Handler:           services.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return services.Loop.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("balloond started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	services.Loop.Start()

	if services.FaceFeed != nil {
		g.Go(func() error {
			if err := services.FaceFeed.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("face feed unavailable", "error", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("balloond stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("balloond stopped")
}

// logSink reports loop events to the log when no UI is attached.
type logSink struct {
	logger *slog.Logger
}

func (s logSink) LoopStateChanged(state domain.LoopState, reason domain.LoopStateReason) {
	s.logger.Info("loop state", "state", state, "reason", reason)
}

func (s logSink) RecognitionStatus(kind domain.RecognitionEventKind) {
	s.logger.Debug("recognition status", "kind", kind)
}

func (s logSink) SignalLevel(float64) {}

func (s logSink) PartialResult(text string) {
	s.logger.Debug("partial result", "text", text)
}

func (s logSink) Results(candidates []string) {
	s.logger.Info("recognized", "candidates", candidates)
}

func (s logSink) RecognitionError(code domain.RecognitionErrorCode) {
	s.logger.Warn("recognition error", "code", code)
}
