package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"voiceballoon/internal/domain"
	"voiceballoon/internal/face"
)

const maxFaceBody = 64 << 10

// Loop is the slice of the recognition loop the API drives.
type Loop interface {
	Start()
	Stop()
	Status() domain.Status
}

type FaceUpdater interface {
	Update(detections []domain.FaceDetection) int
}

// Overlay renders the last posted overlay frame.
type Overlay interface {
	EncodePNG(w io.Writer) error
}

// NewRouter builds the headless control API. overlay may be nil when the
// overlay is shown by a desktop window instead.
func NewRouter(loop Loop, faces FaceUpdater, overlay Overlay, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, loop.Status())
	})
	r.Post("/listen", func(w http.ResponseWriter, _ *http.Request) {
		loop.Start()
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
	})
	r.Post("/stop", func(w http.ResponseWriter, _ *http.Request) {
		loop.Stop()
		writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
	})
	r.Post("/faces", func(w http.ResponseWriter, req *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, req.Body, maxFaceBody))
		if err != nil {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "payload too large"})
			return
		}
		batch, err := face.ParseBatch(payload)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
			return
		}
		accepted := faces.Update(batch.Faces)
		writeJSON(w, http.StatusOK, map[string]any{"received": len(batch.Faces), "accepted": accepted})
	})
	r.Get("/overlay.png", func(w http.ResponseWriter, _ *http.Request) {
		if overlay == nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "overlay is not rendered by this process"})
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		if err := overlay.EncodePNG(w); err != nil {
			logger.Error("encode overlay failed", "error", err)
		}
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
