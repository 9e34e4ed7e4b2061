package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"voiceballoon/internal/domain"
	"voiceballoon/internal/overlay"
)

type fakeLoop struct {
	mu     sync.Mutex
	starts int
	stops  int
	status domain.Status
}

func (f *fakeLoop) Start() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
}

func (f *fakeLoop) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeLoop) Status() domain.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

type fakeFaces struct {
	mu      sync.Mutex
	updates [][]domain.FaceDetection
}

func (f *fakeFaces) Update(detections []domain.FaceDetection) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, detections)
	accepted := 0
	for _, d := range detections {
		if d.Score >= 30 {
			accepted++
		}
	}
	return accepted
}

type failingOverlay struct{}

func (failingOverlay) EncodePNG(io.Writer) error { return errors.New("no frame") }

func newTestRouter(loop *fakeLoop, faces *fakeFaces, ov Overlay) http.Handler {
	return NewRouter(loop, faces, ov, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestRouter(&fakeLoop{}, &fakeFaces{}, nil), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("unexpected response: %d %s", rec.Code, rec.Body.String())
	}
}

func TestStatusReturnsLoopStatus(t *testing.T) {
	t.Parallel()

	loop := &fakeLoop{status: domain.Status{State: domain.LoopStateListening, Reason: domain.LoopReasonListeningStarted, Active: true}}
	rec := do(t, newTestRouter(loop, &fakeFaces{}, nil), http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status code: %d", rec.Code)
	}

	var got domain.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.State != domain.LoopStateListening || !got.Active {
		t.Fatalf("unexpected status: %+v", got)
	}
}

func TestListenAndStopDriveLoop(t *testing.T) {
	t.Parallel()

	loop := &fakeLoop{}
	h := newTestRouter(loop, &fakeFaces{}, nil)

	if rec := do(t, h, http.MethodPost, "/listen", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected listen code: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/stop", ""); rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected stop code: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/listen", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected GET /listen to be rejected, got %d", rec.Code)
	}

	loop.mu.Lock()
	defer loop.mu.Unlock()
	if loop.starts != 1 || loop.stops != 1 {
		t.Fatalf("unexpected calls: starts=%d stops=%d", loop.starts, loop.stops)
	}
}

func TestFacesUpdatesTracker(t *testing.T) {
	t.Parallel()

	faces := &fakeFaces{}
	h := newTestRouter(&fakeLoop{}, faces, nil)

	body := `{"faces":[{"rect":{"left":-200,"top":-500,"right":200,"bottom":500},"score":80},{"score":5}]}`
	rec := do(t, h, http.MethodPost, "/faces", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected code: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"accepted":1`) || !strings.Contains(rec.Body.String(), `"received":2`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if len(faces.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(faces.updates))
	}
}

func TestFacesRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	faces := &fakeFaces{}
	rec := do(t, newTestRouter(&fakeLoop{}, faces, nil), http.MethodPost, "/faces", "{")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", rec.Code)
	}
	if len(faces.updates) != 0 {
		t.Fatalf("expected no update")
	}
}

func TestFacesRejectsOversizedBody(t *testing.T) {
	t.Parallel()

	body := `{"faces":[` + strings.Repeat(" ", maxFaceBody) + `]}`
	rec := do(t, newTestRouter(&fakeLoop{}, &fakeFaces{}, nil), http.MethodPost, "/faces", body)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected payload too large, got %d", rec.Code)
	}
}

func TestOverlayPNG(t *testing.T) {
	t.Parallel()

	canvas, err := overlay.NewRasterCanvas(64, 32, nil)
	if err != nil {
		t.Fatalf("canvas failed: %v", err)
	}
	rec := do(t, newTestRouter(&fakeLoop{}, &fakeFaces{}, canvas), http.MethodGet, "/overlay.png", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected response: %d %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Fatalf("unexpected bounds: %v", b)
	}
}

func TestOverlayPNGWithoutRaster(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestRouter(&fakeLoop{}, &fakeFaces{}, nil), http.MethodGet, "/overlay.png", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected not found, got %d", rec.Code)
	}
}

func TestOverlayPNGEncodeFailureIsLogged(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestRouter(&fakeLoop{}, &fakeFaces{}, failingOverlay{}), http.MethodGet, "/overlay.png", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected headers already sent, got %d", rec.Code)
	}
}
