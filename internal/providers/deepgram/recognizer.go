package deepgram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"voiceballoon/internal/domain"
	"voiceballoon/internal/ports"
)

const (
	defaultAPIBaseURL     = "https://api.deepgram.com/v1"
	defaultModel          = "nova-2"
	defaultUtteranceEndMS = 1000
	defaultDialTimeout    = 10 * time.Second
	defaultSpeechTimeout  = 8 * time.Second
	defaultChunkSize      = 4096
)

// ErrMissingAPIKey is returned by StartListening when no key is configured.
var ErrMissingAPIKey = errors.New("DEEPGRAM_API_KEY is not configured")

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey         string
	APIBaseURL     string
	Model          string
	Language       string
	SmartFormat    bool
	UtteranceEndMS int
	DialTimeout    time.Duration
	ChunkSize      int
}

// Provider implements ports.SpeechRecognizer on the Deepgram live API.
type Provider struct {
	cfg     Config
	capture ports.AudioCapture
	dialer  *websocket.Dialer
}

func NewProvider(cfg Config, capture ports.AudioCapture) *Provider {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = defaultAPIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.UtteranceEndMS <= 0 {
		cfg.UtteranceEndMS = defaultUtteranceEndMS
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = defaultChunkSize
	}
	return &Provider{cfg: cfg, capture: capture, dialer: websocket.DefaultDialer}
}

// StartListening returns immediately; the websocket is dialed on the
// session goroutine and failures arrive as error events.
func (p *Provider) StartListening(ctx context.Context, cfg ports.RecognitionConfig) (ports.RecognitionSession, error) {
	if strings.TrimSpace(p.cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if p.capture == nil {
		return nil, errors.New("audio capture is not configured")
	}

	wsURL, err := buildListenURL(p.cfg, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.SpeechTimeout <= 0 {
		cfg.SpeechTimeout = defaultSpeechTimeout
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.cfg.APIKey)

	sessionCtx, cancel := context.WithCancel(ctx)
	s := &listeningSession{
		ctx:     sessionCtx,
		cancel:  cancel,
		events:  make(chan domain.RecognitionEvent, 64),
		done:    make(chan struct{}),
		maxAlts: max(cfg.MaxResults, 1),
		buffer:  utteranceBuffer{sep: segmentSeparator(firstNonEmpty(cfg.Language, p.cfg.Language))},
	}
	go s.run(p, wsURL, headers, cfg)
	return s, nil
}

type listeningSession struct {
	ctx    context.Context
	cancel context.CancelFunc

	events chan domain.RecognitionEvent
	done   chan struct{}
	wg     sync.WaitGroup

	maxAlts  int
	buffer   utteranceBuffer
	speaking atomic.Bool
	timedOut atomic.Bool

	termMu     sync.Mutex
	terminated bool
}

func (s *listeningSession) Events() <-chan domain.RecognitionEvent {
	return s.events
}

func (s *listeningSession) Cancel() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *listeningSession) run(p *Provider, wsURL string, headers http.Header, cfg ports.RecognitionConfig) {
	defer s.finish()

	dialCtx, cancelDial := context.WithTimeout(s.ctx, p.cfg.DialTimeout)
	conn, resp, err := p.dialer.DialContext(dialCtx, wsURL, headers)
	cancelDial()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if s.ctx.Err() == nil {
			s.fail(classifyDialError(err, resp))
		}
		return
	}
	defer conn.Close()

	audio, err := p.capture.Start(s.ctx, cfg.Audio)
	if err != nil {
		if s.ctx.Err() == nil {
			s.fail(domain.RecognitionErrorAudio)
		}
		return
	}
	defer func() { _ = audio.Stop() }()

	stopWatch := context.AfterFunc(s.ctx, func() { _ = conn.Close() })
	defer stopWatch()

	s.emit(domain.RecognitionEvent{Kind: domain.RecognitionEventReady})

	timer := time.AfterFunc(cfg.SpeechTimeout, func() {
		if !s.speaking.Load() {
			s.timedOut.Store(true)
			_ = conn.Close()
		}
	})
	defer timer.Stop()

	s.wg.Add(1)
	go s.pump(audio, conn, p.cfg.ChunkSize)

	s.readLoop(conn)
	s.cancel()
}

func (s *listeningSession) finish() {
	s.cancel()
	s.wg.Wait()
	close(s.events)
	close(s.done)
}

func (s *listeningSession) readLoop(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			s.handleReadError(err)
			return
		}

		response, err := parseResponse(payload)
		if err != nil {
			continue
		}
		if s.handleResponse(response) {
			return
		}
	}
}

func (s *listeningSession) handleReadError(err error) {
	switch {
	case s.timedOut.Load():
		s.fail(domain.RecognitionErrorSpeechTimeout)
	case s.ctx.Err() != nil:
	case isNormalClose(err):
		s.flush()
	default:
		s.fail(classifyReadError(err))
	}
}

// handleResponse reports whether the session reached a terminal event.
func (s *listeningSession) handleResponse(response deepgramResponse) bool {
	switch {
	case strings.EqualFold(response.Type, "Error"):
		s.fail(domain.RecognitionErrorServer)
		return true
	case strings.EqualFold(response.Type, "SpeechStarted"):
		if !s.speaking.Swap(true) {
			s.emit(domain.RecognitionEvent{Kind: domain.RecognitionEventBeginning})
		}
		return false
	case strings.EqualFold(response.Type, "UtteranceEnd"):
		s.flush()
		return true
	}

	alternatives := response.transcripts()
	if len(alternatives) == 0 {
		return false
	}
	if !s.speaking.Swap(true) {
		s.emit(domain.RecognitionEvent{Kind: domain.RecognitionEventBeginning})
	}

	if !response.IsFinal && !response.SpeechFinal {
		s.emit(domain.RecognitionEvent{Kind: domain.RecognitionEventPartial, Partial: s.buffer.preview(alternatives[0])})
		return false
	}

	s.buffer.add(alternatives)
	if response.SpeechFinal {
		s.flush()
		return true
	}
	s.emit(domain.RecognitionEvent{Kind: domain.RecognitionEventPartial, Partial: s.buffer.preview("")})
	return false
}

// flush delivers the buffered utterance, or no_match when nothing was heard.
func (s *listeningSession) flush() {
	candidates := s.buffer.candidates(s.maxAlts)
	if len(candidates) == 0 {
		s.fail(domain.RecognitionErrorNoMatch)
		return
	}
	s.terminate(
		domain.RecognitionEvent{Kind: domain.RecognitionEventEndOfSpeech},
		domain.RecognitionEvent{Kind: domain.RecognitionEventResults, Utterance: domain.NewUtterance(candidates...)},
	)
}

func (s *listeningSession) fail(code domain.RecognitionErrorCode) {
	s.terminate(domain.RecognitionEvent{Kind: domain.RecognitionEventError, Error: code})
}

// terminate emits the session's final events once.
func (s *listeningSession) terminate(events ...domain.RecognitionEvent) {
	s.termMu.Lock()
	if s.terminated {
		s.termMu.Unlock()
		return
	}
	s.terminated = true
	s.termMu.Unlock()

	for _, event := range events {
		s.emit(event)
	}
}

// emit drops non-terminal events when the consumer falls behind.
func (s *listeningSession) emit(event domain.RecognitionEvent) {
	if event.Terminal() || event.Kind == domain.RecognitionEventEndOfSpeech {
		select {
		case s.events <- event:
		case <-s.ctx.Done():
		}
		return
	}
	select {
	case s.events <- event:
	case <-s.ctx.Done():
	default:
	}
}

func (s *listeningSession) pump(audio ports.AudioSession, conn *websocket.Conn, chunkSize int) {
	defer s.wg.Done()

	buf := make([]byte, chunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			s.emit(domain.RecognitionEvent{Kind: domain.RecognitionEventRms, RmsDB: rmsDBFS(buf[:n])})
			if writeErr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); writeErr != nil {
				return
			}
		}
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			if isEOF(err) {
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
				return
			}
			s.fail(domain.RecognitionErrorAudio)
			s.cancel()
			return
		}
	}
}

func buildListenURL(providerCfg Config, recognitionCfg ports.RecognitionConfig) (string, error) {
	base := strings.TrimSpace(providerCfg.APIBaseURL)
	if base == "" {
		base = defaultAPIBaseURL
	}

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	audio := recognitionCfg.Audio
	if audio.SampleRate <= 0 {
		audio.SampleRate = 16000
	}
	if audio.Channels <= 0 {
		audio.Channels = 1
	}
	language := firstNonEmpty(recognitionCfg.Language, providerCfg.Language)
	utteranceEnd := providerCfg.UtteranceEndMS
	if utteranceEnd <= 0 {
		utteranceEnd = defaultUtteranceEndMS
	}

	query := listenURL.Query()
	query.Set("model", firstNonEmpty(providerCfg.Model, defaultModel))
	query.Set("encoding", "linear16")
	query.Set("sample_rate", strconv.Itoa(audio.SampleRate))
	query.Set("channels", strconv.Itoa(audio.Channels))
	query.Set("interim_results", "true")
	query.Set("vad_events", "true")
	query.Set("utterance_end_ms", strconv.Itoa(utteranceEnd))
	query.Set("alternatives", strconv.Itoa(max(recognitionCfg.MaxResults, 1)))
	query.Set("smart_format", strconv.FormatBool(providerCfg.SmartFormat))
	if language != "" {
		query.Set("language", language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
