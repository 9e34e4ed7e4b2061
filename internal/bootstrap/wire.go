package bootstrap

import (
	"log/slog"
	"net/http"
	"time"

	"voiceballoon/internal/audio"
	"voiceballoon/internal/config"
	"voiceballoon/internal/domain"
	"voiceballoon/internal/face"
	"voiceballoon/internal/httpapi"
	"voiceballoon/internal/overlay"
	"voiceballoon/internal/ports"
	"voiceballoon/internal/providers/deepgram"
	"voiceballoon/internal/providers/googletranslate"
	"voiceballoon/internal/providers/mqttface"
	"voiceballoon/internal/usecase"
)

const faceStaleAfter = 2 * time.Second

// Services is the assembled runtime graph.
type Services struct {
	Loop    *usecase.RecognitionLoop
	Faces   *face.Tracker
	Surface *overlay.Surface
	// Raster is set when no external canvas was supplied.
	Raster   *overlay.RasterCanvas
	FaceFeed *mqttface.Subscriber
	Router   http.Handler
	Config   config.Config
}

// Build wires all backend dependencies for the current runtime. A nil canvas
// selects the in-process raster canvas.
func Build(eventSink ports.EventSink, canvas ports.Canvas, logger *slog.Logger) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	var raster *overlay.RasterCanvas
	if canvas == nil {
		balloonFont, source, fontErr := overlay.ResolveFont(cfg.Overlay.FontFile, overlay.DefaultFontPaths)
		if fontErr != nil {
			logger.Warn("balloon font degraded", "font", source, "error", fontErr)
		}
		raster, err = overlay.NewRasterCanvas(cfg.Overlay.Width, cfg.Overlay.Height, balloonFont)
		if err != nil {
			return Services{}, err
		}
		canvas = raster
	}
	surface := overlay.NewSurface()
	surface.Created(canvas)

	tracker := face.NewTracker(face.Mapper{
		Width:    cfg.Overlay.Width,
		Height:   cfg.Overlay.Height,
		Mirror:   cfg.Overlay.FaceMirror,
		Rotation: cfg.Overlay.FaceRotation,
	}, faceStaleAfter)

	recognizer := deepgram.NewProvider(deepgram.Config{
		APIKey:      cfg.Deepgram.APIKey,
		APIBaseURL:  cfg.Deepgram.APIBaseURL,
		Model:       cfg.Deepgram.Model,
		Language:    cfg.Deepgram.Language,
		SmartFormat: cfg.Deepgram.SmartFormat,
		ChunkSize:   cfg.Audio.ChunkSize,
	}, audio.NewFFmpegCapture(cfg.Audio.RecorderCommand))

	var translator ports.Translator
	if cfg.Translate.Enabled {
		translator = googletranslate.NewClient(googletranslate.Config{
			Endpoint:    cfg.Translate.Endpoint,
			APIKey:      cfg.Translate.APIKey,
			Source:      cfg.Translate.Source,
			Target:      cfg.Translate.Target,
			EncodeQuery: cfg.Translate.EncodeQuery,
			Timeout:     cfg.Translate.Timeout,
		})
		if !cfg.Translate.EncodeQuery {
			logger.Warn("translation query is sent unescaped; set TRANSLATE_ENCODE_QUERY=true to escape it")
		}
	}

	loop := usecase.NewRecognitionLoop(
		recognizer,
		translator,
		overlay.NewRenderer(surface),
		tracker,
		eventSink,
		usecase.RealScheduler{},
		logger,
		usecase.Config{
			Recognition: ports.RecognitionConfig{
				Language:      cfg.Deepgram.Language,
				MaxResults:    cfg.Recognition.Alternatives,
				SpeechTimeout: cfg.Recognition.SpeechTimeout,
				Audio: ports.AudioConfig{
					SampleRate:  cfg.Audio.SampleRate,
					Channels:    cfg.Audio.Channels,
					InputFormat: cfg.Audio.InputFormat,
					InputDevice: cfg.Audio.InputDevice,
				},
			},
			StopKeywords: cfg.Recognition.StopKeywords,
			Translate:    cfg.Translate.Enabled,
			DiscardStale: cfg.Recognition.DiscardStale,
			BalloonColor: domain.ColorGreen,
		},
	)

	var feed *mqttface.Subscriber
	if cfg.MQTT.BrokerURL != "" {
		feed = mqttface.NewSubscriber(mqttface.Config{
			BrokerURL: cfg.MQTT.BrokerURL,
			ClientID:  cfg.MQTT.ClientID,
			Username:  cfg.MQTT.Username,
			Password:  cfg.MQTT.Password,
			Topic:     cfg.MQTT.FaceTopic,
		}, tracker, logger)
	}

	var snapshots httpapi.Overlay
	if raster != nil {
		snapshots = raster
	}

	return Services{
		Loop:     loop,
		Faces:    tracker,
		Surface:  surface,
		Raster:   raster,
		FaceFeed: feed,
		Router:   httpapi.NewRouter(loop, tracker, snapshots, logger),
		Config:   cfg,
	}, nil
}
