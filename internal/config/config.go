package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"voiceballoon/internal/domain"
)

// Config stores runtime configuration for the balloon overlay.
type Config struct {
	Deepgram    DeepgramConfig
	Audio       AudioConfig
	Recognition RecognitionConfig
	Translate   TranslateConfig
	Overlay     OverlayConfig
	HTTP        HTTPConfig
	MQTT        MQTTConfig
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	ChunkSize       int
}

type RecognitionConfig struct {
	Alternatives  int
	SpeechTimeout time.Duration
	StopKeywords  []string
	DiscardStale  bool
}

type TranslateConfig struct {
	Enabled     bool
	Endpoint    string
	APIKey      string
	Source      string
	Target      string
	EncodeQuery bool
	Timeout     time.Duration
}

type OverlayConfig struct {
	Width        int
	Height       int
	FaceMirror   bool
	FaceRotation int
	// FontFile is a TrueType/OpenType font for the raster overlay.
	FontFile string
}

type HTTPConfig struct {
	Addr string
}

// MQTTConfig enables the face feed subscriber when BrokerURL is set.
type MQTTConfig struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	FaceTopic string
}

// Load resolves configuration from an optional .env file, environment
// variables and defaults. Variables already in the environment win over the
// file.
func Load() (Config, error) {
	if err := loadDotEnv(envOrDefault("VOICEBALLOON_ENV_FILE", ".env")); err != nil {
		return Config{}, err
	}

	translateKey := strings.TrimSpace(os.Getenv("TRANSLATE_API_KEY"))
	language := envOrDefault("DEEPGRAM_LANGUAGE", "ja")
	cfg := Config{
		Deepgram: DeepgramConfig{
			APIKey:     strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL: envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:      envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:   language,
			// Smart formatting appends "。" to Japanese transcripts, which
			// defeats exact stop keyword matching.
			SmartFormat: envOrDefaultBool("DEEPGRAM_SMART_FORMAT", !isJapanese(language)),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("VOICEBALLOON_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     strings.TrimSpace(os.Getenv("VOICEBALLOON_AUDIO_INPUT_FORMAT")),
			InputDevice:     strings.TrimSpace(os.Getenv("VOICEBALLOON_AUDIO_INPUT_DEVICE")),
			SampleRate:      envOrDefaultInt("VOICEBALLOON_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("VOICEBALLOON_CHANNELS", 1),
			ChunkSize:       envOrDefaultInt("VOICEBALLOON_AUDIO_CHUNK_SIZE", 4096),
		},
		Recognition: RecognitionConfig{
			Alternatives:  envOrDefaultInt("VOICEBALLOON_ALTERNATIVES", 5),
			SpeechTimeout: time.Duration(firstNonNegativeInt("VOICEBALLOON_SPEECH_TIMEOUT_MS", 8000)) * time.Millisecond,
			StopKeywords:  envList("VOICEBALLOON_STOP_KEYWORDS", domain.DefaultStopKeywords),
			DiscardStale:  envOrDefaultBool("VOICEBALLOON_DISCARD_STALE", false),
		},
		Translate: TranslateConfig{
			Enabled:     envOrDefaultBool("TRANSLATE_ENABLED", translateKey != ""),
			Endpoint:    envOrDefault("TRANSLATE_ENDPOINT", "https://www.googleapis.com/language/translate/v2"),
			APIKey:      translateKey,
			Source:      envOrDefault("TRANSLATE_SOURCE", "ja"),
			Target:      envOrDefault("TRANSLATE_TARGET", "en"),
			EncodeQuery: envOrDefaultBool("TRANSLATE_ENCODE_QUERY", false),
			Timeout:     time.Duration(firstNonNegativeInt("TRANSLATE_TIMEOUT_MS", 10000)) * time.Millisecond,
		},
		Overlay: OverlayConfig{
			Width:        envOrDefaultInt("VOICEBALLOON_OVERLAY_WIDTH", 1080),
			Height:       envOrDefaultInt("VOICEBALLOON_OVERLAY_HEIGHT", 1920),
			FaceMirror:   envOrDefaultBool("VOICEBALLOON_FACE_MIRROR", true),
			FaceRotation: envOrDefaultInt("VOICEBALLOON_FACE_ROTATION", 90),
			FontFile:     strings.TrimSpace(os.Getenv("VOICEBALLOON_FONT_FILE")),
		},
		HTTP: HTTPConfig{
			Addr: envOrDefault("VOICEBALLOON_HTTP_ADDR", ":8080"),
		},
		MQTT: MQTTConfig{
			BrokerURL: strings.TrimSpace(os.Getenv("MQTT_BROKER_URL")),
			ClientID:  envOrDefault("MQTT_CLIENT_ID", "voiceballoon"),
			Username:  strings.TrimSpace(os.Getenv("MQTT_USERNAME")),
			Password:  os.Getenv("MQTT_PASSWORD"),
			FaceTopic: envOrDefault("MQTT_FACE_TOPIC", "voiceballoon/faces"),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.ChunkSize < 256 {
		cfg.Audio.ChunkSize = 4096
	}
	if cfg.Recognition.Alternatives <= 0 {
		cfg.Recognition.Alternatives = 5
	}
	if cfg.Recognition.SpeechTimeout <= 0 {
		cfg.Recognition.SpeechTimeout = 8 * time.Second
	}
	if cfg.Translate.Timeout <= 0 {
		cfg.Translate.Timeout = 10 * time.Second
	}
	if cfg.Overlay.Width <= 0 {
		cfg.Overlay.Width = 1080
	}
	if cfg.Overlay.Height <= 0 {
		cfg.Overlay.Height = 1920
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func envList(key string, fallback []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func firstNonNegativeInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func isJapanese(language string) bool {
	base, _, _ := strings.Cut(strings.ToLower(language), "-")
	return base == "ja"
}
