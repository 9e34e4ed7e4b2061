package mqttface

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"voiceballoon/internal/domain"
	"voiceballoon/internal/face"
)

const defaultConnectWait = 10 * time.Second

// ErrConnectPending is returned when the broker did not accept the first
// connection in time. The client keeps retrying in the background.
var ErrConnectPending = errors.New("mqtt broker not reachable yet")

type Config struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	Topic     string
	// ConnectWait bounds how long Start waits for the first connection.
	ConnectWait time.Duration
}

// FaceUpdater consumes face detection batches.
type FaceUpdater interface {
	Update(detections []domain.FaceDetection) int
}

// Subscriber feeds face detections published on an MQTT topic into the
// face tracker.
type Subscriber struct {
	cfg    Config
	faces  FaceUpdater
	logger *slog.Logger
}

func NewSubscriber(cfg Config, faces FaceUpdater, logger *slog.Logger) *Subscriber {
	if cfg.ClientID == "" {
		cfg.ClientID = "voiceballoon"
	}
	if cfg.Topic == "" {
		cfg.Topic = "voiceballoon/faces"
	}
	if cfg.ConnectWait <= 0 {
		cfg.ConnectWait = defaultConnectWait
	}
	return &Subscriber{cfg: cfg, faces: faces, logger: logger}
}

// Start connects, subscribes and disconnects once ctx is done. It returns
// after the first connection, after ConnectWait, or when ctx is done,
// whichever comes first; callers run it off the startup path.
func (s *Subscriber) Start(ctx context.Context) error {
	if s.cfg.BrokerURL == "" {
		return errors.New("mqtt broker url is not configured")
	}

	opts := paho.NewClientOptions().
		AddBroker(s.cfg.BrokerURL).
		SetClientID(s.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
		opts.SetPassword(s.cfg.Password)
	}

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.logger.Error("mqtt connection lost", "error", err)
	})
	// Subscriptions do not survive a reconnect with a clean session.
	opts.SetOnConnectHandler(func(client paho.Client) {
		s.logger.Info("face feed connected", "broker", s.cfg.BrokerURL, "topic", s.cfg.Topic)
		if token := client.Subscribe(s.cfg.Topic, 0, s.handleFaces); token.Wait() && token.Error() != nil {
			s.logger.Error("mqtt subscribe failed", "topic", s.cfg.Topic, "error", token.Error())
		}
	})

	client := paho.NewClient(opts)
	token := client.Connect()

	go func() {
		<-ctx.Done()
		client.Disconnect(100)
	}()

	timer := time.NewTimer(s.cfg.ConnectWait)
	defer timer.Stop()

	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("mqtt connect failed: %w", err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s", ErrConnectPending, s.cfg.BrokerURL)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Subscriber) handleFaces(_ paho.Client, msg paho.Message) {
	batch, err := face.ParseBatch(msg.Payload())
	if err != nil {
		s.logger.Warn("invalid face payload", "topic", msg.Topic(), "error", err)
		return
	}
	accepted := s.faces.Update(batch.Faces)
	s.logger.Debug("faces updated", "received", len(batch.Faces), "accepted", accepted)
}
