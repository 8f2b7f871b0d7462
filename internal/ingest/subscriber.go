package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"traffic-analytics-service/internal/model"
	"traffic-analytics-service/internal/service"
)

const (
	qosAtLeastOnce      = 1
	disconnectQuiesceMs = 250
	retryInterval       = 2 * time.Second
)

// Ingester is the part of the ingest service the subscriber feeds.
type Ingester interface {
	Ingest(ctx context.Context, result model.DetectionResult, source string) (*model.IngestResult, error)
}

// Subscriber consumes detection results published by the detector fleet
// and hands them to the ingest service.
type Subscriber struct {
	brokerURL string
	topic     string
	clientID  string
	ingester  Ingester
	log       zerolog.Logger
	client    mqtt.Client
}

// NewSubscriber keeps a persistent broker session under clientID, so it must
// be stable across restarts and unique per running instance.
func NewSubscriber(brokerURL, topic, clientID string, ingester Ingester, log zerolog.Logger) *Subscriber {
	return &Subscriber{
		brokerURL: brokerURL,
		topic:     topic,
		clientID:  clientID,
		ingester:  ingester,
		log:       log.With().Str("component", "mqtt").Str("topic", topic).Logger(),
	}
}

// Start connects to the broker and subscribes on every (re)connect.
// Messages are processed with ctx until Stop is called. Messages the broker
// queued for the session while the service was down arrive before the
// subscription is renewed and go through the default handler.
func (s *Subscriber) Start(ctx context.Context) error {
	s.client = mqtt.NewClient(s.clientOptions(ctx))
	token := s.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		s.log.Warn().Str("broker", s.brokerURL).Msg("mqtt broker not reachable yet, retrying in background")
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect mqtt %s: %w", s.brokerURL, err)
	}
	return nil
}

func (s *Subscriber) clientOptions(ctx context.Context) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.brokerURL)
	opts.SetClientID(s.clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(retryInterval)
	opts.SetCleanSession(false)
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
		s.HandlePayload(ctx, msg.Payload())
	})
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(s.topic, qosAtLeastOnce, func(_ mqtt.Client, msg mqtt.Message) {
			s.HandlePayload(ctx, msg.Payload())
		})
		token.Wait()
		if err := token.Error(); err != nil {
			s.log.Error().Err(err).Msg("mqtt subscribe failed")
			return
		}
		s.log.Info().Msg("subscribed to detection results")
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		s.log.Warn().Err(err).Msg("mqtt connection lost")
	}

	return opts
}

func (s *Subscriber) Stop() {
	if s.client != nil {
		s.client.Disconnect(disconnectQuiesceMs)
	}
}

// HandlePayload decodes one message and ingests it. Bad payloads are
// logged and dropped so they cannot block the topic.
func (s *Subscriber) HandlePayload(ctx context.Context, payload []byte) bool {
	var result model.DetectionResult
	if err := json.Unmarshal(payload, &result); err != nil {
		s.log.Warn().Err(err).Int("bytes", len(payload)).Msg("invalid detection payload")
		return false
	}

	ingested, err := s.ingester.Ingest(ctx, result, service.SourceMQTT)
	if err != nil {
		s.log.Error().Err(err).Str("video_id", result.VideoID.String()).Msg("failed to ingest detection result")
		return false
	}

	s.log.Debug().
		Str("video_id", result.VideoID.String()).
		Str("grouping", string(ingested.Grouping.Status)).
		Msg("detection result ingested")
	return true
}
