package ingest

import (
	"context"
	"fmt"
	"sync"

	"github.com/hstefan/energy-sensors/internal/infrastructure/mqtt"
)

// MessageSubscriber is the part of the MQTT client the Subscriber uses.
type MessageSubscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Subscriber ingests telegrams published on <prefix>/telegram/<device>.
type Subscriber struct {
	client  MessageSubscriber
	service *Service
	topics  mqtt.Topics
	qos     byte
	logger  Logger

	mu     sync.Mutex
	ctx    context.Context
	active bool
}

// NewSubscriber creates a subscriber feeding service.
func NewSubscriber(client MessageSubscriber, service *Service, topics mqtt.Topics, qos byte) *Subscriber {
	return &Subscriber{
		client:  client,
		service: service,
		topics:  topics,
		qos:     qos,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the subscriber.
func (s *Subscriber) SetLogger(logger Logger) {
	s.logger = logger
}

// Start subscribes to the telegram wildcard topic. ctx is used for every
// ingestion triggered by a message and should live as long as the
// subscription.
func (s *Subscriber) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return nil
	}
	s.ctx = ctx

	topic := s.topics.AllTelegrams()
	if err := s.client.Subscribe(topic, s.qos, s.handle); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	s.active = true
	s.logger.Info("subscribed to telegrams", "topic", topic)
	return nil
}

// Stop removes the subscription.
func (s *Subscriber) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil
	}
	s.active = false
	topic := s.topics.AllTelegrams()
	if err := s.client.Unsubscribe(topic); err != nil {
		return fmt.Errorf("unsubscribing from %s: %w", topic, err)
	}
	return nil
}

func (s *Subscriber) handle(topic string, payload []byte) error {
	device, ok := s.topics.DeviceFromTelegramTopic(topic)
	if !ok {
		return fmt.Errorf("unexpected telegram topic %q", topic)
	}

	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	rec, err := s.service.Ingest(ctx, SourceMQTT, string(payload))
	if err != nil {
		return fmt.Errorf("ingesting telegram from %s: %w", device, err)
	}

	s.logger.Debug("telegram ingested from broker",
		"topic_device", device,
		"event_id", rec.ID,
		"device_id", rec.DeviceID,
	)
	return nil
}
