package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/hstefan/energy-sensors/internal/infrastructure/mqtt"
)

func TestSubscriber(t *testing.T) {
	svc, store, _, _, _, _ := fullService()
	client := newMockSubscriber()
	topics := mqtt.Topics{Prefix: "energysensors"}

	sub := NewSubscriber(client, svc, topics, 1)
	if err := sub.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	// A second Start is a no-op.
	if err := sub.Start(context.Background()); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}

	handler, ok := client.handlers["energysensors/telegram/+"]
	if !ok {
		t.Fatalf("no handler on the telegram wildcard, have %v", client.handlers)
	}
	if client.qos != 1 {
		t.Errorf("subscribed with QoS %d, want 1", client.qos)
	}

	if err := handler("energysensors/telegram/kitchen", []byte(sampleTelegram)); err != nil {
		t.Fatalf("handler() error = %v", err)
	}
	if store.count() != 1 {
		t.Errorf("stored %d records, want 1", store.count())
	}

	if err := handler("energysensors/telegram/kitchen", []byte("Device:")); !errors.Is(err, ErrParse) {
		t.Errorf("handler(bad telegram) error = %v, want ErrParse", err)
	}
	if err := handler("energysensors/event/42", []byte(sampleTelegram)); err == nil {
		t.Error("handler() accepted a non-telegram topic")
	}

	if err := sub.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if len(client.unsubscribed) != 1 || len(client.handlers) != 0 {
		t.Errorf("Stop() left handlers %v", client.handlers)
	}
	if err := sub.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestSubscriber_StartError(t *testing.T) {
	client := newMockSubscriber()
	client.subscribeErr = mqtt.ErrNotConnected

	sub := NewSubscriber(client, NewService(&mockStore{}, testIngestConfig(), nil), mqtt.Topics{}, 0)
	if err := sub.Start(context.Background()); !errors.Is(err, mqtt.ErrNotConnected) {
		t.Errorf("Start() error = %v, want ErrNotConnected", err)
	}
	if err := sub.Stop(); err != nil {
		t.Errorf("Stop() after failed Start error = %v", err)
	}
}
