package ingest

import (
	"context"
	"sync"

	"github.com/hstefan/energy-sensors/internal/event"
	"github.com/hstefan/energy-sensors/internal/infrastructure/influxdb"
	"github.com/hstefan/energy-sensors/internal/infrastructure/mqtt"
)

const sampleTelegram = "Device: ID=42; Fw=3; Datetime: 2016-10-4 16:47:50; Alarms: CoilReversed=OFF; " +
	"Power: Active=1753W; Reactive=279var; Apparent=1775VA; " +
	"Line: Current=7.98; Voltage=230.08V; Phase=-0,04rad; " +
	"Peaks: 10.5459; 10.5; 10.553; FFT Re: 1083; 778.12; 12,5; FFT Img: 2131; 184.69; -3; " +
	"hz: 49.87; WiFi Strength: -62; Dummy: 20"

type mockStore struct {
	mu      sync.Mutex
	records []event.Record
	err     error
}

func (m *mockStore) Store(_ context.Context, rec *event.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	rec.ID = int64(len(m.records) + 1)
	m.records = append(m.records, *rec)
	return nil
}

func (m *mockStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

type mockPoints struct {
	samples []influxdb.PowerSample
}

func (m *mockPoints) WritePowerSample(s influxdb.PowerSample) {
	m.samples = append(m.samples, s)
}

type published struct {
	topic string
	value any
}

type mockPublisher struct {
	messages []published
	err      error
}

func (m *mockPublisher) PublishJSON(topic string, v any, _ bool) error {
	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, published{topic, v})
	return nil
}

type mockBroadcaster struct {
	channels []string
}

func (m *mockBroadcaster) Broadcast(channel string, _ any) {
	m.channels = append(m.channels, channel)
}

type mockBatch struct {
	reports int
}

func (m *mockBatch) ReportEventReceived() bool {
	m.reports++
	return false
}

type mockSubscriber struct {
	handlers     map[string]mqtt.MessageHandler
	qos          byte
	subscribeErr error
	unsubscribed []string
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *mockSubscriber) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.handlers[topic] = handler
	m.qos = qos
	return nil
}

func (m *mockSubscriber) Unsubscribe(topic string) error {
	delete(m.handlers, topic)
	m.unsubscribed = append(m.unsubscribed, topic)
	return nil
}
