package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hstefan/energy-sensors/internal/event"
	"github.com/hstefan/energy-sensors/internal/infrastructure/config"
	"github.com/hstefan/energy-sensors/internal/infrastructure/metrics"
	"github.com/hstefan/energy-sensors/internal/infrastructure/mqtt"
	"github.com/hstefan/energy-sensors/internal/telegram"
)

func testIngestConfig() config.IngestConfig {
	return config.IngestConfig{
		MQTTSubscribe:    true,
		PublishEvents:    true,
		BatchConcurrency: 4,
		MaxBatchLines:    100,
	}
}

// fullService returns a service with every fan-out target mocked.
func fullService() (*Service, *mockStore, *mockPoints, *mockPublisher, *mockBroadcaster, *mockBatch) {
	store := &mockStore{}
	points := &mockPoints{}
	pub := &mockPublisher{}
	bc := &mockBroadcaster{}
	batch := &mockBatch{}

	svc := NewService(store, testIngestConfig(), metrics.New())
	svc.SetPointWriter(points)
	svc.SetPublisher(pub, mqtt.Topics{Prefix: "energysensors"})
	svc.SetBroadcaster(bc)
	svc.SetBatchReporter(batch)
	return svc, store, points, pub, bc, batch
}

func TestParse(t *testing.T) {
	svc := NewService(&mockStore{}, testIngestConfig(), nil)

	doc, err := svc.Parse("Foo: 1; 2")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if doc.Len() != 1 {
		t.Errorf("Parse() returned %d sections, want 1", doc.Len())
	}

	_, err = svc.Parse("Foo:")
	if !errors.Is(err, ErrParse) || !errors.Is(err, telegram.ErrEmptySection) {
		t.Errorf("Parse(empty section) error = %v, want ErrParse wrapping ErrEmptySection", err)
	}
}

func TestIngest(t *testing.T) {
	svc, store, points, pub, bc, batch := fullService()

	rec, err := svc.Ingest(context.Background(), SourceHTTP, sampleTelegram)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if rec.ID != 1 || rec.DeviceID != 42 {
		t.Errorf("Ingest() = id %d device %d, want 1 and 42", rec.ID, rec.DeviceID)
	}
	if store.count() != 1 {
		t.Errorf("stored %d records, want 1", store.count())
	}

	if len(points.samples) != 1 || points.samples[0].ActiveW != 1753 || points.samples[0].DeviceID != 42 {
		t.Errorf("power samples = %+v", points.samples)
	}
	if len(pub.messages) != 1 || pub.messages[0].topic != "energysensors/event/42" {
		t.Errorf("published = %+v", pub.messages)
	}
	if len(bc.channels) != 1 || bc.channels[0] != BroadcastChannel {
		t.Errorf("broadcasts = %v", bc.channels)
	}
	if batch.reports != 1 {
		t.Errorf("batch reports = %d, want 1", batch.reports)
	}
}

func TestIngest_Failures(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		storeErr error
		wantErr  error
		wantAs   func(error) bool
	}{
		{
			name:    "parse failure",
			text:    "Device:",
			wantErr: ErrParse,
			wantAs: func(err error) bool {
				var pe *telegram.ParseError
				return errors.As(err, &pe)
			},
		},
		{
			name:    "mapping failure",
			text:    "Device: ID=42",
			wantErr: ErrMapping,
			wantAs: func(err error) bool {
				var fe *event.FieldError
				return errors.As(err, &fe)
			},
		},
		{
			name:     "storage failure",
			text:     sampleTelegram,
			storeErr: errors.New("disk full"),
			wantErr:  ErrStorage,
			wantAs:   func(err error) bool { return strings.Contains(err.Error(), "disk full") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, points, pub, bc, batch := fullService()
			store.err = tt.storeErr

			rec, err := svc.Ingest(context.Background(), SourceMQTT, tt.text)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Ingest() error = %v, want %v", err, tt.wantErr)
			}
			if !tt.wantAs(err) {
				t.Errorf("Ingest() error %v does not carry the underlying cause", err)
			}
			if rec != nil {
				t.Error("Ingest() returned a record on failure")
			}
			if len(points.samples)+len(pub.messages)+len(bc.channels)+batch.reports != 0 {
				t.Error("failed ingestion must not fan out")
			}
		})
	}
}

func TestIngest_MinimalService(t *testing.T) {
	store := &mockStore{}
	svc := NewService(store, testIngestConfig(), nil)

	if _, err := svc.Ingest(context.Background(), SourceHTTP, sampleTelegram); err != nil {
		t.Fatalf("Ingest() without fan-out targets error = %v", err)
	}
	if store.count() != 1 {
		t.Errorf("stored %d records, want 1", store.count())
	}
}

func TestIngest_PublishDisabled(t *testing.T) {
	svc, _, _, pub, _, _ := fullService()
	svc.cfg.PublishEvents = false

	if _, err := svc.Ingest(context.Background(), SourceHTTP, sampleTelegram); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if len(pub.messages) != 0 {
		t.Errorf("published %d messages with publishing disabled", len(pub.messages))
	}
}

func TestIngest_PublishFailureIsNotFatal(t *testing.T) {
	svc, store, _, pub, bc, _ := fullService()
	pub.err = mqtt.ErrNotConnected

	if _, err := svc.Ingest(context.Background(), SourceHTTP, sampleTelegram); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if store.count() != 1 || len(bc.channels) != 1 {
		t.Error("publish failure should not stop storage or later fan-out")
	}
}

func TestIngestDocument(t *testing.T) {
	svc, store, _, _, _, _ := fullService()

	doc, err := telegram.Parse(sampleTelegram)
	if err != nil {
		t.Fatalf("telegram.Parse() error = %v", err)
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	decoded, err := telegram.DocumentFromJSON(data)
	if err != nil {
		t.Fatalf("DocumentFromJSON() error = %v", err)
	}

	rec, err := svc.IngestDocument(context.Background(), SourceJSON, decoded)
	if err != nil {
		t.Fatalf("IngestDocument() error = %v", err)
	}
	if rec.PowerActiveW != 1753 || rec.DeviceFirmware != 3 || rec.DummyData != 20 {
		t.Errorf("IngestDocument() = %+v", rec)
	}
	if store.count() != 1 {
		t.Errorf("stored %d records, want 1", store.count())
	}
}

func TestParseBatch(t *testing.T) {
	svc := NewService(&mockStore{}, testIngestConfig(), nil)

	input := "Foo: 1\r\n\nBar: x=1;\nBaz:\n"
	results, err := svc.ParseBatch(context.Background(), input)
	if err != nil {
		t.Fatalf("ParseBatch() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("ParseBatch() returned %d results, want 3", len(results))
	}

	wantLines := []int{1, 3, 4}
	for i, r := range results {
		if r.Line != wantLines[i] {
			t.Errorf("results[%d].Line = %d, want %d", i, r.Line, wantLines[i])
		}
	}
	if results[0].Err != nil || results[1].Err != nil {
		t.Errorf("valid lines failed: %v, %v", results[0].Err, results[1].Err)
	}
	if !errors.Is(results[2].Err, ErrParse) || results[2].Document != nil {
		t.Errorf("results[2] = %+v, want a parse error", results[2])
	}
}

func TestParseBatch_Limits(t *testing.T) {
	cfg := testIngestConfig()
	cfg.MaxBatchLines = 2
	svc := NewService(&mockStore{}, cfg, nil)

	if _, err := svc.ParseBatch(context.Background(), "A: 1\nB: 2\nC: 3"); !errors.Is(err, ErrTooManyLines) {
		t.Errorf("ParseBatch() error = %v, want ErrTooManyLines", err)
	}

	// Trailing newlines and blank lines do not count towards the limit.
	for _, input := range []string{"A: 1\nB: 2\n", "A: 1\r\n\n\nB: 2\r\n"} {
		results, err := svc.ParseBatch(context.Background(), input)
		if err != nil {
			t.Errorf("ParseBatch(%q) error = %v", input, err)
			continue
		}
		if len(results) != 2 {
			t.Errorf("ParseBatch(%q) returned %d results, want 2", input, len(results))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.ParseBatch(ctx, "A: 1"); !errors.Is(err, context.Canceled) {
		t.Errorf("ParseBatch(cancelled) error = %v, want context.Canceled", err)
	}
}
