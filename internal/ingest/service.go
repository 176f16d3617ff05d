package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hstefan/energy-sensors/internal/event"
	"github.com/hstefan/energy-sensors/internal/infrastructure/config"
	"github.com/hstefan/energy-sensors/internal/infrastructure/influxdb"
	"github.com/hstefan/energy-sensors/internal/infrastructure/metrics"
	"github.com/hstefan/energy-sensors/internal/infrastructure/mqtt"
	"github.com/hstefan/energy-sensors/internal/telegram"
)

// Source names where a telegram came from.
type Source string

// Ingestion sources.
const (
	SourceHTTP Source = metrics.SourceHTTP
	SourceJSON Source = metrics.SourceJSON
	SourceMQTT Source = metrics.SourceMQTT
)

// BroadcastChannel is the WebSocket channel stored events are sent on.
const BroadcastChannel = "event.stored"

// EventStore persists records.
type EventStore interface {
	Store(ctx context.Context, rec *event.Record) error
}

// PointWriter receives one time-series point per stored event.
type PointWriter interface {
	WritePowerSample(s influxdb.PowerSample)
}

// Publisher publishes stored events on the broker.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// Broadcaster pushes stored events to live-feed clients.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// BatchReporter is told about every stored event.
type BatchReporter interface {
	ReportEventReceived() bool
}

// Logger defines the logging interface used by the Service and Subscriber.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Service parses, stores and fans out telegrams.
//
// Only the EventStore is required; every fan-out target is optional and
// installed with its setter before the service is used.
type Service struct {
	store   EventStore
	cfg     config.IngestConfig
	metrics *metrics.Registry
	logger  Logger

	mu          sync.RWMutex
	points      PointWriter
	publisher   Publisher
	topics      mqtt.Topics
	broadcaster Broadcaster
	batch       BatchReporter
}

// NewService creates an ingestion service. reg may be nil.
func NewService(store EventStore, cfg config.IngestConfig, reg *metrics.Registry) *Service {
	return &Service{
		store:   store,
		cfg:     cfg,
		metrics: reg,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// SetPointWriter installs the time-series target.
func (s *Service) SetPointWriter(w PointWriter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = w
}

// SetPublisher installs the broker target. Events go to topics.Event.
// Ignored unless ingest.publish_events is set.
func (s *Service) SetPublisher(p Publisher, topics mqtt.Topics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
	s.topics = topics
}

// SetBroadcaster installs the live-feed target.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// SetBatchReporter installs the clustering trigger.
func (s *Service) SetBatchReporter(b BatchReporter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batch = b
}

// Parse parses a telegram without storing it.
func (s *Service) Parse(text string) (*telegram.Document, error) {
	doc, err := telegram.Parse(text)
	s.metrics.ObserveParse(err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return doc, nil
}

// BatchResult is the outcome for one line of ParseBatch input.
type BatchResult struct {
	// Line is 1-based.
	Line     int
	Document *telegram.Document
	Err      error
}

// ParseBatch parses every non-blank line of text concurrently. Results
// keep input order; blank lines are skipped but still counted.
//
// Returns ErrTooManyLines when the input has more non-blank lines than
// ingest.max_batch_lines, or the context error when ctx ends first.
func (s *Service) ParseBatch(ctx context.Context, text string) ([]BatchResult, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	type job struct {
		line int
		text string
	}
	var jobs []job
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			jobs = append(jobs, job{line: i + 1, text: l})
		}
	}
	if s.cfg.MaxBatchLines > 0 && len(jobs) > s.cfg.MaxBatchLines {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyLines, len(jobs), s.cfg.MaxBatchLines)
	}

	results := make([]BatchResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.BatchConcurrency, 1))
	for i, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := s.Parse(j.text)
			results[i] = BatchResult{Line: j.line, Document: doc, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Ingest parses, maps and stores a telegram, then fans the stored event
// out.
//
// Returns the stored record, or an error wrapping ErrParse, ErrMapping or
// ErrStorage.
func (s *Service) Ingest(ctx context.Context, source Source, text string) (*event.Record, error) {
	start := time.Now()

	doc, err := s.Parse(text)
	if err != nil {
		s.metrics.ObserveIngest(string(source), metrics.ResultParseError, time.Since(start))
		return nil, err
	}
	return s.ingest(ctx, source, doc, start)
}

// IngestDocument maps and stores an already parsed document.
func (s *Service) IngestDocument(ctx context.Context, source Source, doc *telegram.Document) (*event.Record, error) {
	return s.ingest(ctx, source, doc, time.Now())
}

func (s *Service) ingest(ctx context.Context, source Source, doc *telegram.Document, start time.Time) (*event.Record, error) {
	rec, err := event.FromDocument(doc)
	if err != nil {
		s.metrics.ObserveIngest(string(source), metrics.ResultMappingError, time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrMapping, err)
	}

	if err := s.store.Store(ctx, &rec); err != nil {
		s.metrics.ObserveIngest(string(source), metrics.ResultStorageError, time.Since(start))
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	s.metrics.ObserveIngest(string(source), metrics.ResultStored, time.Since(start))

	s.logger.Debug("event stored",
		"event_id", rec.ID,
		"device_id", rec.DeviceID,
		"source", string(source),
	)

	s.fanOut(&rec)
	return &rec, nil
}

func (s *Service) fanOut(rec *event.Record) {
	s.mu.RLock()
	points, publisher, topics := s.points, s.publisher, s.topics
	broadcaster, batch := s.broadcaster, s.batch
	s.mu.RUnlock()

	if points != nil {
		points.WritePowerSample(powerSample(rec))
	}

	if publisher != nil && s.cfg.PublishEvents {
		if err := publisher.PublishJSON(topics.Event(rec.DeviceID), rec, false); err != nil {
			level := s.logger.Warn
			if errors.Is(err, mqtt.ErrNotConnected) {
				level = s.logger.Debug
			}
			level("publishing event failed", "event_id", rec.ID, "error", err)
		}
	}

	if broadcaster != nil {
		broadcaster.Broadcast(BroadcastChannel, rec)
	}

	if batch != nil {
		batch.ReportEventReceived()
	}
}

func powerSample(rec *event.Record) influxdb.PowerSample {
	return influxdb.PowerSample{
		DeviceID:     rec.DeviceID,
		Firmware:     rec.DeviceFirmware,
		ReportedAt:   rec.ReportedAt,
		CoilReversed: rec.CoilReversed,
		ActiveW:      rec.PowerActiveW,
		ReactiveVAR:  rec.PowerReactiveVAR,
		ApparentVA:   rec.PowerApparentVA,
		CurrentA:     rec.LineCurrentA,
		VoltageV:     rec.LineVoltageV,
		PhaseRad:     rec.LinePhaseRad,
		FrequencyHz:  rec.LineFrequencyHz,
		WiFiDBM:      rec.WiFiStrengthDBM,
	}
}
