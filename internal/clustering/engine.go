package clustering

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hstefan/energy-sensors/internal/event"
	"github.com/hstefan/energy-sensors/internal/infrastructure/config"
	"github.com/hstefan/energy-sensors/internal/infrastructure/metrics"
)

// minBandwidth replaces a zero bandwidth estimate, which happens when all
// sampled points coincide.
const minBandwidth = 1e-6

// Logger defines the logging interface used by the Engine and BatchWorker.
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

// EventSource supplies the events to cluster.
type EventSource interface {
	All(ctx context.Context) ([]event.Record, error)
}

// Engine runs complete clustering computations. Runs are serialised.
type Engine struct {
	events  EventSource
	repo    Repository
	cfg     config.ClusteringConfig
	metrics *metrics.Registry
	logger  Logger
	now     func() time.Time

	runMu sync.Mutex

	cbMu  sync.RWMutex
	onRun func(*Summary)
}

// NewEngine creates an engine reading from events and writing to repo.
// reg may be nil.
func NewEngine(events EventSource, repo Repository, cfg config.ClusteringConfig, reg *metrics.Registry) *Engine {
	return &Engine{
		events:  events,
		repo:    repo,
		cfg:     cfg,
		metrics: reg,
		logger:  noopLogger{},
		now:     time.Now,
	}
}

// SetLogger sets the logger for the engine.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// SetOnRun installs a callback invoked after every successful run.
func (e *Engine) SetOnRun(callback func(*Summary)) {
	e.cbMu.Lock()
	defer e.cbMu.Unlock()
	e.onRun = callback
}

// Compute loads all events, clusters them and replaces the stored
// results.
//
// Returns:
//   - *Summary: the new run and its clusters
//   - error: ErrNoData when no events are stored, or the failing step
func (e *Engine) Compute(ctx context.Context) (*Summary, error) {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	started := e.now()
	summary, err := e.compute(ctx, started)
	elapsed := e.now().Sub(started)

	if err != nil {
		e.metrics.ObserveClusterRun(err, elapsed, 0, 0)
		return nil, err
	}
	e.metrics.ObserveClusterRun(nil, elapsed, summary.Run.ClusterCount, summary.Run.OrphanCount)

	e.logger.Info("clustering run finished",
		"run_id", summary.Run.ID,
		"events", summary.Run.EventCount,
		"clusters", summary.Run.ClusterCount,
		"orphans", summary.Run.OrphanCount,
		"bandwidth", summary.Run.Bandwidth,
		"duration", elapsed,
	)

	e.cbMu.RLock()
	callback := e.onRun
	e.cbMu.RUnlock()
	if callback != nil {
		callback(summary)
	}
	return summary, nil
}

func (e *Engine) compute(ctx context.Context, started time.Time) (*Summary, error) {
	records, err := e.events.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading events: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}

	data := make([][]float64, len(records))
	for i, rec := range records {
		data[i] = Features(rec)
	}

	bandwidth, err := EstimateBandwidth(data, e.cfg.Quantile, e.cfg.Samples)
	if err != nil {
		return nil, fmt.Errorf("estimating bandwidth: %w", err)
	}
	if bandwidth <= 0 {
		bandwidth = minBandwidth
	}

	ms := MeanShift{
		Bandwidth:     bandwidth,
		BinSeeding:    e.cfg.BinSeeding,
		ClusterAll:    e.cfg.ClusterAll,
		MaxIterations: e.cfg.MaxIterations,
	}
	labels, centers, err := ms.Fit(data)
	if err != nil {
		return nil, fmt.Errorf("mean shift: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clusters := Stats(records, labels, centers)
	assignments := make([]Assignment, len(records))
	for i, rec := range records {
		assignments[i] = Assignment{EventID: rec.ID, Label: labels[i]}
	}

	run := Run{
		ID:           uuid.NewString(),
		StartedAt:    started,
		FinishedAt:   e.now(),
		EventCount:   len(records),
		ClusterCount: len(centers),
		OrphanCount:  Orphans(labels),
		Bandwidth:    bandwidth,
	}
	if err := e.repo.Replace(ctx, run, clusters, assignments); err != nil {
		return nil, fmt.Errorf("storing run %s: %w", run.ID, err)
	}

	return &Summary{Run: run, Clusters: clusters}, nil
}
