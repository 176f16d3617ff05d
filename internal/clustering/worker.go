package clustering

import (
	"context"
	"sync"
	"time"
)

// Computer is the work a BatchWorker triggers.
type Computer interface {
	Compute(ctx context.Context) (*Summary, error)
}

// BatchWorker triggers a clustering run every BatchSize stored events.
//
// At most one run is in flight. When a batch completes while the previous
// run is still going, the new run waits for it.
type BatchWorker struct {
	computer  Computer
	batchSize int
	timeout   time.Duration
	logger    Logger

	mu      sync.Mutex
	count   int
	closed  bool
	running chan struct{} // closed when the current run finishes; nil when idle
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBatchWorker creates a worker. batchSize values below 1 are treated
// as 1. timeout bounds each run; zero means no limit.
func NewBatchWorker(computer Computer, batchSize int, timeout time.Duration) *BatchWorker {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchWorker{
		computer:  computer,
		batchSize: max(batchSize, 1),
		timeout:   timeout,
		logger:    noopLogger{},
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetLogger sets the logger for the worker.
func (w *BatchWorker) SetLogger(logger Logger) {
	w.logger = logger
}

// ReportEventReceived counts one stored event and starts a run when the
// batch is full. It returns true when a run was started.
func (w *BatchWorker) ReportEventReceived() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return false
	}
	w.count++
	if w.count < w.batchSize {
		return false
	}
	w.count = 0

	previous := w.running
	done := make(chan struct{})
	w.running = done

	w.wg.Add(1)
	go w.run(previous, done)
	return true
}

// Pending returns the number of events counted towards the next batch.
func (w *BatchWorker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

func (w *BatchWorker) run(previous, done chan struct{}) {
	defer w.wg.Done()
	defer func() {
		w.mu.Lock()
		if w.running == done {
			w.running = nil
		}
		w.mu.Unlock()
		close(done)
	}()

	if previous != nil {
		select {
		case <-previous:
		default:
			w.logger.Warn("previous clustering run still in progress, waiting")
			<-previous
		}
	}

	ctx := w.ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	if _, err := w.computer.Compute(ctx); err != nil {
		w.logger.Error("clustering run failed", "error", err)
	}
}

// Close stops accepting events and waits for in-flight runs. Runs still
// waiting to start see a cancelled context when ctx expires first.
func (w *BatchWorker) Close(ctx context.Context) error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		w.cancel()
		return nil
	case <-ctx.Done():
		w.cancel()
		<-finished
		return ctx.Err()
	}
}
