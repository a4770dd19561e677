package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/entity"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document submitted for extraction.
type Job struct {
	Document    entity.InvoiceDocument
	SubmittedAt time.Time
	TraceID     string
}

// DocumentExtractor is satisfied by *core.Processor.
type DocumentExtractor interface {
	ExtractMetadata(ctx context.Context, doc entity.InvoiceDocument) (entity.ExtractionResult, error)
}

// ResultSink receives every finished job, successful or not. It is called
// from worker goroutines and must be safe for concurrent use.
type ResultSink interface {
	Handle(ctx context.Context, job Job, res entity.ExtractionResult, err error)
}

// SinkFunc adapts a function to ResultSink.
type SinkFunc func(ctx context.Context, job Job, res entity.ExtractionResult, err error)

func (f SinkFunc) Handle(ctx context.Context, job Job, res entity.ExtractionResult, err error) {
	f(ctx, job, res, err)
}

type ProcessorQueue struct {
	proc    DocumentExtractor
	sink    ResultSink
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc DocumentExtractor, sink ResultSink, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		sink:    sink,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.start", "worker_id", workerID)
				for job := range q.ch {
					q.process(workerID, job)
				}
				q.logger.Debug("queue.worker.stop", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) process(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}

	start := time.Now()
	res, err := q.proc.ExtractMetadata(ctx, job.Document)
	if err != nil {
		q.logger.Error("queue.job.failed",
			"worker_id", workerID, "filename", job.Document.Filename, "error", err)
	} else {
		q.logger.Info("queue.job.done",
			"worker_id", workerID,
			"document_id", res.DocumentID,
			"method", res.ExtractionMethod,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"waited_ms", start.Sub(job.SubmittedAt).Milliseconds(),
		)
	}
	if q.sink != nil {
		q.sink.Handle(ctx, job, res, err)
	}
}

// Enqueue blocks while the buffer is full until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "filename", job.Document.Filename)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		return nil
	default:
		q.logger.Debug("queue.full", "filename", job.Document.Filename)
	}
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops intake and waits for queued jobs until ctx is done.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
