// Package async runs background ingestion off a bounded worker queue.
package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/toladipo/docbrief/internal/ingest"
)

// Job is one file waiting to be ingested.
type Job struct {
	Path        string
	SubmittedAt time.Time
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

type IngestQueue struct {
	svc     *ingest.Service
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*IngestQueue)

func WithWorkers(n int) Option {
	return func(q *IngestQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *IngestQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithIngestTimeout(d time.Duration) Option {
	return func(q *IngestQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewIngestQueue(svc *ingest.Service, logger *slog.Logger, opts ...Option) *IngestQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &IngestQueue{
		svc:     svc,
		logger:  logger,
		workers: 2,
		timeout: 2 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *IngestQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					res, err := q.svc.IngestFile(ctx, job.Path)
					cancel()

					if err != nil {
						q.logger.Error("ingestion failed", "worker_id", workerID, "path", job.Path, "error", err)
					} else {
						q.logger.Info("ingested file", "worker_id", workerID, "path", job.Path,
							"doc_id", res.DocID, "chunks", res.Chunks, "skipped", res.Skipped)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *IngestQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued file for ingestion", "path", job.Path)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

func (q *IngestQueue) Shutdown(ctx context.Context) {
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
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
