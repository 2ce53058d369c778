package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job carries one unit of asynchronous work through a queue. Payload stays
// opaque to the queue; handlers switch on Type.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a single job. A non-nil error schedules a retry until
// MaxRetries is exhausted.
type Handler func(context.Context, Job) error

// QueueConfig tunes the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (c *QueueConfig) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BufferSize <= 0 {
		c.BufferSize = c.Workers * 4
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Queue is an in-process job dispatcher backed by a buffered channel and a
// fixed pool of worker goroutines. Failed jobs are re-enqueued with a linear
// backoff (RetryDelay times the attempt number).
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	log     *zap.SugaredLogger

	intake chan Job

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewQueue builds a queue. The handler runs on every worker; it must be safe
// for concurrent use.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	cfg.applyDefaults()
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		log:     cfg.Logger.Sugar().With("queue", name),
		intake:  make(chan Job, cfg.BufferSize),
	}
}

// Start launches the worker pool. Subsequent calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work(i + 1)
	}
	q.running = true
	q.log.Infow("queue started", "workers", q.cfg.Workers, "buffer", q.cfg.BufferSize)
}

// Stop cancels all workers and blocks until they return. Buffered jobs that
// have not started are dropped.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.log.Infow("queue stopped", "pending", len(q.intake))
}

// Enqueue submits a job without blocking the caller beyond buffer capacity.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	running := q.running
	ctx := q.ctx
	q.mu.Unlock()

	if !running {
		return fmt.Errorf("queue %s is not running", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.intake <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue %s shutting down: %w", q.name, ctx.Err())
	}
}

func (q *Queue) work(id int) {
	defer q.wg.Done()
	log := q.log.With("worker", id)
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.intake:
			if err := q.run(job); err != nil {
				q.retry(job, err, log)
			}
		}
	}
}

// run shields the pool from panicking handlers.
func (q *Queue) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return q.handler(q.ctx, job)
}

func (q *Queue) retry(job Job, cause error, log *zap.SugaredLogger) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		log.Errorw("job dropped after max retries",
			"job_id", job.ID, "type", job.Type, "attempts", job.Attempt-1, "error", cause)
		return
	}

	backoff := q.cfg.RetryDelay * time.Duration(job.Attempt)
	log.Warnw("job failed, scheduling retry",
		"job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "backoff", backoff, "error", cause)

	go func() {
		timer := time.NewTimer(backoff)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				log.Errorw("retry enqueue failed", "job_id", job.ID, "error", err)
			}
		}
	}()
}
