package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotRunning is returned when a job is offered to a queue that was
	// never started or has been stopped.
	ErrNotRunning = errors.New("queue is not running")
	// ErrAlreadyQueued is returned when a job with the same Key is still
	// waiting, running or scheduled for retry.
	ErrAlreadyQueued = errors.New("job with the same key is already queued")
)

// Job is a unit of background work. Jobs sharing a non-empty Key are
// coalesced: only one of them may be in flight at a time.
type Job struct {
	ID       string
	Type     string
	Key      string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures the worker pool. RetryDelay doubles on every failed
// attempt up to MaxRetryDelay.
type QueueConfig struct {
	Workers       int
	BufferSize    int
	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	Logger        *zap.Logger
}

// Stats is a point-in-time view of queue throughput.
type Stats struct {
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	Coalesced int64 `json:"coalesced"`
	Pending   int   `json:"pending"`
	InFlight  int   `json:"in_flight"`
}

// Queue dispatches jobs to a fixed pool of goroutines.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger
	jobs    chan Job

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	keys   map[string]struct{}
	wg     sync.WaitGroup

	processed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
	coalesced atomic.Int64
}

// NewQueue builds a stopped queue; call Start before enqueueing.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = 32 * cfg.RetryDelay
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
		keys:    make(map[string]struct{}),
	}
}

// Name returns the queue label used in logs and API replies.
func (q *Queue) Name() string { return q.name }

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ctx != nil {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and pending retries and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.ctx == nil {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped")
}

// Enqueue offers job to the workers. It blocks while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	ctx, err := q.claim(job.Key)
	if err != nil {
		if errors.Is(err, ErrAlreadyQueued) {
			q.coalesced.Add(1)
		}
		return fmt.Errorf("%s: %w", q.name, err)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	if err := q.push(ctx, job); err != nil {
		q.release(job.Key)
		return err
	}
	return nil
}

// Stats reports counters since the queue was created.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	inFlight := len(q.keys)
	q.mu.Unlock()
	return Stats{
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
		Dropped:   q.dropped.Load(),
		Coalesced: q.coalesced.Load(),
		Pending:   len(q.jobs),
		InFlight:  inFlight,
	}
}

// Backoff returns the delay before retry number attempt (1-based).
func (q *Queue) Backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt && delay < q.cfg.MaxRetryDelay; i++ {
		delay *= 2
	}
	if delay > q.cfg.MaxRetryDelay {
		delay = q.cfg.MaxRetryDelay
	}
	return delay
}

func (q *Queue) claim(key string) (context.Context, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ctx == nil || q.ctx.Err() != nil {
		return nil, ErrNotRunning
	}
	if key != "" {
		if _, busy := q.keys[key]; busy {
			return nil, ErrAlreadyQueued
		}
		q.keys[key] = struct{}{}
	}
	return q.ctx, nil
}

func (q *Queue) release(key string) {
	if key == "" {
		return
	}
	q.mu.Lock()
	delete(q.keys, key)
	q.mu.Unlock()
}

func (q *Queue) push(ctx context.Context, job Job) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	case q.jobs <- job:
		return nil
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	err := q.handler(q.ctx, job)
	if err == nil {
		q.processed.Add(1)
		q.release(job.Key)
		return
	}
	q.failed.Add(1)

	job.Attempt++
	fields := []zap.Field{zap.String("job_id", job.ID), zap.String("type", job.Type), zap.Int("attempt", job.Attempt), zap.Error(err)}
	if job.Attempt > q.cfg.MaxRetries {
		q.dropped.Add(1)
		q.release(job.Key)
		q.logger.Error("job exceeded retries", fields...)
		return
	}

	delay := q.Backoff(job.Attempt)
	q.logger.Warn("job failed, retrying", append(fields, zap.Duration("delay", delay))...)
	q.wg.Add(1)
	go q.retry(job, delay)
}

// retry re-offers job after delay. The job keeps its key claim meanwhile.
func (q *Queue) retry(job Job, delay time.Duration) {
	defer q.wg.Done()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-q.ctx.Done():
		q.release(job.Key)
	case <-timer.C:
		if err := q.push(q.ctx, job); err != nil {
			q.release(job.Key)
			q.logger.Error("failed to requeue job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
}
