package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/raido/internal/models"
	"github.com/starford/raido/internal/remote"
)

// State is the sync queue's lifecycle state.
type State int

const (
	StateIdle State = iota
	StateSyncing
	StateOffline
)

func (s State) String() string {
	switch s {
	case StateSyncing:
		return "syncing"
	case StateOffline:
		return "offline"
	default:
		return "idle"
	}
}

// Executor performs one sync operation. Implemented by the Orchestrator.
type Executor interface {
	Execute(ctx context.Context, op models.Operation) error
}

// QueueConfig tunes batch execution. Zero values take the defaults the
// remote service's rate limit was measured against.
type QueueConfig struct {
	BatchSize int           // operations executed concurrently per batch (default 5)
	Pacing    time.Duration // delay between batches (default 1s)
}

// Queue is the ordered operation buffer: strict FIFO dequeue in batches,
// concurrent execution within a batch, retry with a budget of
// models.MaxRetries for API-class failures, and an Offline transition on
// network-class failures. A per-document in-flight guard keeps two
// operations for the same document out of the same batch, preserving their
// enqueue order.
type Queue struct {
	exec   Executor
	logger *slog.Logger

	batchSize int
	pacing    time.Duration

	mu     sync.Mutex
	ops    []models.Operation
	state  State
	online bool
}

// NewQueue creates a Queue driving exec.
func NewQueue(exec Executor, cfg QueueConfig, logger *slog.Logger) *Queue {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.Pacing <= 0 {
		cfg.Pacing = time.Second
	}
	return &Queue{
		exec:      exec,
		logger:    logger,
		batchSize: cfg.BatchSize,
		pacing:    cfg.Pacing,
		state:     StateIdle,
		online:    true,
	}
}

// Enqueue appends an operation to the back of the queue.
func (q *Queue) Enqueue(op models.Operation) {
	op.EnqueuedAt = time.Now()
	q.mu.Lock()
	q.ops = append(q.ops, op)
	q.mu.Unlock()
}

// Pending returns the number of queued operations.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// State returns the queue's current state.
func (q *Queue) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// SetOnline records a connectivity change. Going online does not process by
// itself; the caller re-invokes Process, which resumes from the exact
// operation that hit the network failure.
func (q *Queue) SetOnline(online bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.online = online
	if !online {
		q.state = StateOffline
	} else if q.state == StateOffline {
		q.state = StateIdle
	}
}

// batchResult pairs an executed operation with its outcome.
type batchResult struct {
	op  models.Operation
	err error
}

// Process drains the queue, returning terminal failures. It stops early
// when a network-class failure transitions the queue to Offline (the failed
// operation stays at the front) or when ctx is cancelled between batches.
func (q *Queue) Process(ctx context.Context) []models.Failure {
	q.mu.Lock()
	if !q.online {
		q.state = StateOffline
		q.mu.Unlock()
		return nil
	}
	q.state = StateSyncing
	q.mu.Unlock()

	var failures []models.Failure
	first := true
	for {
		if !first {
			select {
			case <-ctx.Done():
				q.setState(StateIdle)
				return failures
			case <-time.After(q.pacing):
			}
		}
		first = false

		batch := q.takeBatch()
		if len(batch) == 0 {
			q.setState(StateIdle)
			return failures
		}

		results := q.runBatch(ctx, batch)

		var requeueFront []models.Operation
		offline := false
		for _, r := range results {
			if r.err == nil {
				continue
			}
			switch remote.ClassOf(r.err) {
			case remote.ClassNetwork:
				// Never counted against the retry budget; the operation
				// resumes from the front once connectivity returns.
				requeueFront = append(requeueFront, r.op)
				offline = true
				q.logger.Warn("queue: network failure, going offline",
					slog.String("path", r.op.Key()),
					slog.String("error", r.err.Error()))

			case remote.ClassValidation:
				failures = append(failures, models.Failure{
					Path: r.op.Path, Kind: r.op.Kind, Message: r.err.Error(),
				})
				q.logger.Warn("queue: validation failure, not retried",
					slog.String("path", r.op.Key()),
					slog.String("error", r.err.Error()))

			default: // API-class
				r.op.RetryCount++
				if r.op.RetryCount < models.MaxRetries {
					q.logger.Warn("queue: retrying",
						slog.String("path", r.op.Key()),
						slog.Int("retry", r.op.RetryCount),
						slog.String("error", r.err.Error()))
					q.Enqueue(r.op)
				} else {
					failures = append(failures, models.Failure{
						Path: r.op.Path, Kind: r.op.Kind, Message: r.err.Error(),
					})
					q.logger.Error("queue: retries exhausted",
						slog.String("path", r.op.Key()),
						slog.String("error", r.err.Error()))
				}
			}
		}

		if offline {
			q.mu.Lock()
			q.ops = append(requeueFront, q.ops...)
			q.online = false
			q.state = StateOffline
			q.mu.Unlock()
			return failures
		}
	}
}

// takeBatch pops up to batchSize operations with pairwise distinct keys.
// Operations whose key is already in the batch stay queued in order, so
// same-document operations never run concurrently.
func (q *Queue) takeBatch() []models.Operation {
	q.mu.Lock()
	defer q.mu.Unlock()

	var batch []models.Operation
	taken := make(map[string]bool)
	var rest []models.Operation
	for _, op := range q.ops {
		if len(batch) < q.batchSize && !taken[op.Key()] {
			taken[op.Key()] = true
			batch = append(batch, op)
			continue
		}
		rest = append(rest, op)
	}
	q.ops = rest
	return batch
}

// runBatch executes the batch concurrently and returns results in batch
// order.
func (q *Queue) runBatch(ctx context.Context, batch []models.Operation) []batchResult {
	results := make([]batchResult, len(batch))
	var wg sync.WaitGroup
	for i, op := range batch {
		wg.Add(1)
		go func(i int, op models.Operation) {
			defer wg.Done()
			results[i] = batchResult{op: op, err: q.exec.Execute(ctx, op)}
		}(i, op)
	}
	wg.Wait()
	return results
}

func (q *Queue) setState(s State) {
	q.mu.Lock()
	q.state = s
	q.mu.Unlock()
}
