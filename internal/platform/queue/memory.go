package queue

import (
	"context"
	"sync"

	"github.com/jononovo/codementor/internal/domain"
)

// MemoryQueue implements domain.JobQueue over channels for single-node mode:
// the server hosts the worker pool itself and no broker is involved.
// Acknowledge is a no-op: once a job leaves the channel it is gone.
type MemoryQueue struct {
	jobs chan domain.Job

	mu          sync.Mutex
	subscribers []chan domain.JobResult
	closed      bool
}

var _ domain.JobQueue = (*MemoryQueue)(nil)

// NewMemoryQueue returns an in-process queue with the given backlog capacity.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 64
	}
	return &MemoryQueue{
		jobs: make(chan domain.Job, capacity),
	}
}

// Publish enqueues the job, blocking once the backlog is full.
func (q *MemoryQueue) Publish(ctx context.Context, job domain.Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns the job channel. The channel is shared: multiple
// subscribers split the stream, mirroring a broker consumer group.
func (q *MemoryQueue) Subscribe(ctx context.Context) (<-chan domain.Job, error) {
	return q.jobs, nil
}

// Acknowledge is a no-op; in-process delivery is at-most-once.
func (q *MemoryQueue) Acknowledge(ctx context.Context, rawID string) error {
	return nil
}

// Broadcast fans the result out to every result subscriber. A subscriber
// that is not draining its channel is skipped rather than blocking the
// worker.
func (q *MemoryQueue) Broadcast(ctx context.Context, result domain.JobResult) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, sub := range q.subscribers {
		select {
		case sub <- result:
		default:
		}
	}
	return nil
}

// SubscribeResults registers a new result listener. The channel closes when
// the context is cancelled.
func (q *MemoryQueue) SubscribeResults(ctx context.Context) (<-chan domain.JobResult, error) {
	ch := make(chan domain.JobResult, 16)

	q.mu.Lock()
	q.subscribers = append(q.subscribers, ch)
	q.mu.Unlock()

	go func() {
		<-ctx.Done()

		q.mu.Lock()
		for i, sub := range q.subscribers {
			if sub == ch {
				q.subscribers = append(q.subscribers[:i], q.subscribers[i+1:]...)
				break
			}
		}
		q.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}
