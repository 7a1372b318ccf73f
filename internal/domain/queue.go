package domain

import "context"

// JobQueue defines the contract for the run-job queue.
// It decouples the server from the underlying transport (Redis Streams in
// multi-node deployments, an in-process channel queue in single-node mode).
type JobQueue interface {
	// Publish enqueues a job for processing.
	Publish(ctx context.Context, job Job) error

	// Subscribe returns a read-only channel that streams jobs from the queue.
	// It handles the details of consumer groups and acknowledgments internally.
	Subscribe(ctx context.Context) (<-chan Job, error)

	// Acknowledge confirms that a job has been fully processed, removing it
	// from the broker's pending list.
	Acknowledge(ctx context.Context, rawID string) error

	// Broadcast publishes a finished job's result so that any listening
	// server can push it to the learner's browser.
	Broadcast(ctx context.Context, result JobResult) error

	// SubscribeResults returns a channel that streams results from all workers.
	SubscribeResults(ctx context.Context) (<-chan JobResult, error)
}
