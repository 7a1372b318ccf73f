// Package queue provides the job-queue implementations behind
// domain.JobQueue: Redis Streams for multi-node deployments and an
// in-process channel queue for single-node mode.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jononovo/codementor/internal/domain"
)

// resultsChannel is the pub/sub channel workers broadcast finished runs on.
const resultsChannel = "codementor:results"

// RedisQueue implements domain.JobQueue using Redis Streams for job delivery
// and pub/sub for result fan-out.
type RedisQueue struct {
	client *redis.Client
	stream string
	group  string
}

var _ domain.JobQueue = (*RedisQueue)(nil)

// NewRedisQueue returns a Redis-backed queue adapter. It pings the broker on
// construction and panics if it is unreachable: a server that cannot enqueue
// runs should not come up at all.
func NewRedisQueue(addr, stream, group string) *RedisQueue {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("failed to connect to redis: %v", err))
	}

	return &RedisQueue{
		client: rdb,
		stream: stream,
		group:  group,
	}
}

// Publish enqueues a job to the stream with XADD.
func (r *RedisQueue) Publish(ctx context.Context, job domain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]interface{}{
			"job": data,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// Subscribe creates the consumer group (if absent) and streams jobs with
// XREADGROUP from a background goroutine until the context is cancelled.
func (r *RedisQueue) Subscribe(ctx context.Context) (<-chan domain.Job, error) {
	err := r.client.XGroupCreateMkStream(ctx, r.stream, r.group, "$").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	outCh := make(chan domain.Job)

	consumerID, _ := os.Hostname()
	if consumerID == "" {
		consumerID = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}

	go func() {
		defer close(outCh)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				// Short block so the loop re-checks the context.
				streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
					Group:    r.group,
					Consumer: consumerID,
					Streams:  []string{r.stream, ">"},
					Count:    1,
					Block:    2 * time.Second,
				}).Result()
				if err != nil {
					if err == redis.Nil {
						continue
					}
					if ctx.Err() != nil {
						return
					}
					slog.Error("Redis read error", "error", err)
					time.Sleep(1 * time.Second)
					continue
				}

				for _, stream := range streams {
					for _, msg := range stream.Messages {
						val, ok := msg.Values["job"].(string)
						if !ok {
							slog.Error("Invalid message format", "msgID", msg.ID)
							continue
						}
						var job domain.Job
						if err := json.Unmarshal([]byte(val), &job); err != nil {
							slog.Error("Failed to unmarshal job", "error", err)
							continue
						}

						// Keep the stream entry ID so the worker can ACK.
						job.RawID = msg.ID

						outCh <- job
					}
				}
			}
		}
	}()
	return outCh, nil
}

// Acknowledge confirms processing with XACK.
func (r *RedisQueue) Acknowledge(ctx context.Context, rawID string) error {
	return r.client.XAck(ctx, r.stream, r.group, rawID).Err()
}

// Broadcast publishes a finished run to the results pub/sub channel.
func (r *RedisQueue) Broadcast(ctx context.Context, result domain.JobResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	return r.client.Publish(ctx, resultsChannel, data).Err()
}

// SubscribeResults subscribes to the results channel and streams decoded
// results until the context is cancelled.
func (r *RedisQueue) SubscribeResults(ctx context.Context) (<-chan domain.JobResult, error) {
	pubsub := r.client.Subscribe(ctx, resultsChannel)

	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to results: %w", err)
	}

	outCh := make(chan domain.JobResult)

	go func() {
		defer close(outCh)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var result domain.JobResult
				if err := json.Unmarshal([]byte(msg.Payload), &result); err != nil {
					slog.Error("Failed to unmarshal result", "error", err)
					continue
				}

				outCh <- result
			}
		}
	}()

	return outCh, nil
}
