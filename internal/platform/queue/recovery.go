package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// StartRecoveryRoutine polls the pending-entries list for run jobs whose
// worker died mid-evaluation and reclaims them. Reclaimed entries are ACKed
// so the PEL does not grow without bound; the learner simply re-runs.
func (r *RedisQueue) StartRecoveryRoutine(ctx context.Context, interval time.Duration, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	consumerName := "recovery-agent"

	slog.Info("Starting run-job recovery routine", "interval", interval, "maxAge", maxAge)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := "-"

			for {
				messages, nextStart, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
					Stream:   r.stream,
					Group:    r.group,
					MinIdle:  maxAge,
					Start:    start,
					Count:    10,
					Consumer: consumerName,
				}).Result()
				if err != nil {
					slog.Error("Recovery routine failed", "error", err)
					break
				}

				if len(messages) == 0 {
					break
				}

				slog.Info("Recovered stale run jobs", "count", len(messages))

				for _, msg := range messages {
					slog.Warn("Stale run job claimed by recovery agent", "msgID", msg.ID)
					r.client.XAck(ctx, r.stream, r.group, msg.ID)
				}

				start = nextStart
				if start == "0-0" {
					break
				}
			}
		}
	}
}
