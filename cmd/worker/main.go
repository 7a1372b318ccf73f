package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jononovo/codementor/internal/config"
	"github.com/jononovo/codementor/internal/domain"
	"github.com/jononovo/codementor/internal/platform/docker"
	"github.com/jononovo/codementor/internal/platform/queue"
	"github.com/jononovo/codementor/internal/sandbox"
	"github.com/jononovo/codementor/internal/worker"
)

func main() {
	// 1. Initialize logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 2. Load configuration
	configPath := flag.String("config", "codementor.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	addr := cfg.Redis.Addr
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 3. Connect to the job queue
	jobQueue := queue.NewRedisQueue(addr, cfg.Redis.Stream, cfg.Redis.Group)

	// 4. Pick the runner
	var runner domain.CodeRunner
	switch cfg.Sandbox.Runtime {
	case "docker":
		runner = docker.NewClient(cfg.Sandbox.DockerImage)
	default:
		runner = sandbox.New(cfg.SandboxTimeout())
	}
	slog.Info("Worker runtime selected", "runtime", cfg.Sandbox.Runtime)

	// 5. Start the worker pool; finished runs are broadcast and ACKed
	pool := worker.NewPool(cfg.Sandbox.Workers, cfg.SandboxTimeout(), runner, func(result domain.JobResult) {
		if err := jobQueue.Broadcast(ctx, result); err != nil {
			slog.Error("Failed to broadcast result", "jobID", result.JobID, "error", err)
		}
		if result.RawID != "" {
			if err := jobQueue.Acknowledge(ctx, result.RawID); err != nil {
				slog.Error("Failed to acknowledge job", "jobID", result.JobID, "error", err)
			}
		}
	})
	pool.Start()

	// 6. Reclaim jobs stranded by dead workers
	go jobQueue.StartRecoveryRoutine(ctx, 30*time.Second, 2*time.Minute)

	// 7. Consume jobs until interrupted
	jobs, err := jobQueue.Subscribe(ctx)
	if err != nil {
		slog.Error("Failed to subscribe to jobs", "error", err)
		os.Exit(1)
	}

	slog.Info("Worker consuming jobs", "stream", cfg.Redis.Stream, "group", cfg.Redis.Group)
	for job := range jobs {
		pool.Submit(job)
	}

	// 8. Drain in-flight evaluations before exiting
	pool.Stop()
	slog.Info("Worker shut down")
}
