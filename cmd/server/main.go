package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/jononovo/codementor/internal/config"
	"github.com/jononovo/codementor/internal/domain"
	"github.com/jononovo/codementor/internal/platform/queue"
	"github.com/jononovo/codementor/internal/platform/web"
	"github.com/jononovo/codementor/internal/sandbox"
	"github.com/jononovo/codementor/internal/server"
	"github.com/jononovo/codementor/internal/store"
	"github.com/jononovo/codementor/internal/tutor"
	"github.com/jononovo/codementor/internal/worker"
)

func main() {
	// 1. Initialize logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 2. Load configuration (file optional, env overrides applied)
	configPath := flag.String("config", "codementor.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// 3. Store and tutor service
	memStore := store.NewMemStore()

	var completer tutor.Completer
	if cfg.LLM.APIKey != "" {
		completer, err = tutor.NewGeminiCompleter(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			slog.Error("Failed to create completion client", "error", err)
			os.Exit(1)
		}
	} else {
		// Without a key the tutor degrades to apologies; code runs still work.
		slog.Warn("GEMINI_API_KEY not set, assistant replies are disabled")
		completer = tutor.OfflineCompleter{}
	}
	tutorSvc := tutor.NewService(memStore, completer)

	// 4. Job queue: Redis when configured, otherwise in-process with a
	//    local worker pool (single-node mode).
	var jobQueue domain.JobQueue
	if cfg.Redis.Addr != "" {
		slog.Info("Using Redis job queue", "addr", cfg.Redis.Addr)
		jobQueue = queue.NewRedisQueue(cfg.Redis.Addr, cfg.Redis.Stream, cfg.Redis.Group)
	} else {
		slog.Info("Using in-process job queue")
		memQueue := queue.NewMemoryQueue(64)
		jobQueue = memQueue

		runner := sandbox.New(cfg.SandboxTimeout())
		pool := worker.NewPool(cfg.Sandbox.Workers, cfg.SandboxTimeout(), runner, func(result domain.JobResult) {
			if err := memQueue.Broadcast(ctx, result); err != nil {
				slog.Error("Failed to broadcast result", "jobID", result.JobID, "error", err)
			}
		})
		pool.Start()

		jobs, err := memQueue.Subscribe(ctx)
		if err != nil {
			slog.Error("Failed to subscribe to jobs", "error", err)
			os.Exit(1)
		}
		go func() {
			for job := range jobs {
				pool.Submit(job)
			}
		}()
	}

	// 5. Rate limiter for the run endpoint
	limiter := web.NewRateLimiter(cfg.Server.RateLimit.Rate, cfg.Server.RateLimit.Burst)

	// 6. Assemble server and start pushing results to waiting sockets
	srv := server.New(memStore, tutorSvc, jobQueue, limiter)
	if err := srv.StartResultBroadcaster(ctx); err != nil {
		slog.Error("Failed to start result broadcaster", "error", err)
		os.Exit(1)
	}

	// 7. Serve
	slog.Info("API server starting", "addr", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, srv.Routes()); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
