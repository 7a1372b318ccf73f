package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/jononovo/codementor/internal/config"
	"github.com/jononovo/codementor/internal/domain"
	"github.com/jononovo/codementor/internal/platform/queue"
)

// runjob publishes a single run job straight onto the queue and waits for the
// result, bypassing the API server. Useful for smoke-testing a worker.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configPath := flag.String("config", "codementor.yaml", "path to config file")
	code := flag.String("code", `console.log("hello from runjob")`, "code to run")
	file := flag.String("file", "", "read code from file instead of -code")
	language := flag.String("lang", "javascript", "language of the submission")
	tests := flag.String("tests", "", "pipe-delimited test definitions")
	wait := flag.Duration("wait", 30*time.Second, "how long to wait for the result")
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

	source := *code
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			slog.Error("Failed to read code file", "path", *file, "error", err)
			os.Exit(1)
		}
		source = string(data)
	}

	jobQueue := queue.NewRedisQueue(addr, cfg.Redis.Stream, cfg.Redis.Group)

	ctx, cancel := context.WithTimeout(context.Background(), *wait)
	defer cancel()

	// Subscribe before publishing so the result cannot slip past us.
	results, err := jobQueue.SubscribeResults(ctx)
	if err != nil {
		slog.Error("Failed to subscribe to results", "error", err)
		os.Exit(1)
	}

	job := domain.Job{
		ID:       uuid.New().String(),
		Code:     source,
		Language: *language,
		Tests:    *tests,
	}
	if err := jobQueue.Publish(ctx, job); err != nil {
		slog.Error("Failed to publish job", "error", err)
		os.Exit(1)
	}
	slog.Info("Job published", "jobID", job.ID)

	for {
		select {
		case <-ctx.Done():
			slog.Error("Timed out waiting for result", "jobID", job.ID)
			os.Exit(1)
		case result, ok := <-results:
			if !ok {
				slog.Error("Result stream closed", "jobID", job.ID)
				os.Exit(1)
			}
			if result.JobID != job.ID {
				continue
			}

			for _, line := range result.Output {
				fmt.Println(line)
			}
			if result.Error != "" {
				fmt.Println("error:", result.Error)
			}
			for _, t := range result.Tests {
				status := "FAIL"
				if t.Passed {
					status = "PASS"
				}
				fmt.Printf("%s  %s: %s\n", status, t.Name, t.Message)
			}
			if len(result.Tests) > 0 {
				fmt.Println("all tests passed:", result.Passed)
			}
			return
		}
	}
}
