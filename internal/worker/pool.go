// Package worker hosts the fixed-size pool that evaluates run jobs.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jononovo/codementor/internal/challenge"
	"github.com/jononovo/codementor/internal/domain"
)

// defaultRunTimeout bounds a job when the pool is built without an explicit
// timeout.
const defaultRunTimeout = 5 * time.Second

// Pool throttles concurrent evaluations with a fixed set of goroutines.
// Each job is run through the configured CodeRunner and, when the job
// carries a test block, its verdicts are computed against the captured
// console output before the result is reported.
type Pool struct {
	workerCount int
	tasksCh     chan domain.Job
	wg          sync.WaitGroup
	runner      domain.CodeRunner
	timeout     time.Duration

	// onResult, when set, receives every finished job (queue mode). Jobs
	// with their own ResultCh are answered directly instead.
	onResult func(domain.JobResult)
}

// NewPool initializes the worker pool with a fixed concurrency limit.
// Every job runs under a context that expires after timeout, so a runner that
// never returns on its own (a container looping forever, for instance) still
// gives its worker slot back.
func NewPool(concurrency int, timeout time.Duration, runner domain.CodeRunner, onResult func(domain.JobResult)) *Pool {
	if concurrency <= 0 {
		concurrency = 1
	}
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	return &Pool{
		workerCount: concurrency,
		tasksCh:     make(chan domain.Job, concurrency),
		runner:      runner,
		timeout:     timeout,
		onResult:    onResult,
	}
}

// Start spawns the worker goroutines and returns immediately.
func (p *Pool) Start() {
	slog.Info("Starting worker pool", "concurrency", p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop initiates a graceful shutdown: the job channel is closed, workers
// finish their current evaluation, and Stop blocks until they exit.
func (p *Pool) Stop() {
	slog.Info("Stopping worker pool, waiting for jobs to drain...")
	close(p.tasksCh)
	p.wg.Wait()
	slog.Info("Worker pool stopped")
}

// Submit adds a job to the queue, blocking if the pool is saturated.
func (p *Pool) Submit(job domain.Job) {
	p.tasksCh <- job
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	slog.Info("Worker started", "workerID", id)

	for job := range p.tasksCh {
		slog.Debug("Processing job", "workerID", id, "jobID", job.ID)

		result := p.process(job)

		if job.ResultCh != nil {
			job.ResultCh <- result
			continue
		}
		if p.onResult != nil {
			p.onResult(result)
		}
	}

	slog.Info("Worker stopped", "workerID", id)
}

// process runs one job end to end under the pool's run timeout. Runner
// infrastructure failures are folded into the result's error text: the
// learner still gets a terminal answer.
func (p *Pool) process(job domain.Job) domain.JobResult {
	result := domain.JobResult{
		JobID:  job.ID,
		RawID:  job.RawID,
		Output: []string{},
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	eval, err := p.runner.Run(ctx, job.Code, job.Language)
	if err != nil {
		slog.Error("Runner failed", "jobID", job.ID, "error", err)
		result.Error = err.Error()
		return result
	}

	if eval.Output != nil {
		result.Output = eval.Output
	}
	result.Error = eval.Error

	if job.Tests != "" {
		tests := challenge.ParseTests(job.Tests)
		result.Tests = challenge.RunTests(job.Code, tests, eval.Output)
		result.Passed = challenge.AllPassed(result.Tests)
	}

	return result
}
