package domain

import "context"

// EvalResult captures everything one evaluation run produced: the ordered
// console output and the message of the first uncaught error, if any.
// Evaluation failures live here, not in a Go error: a broken submission is a
// normal result, not an infrastructure fault.
type EvalResult struct {
	Output []string `json:"output"`
	Error  string   `json:"error,omitempty"`
}

// CodeRunner executes learner-submitted source in an isolated environment.
// Implementations handle the engine/container lifecycle and must enforce a
// per-run timeout. The returned error is reserved for infrastructure
// failures (unsupported language, daemon unreachable); anything the
// submitted code did wrong is reported inside EvalResult.
type CodeRunner interface {
	Run(ctx context.Context, code string, language string) (EvalResult, error)
}

// Job is one code submission travelling through the run pipeline.
// Tests carries the slide's raw pipe-delimited test block; the worker parses
// and applies it after the run so the verdicts see the captured console output.
type Job struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Language string `json:"language"`
	Tests    string `json:"tests,omitempty"`

	// RawID is the internal stream ID assigned by the broker (e.g. a Redis
	// Stream entry ID). Needed to acknowledge the message later.
	RawID string `json:"-"`

	// ResultCh, when non-nil, receives the execution result directly.
	// Used by the in-process pipeline; queued jobs report via Broadcast.
	ResultCh chan<- JobResult `json:"-"`
}

// JobResult is the outcome of one job: run output plus per-test verdicts.
type JobResult struct {
	JobID  string       `json:"job_id"`
	Output []string     `json:"output"`
	Error  string       `json:"error,omitempty"`
	Tests  []TestResult `json:"tests,omitempty"`
	Passed bool         `json:"passed"`

	RawID string `json:"-"`
}
