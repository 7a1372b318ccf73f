// Package sandbox runs learner-submitted JavaScript inside an embedded goja
// VM, capturing console output and the first uncaught error. Unlike the
// browser-side predecessor this evaluator always enforces a hard timeout via
// the engine's interrupt mechanism, so an infinite loop costs one worker slot
// for the timeout window instead of hanging the host.
package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/jononovo/codementor/internal/domain"
)

// DefaultTimeout bounds a run when no explicit timeout is configured.
const DefaultTimeout = 5 * time.Second

// Hooks receive console lines synchronously, in call order, as the submitted
// code produces them. Either hook may be nil.
type Hooks struct {
	OnLog   func(line string)
	OnError func(line string)
}

// Evaluator executes JavaScript source. Each call owns its own VM and output
// buffer, so concurrent Evaluate calls are safe.
type Evaluator struct {
	timeout time.Duration
}

// Ensure Evaluator satisfies the runner contract used by the worker pool.
var _ domain.CodeRunner = (*Evaluator)(nil)

// New returns an Evaluator with the given per-run timeout.
// Non-positive values fall back to DefaultTimeout.
func New(timeout time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Evaluator{timeout: timeout}
}

// Run implements domain.CodeRunner. Only JavaScript is supported by the
// embedded engine; other languages belong to the container runner.
func (e *Evaluator) Run(ctx context.Context, code string, language string) (domain.EvalResult, error) {
	switch strings.ToLower(strings.TrimSpace(language)) {
	case "", "javascript", "js":
		return e.Evaluate(ctx, code, Hooks{}), nil
	default:
		return domain.EvalResult{}, fmt.Errorf("unsupported language %q", language)
	}
}

// Evaluate runs source to completion (or interrupt) and always returns a
// normal result: user-code failures are recorded in the result's Error field
// and appended to the output as an "Error: " line, never raised to the caller.
func (e *Evaluator) Evaluate(ctx context.Context, source string, hooks Hooks) domain.EvalResult {
	var output []string

	appendLine := func(line string, isErr bool) {
		output = append(output, line)
		if isErr {
			if hooks.OnError != nil {
				hooks.OnError(line)
			}
			return
		}
		if hooks.OnLog != nil {
			hooks.OnLog(line)
		}
	}

	cleaned, notes := CleanSource(source)
	for _, note := range notes {
		appendLine(note, false)
	}

	vm := goja.New()

	logFn := func(call goja.FunctionCall) goja.Value {
		appendLine(formatArgs(call.Arguments), false)
		return goja.Undefined()
	}
	errFn := func(call goja.FunctionCall) goja.Value {
		appendLine("Error: "+formatArgs(call.Arguments), true)
		return goja.Undefined()
	}

	console := vm.NewObject()
	console.Set("log", logFn)
	console.Set("info", logFn)
	console.Set("warn", logFn)
	console.Set("error", errFn)
	vm.Set("console", console)

	timer := time.AfterFunc(e.timeout, func() {
		vm.Interrupt(fmt.Sprintf("execution timed out after %s", e.timeout))
	})
	defer timer.Stop()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err().Error())
		case <-done:
		}
	}()

	result := domain.EvalResult{}
	if _, err := vm.RunString(cleaned); err != nil {
		msg := errorMessage(err)
		result.Error = msg
		appendLine("Error: "+msg, true)
	}
	result.Output = output
	return result
}

var (
	scriptTagPattern = regexp.MustCompile(`(?i)</?script[^>]*>`)
	langTokenPattern = regexp.MustCompile(`(?i)^(?:javascript|js)\b[ \t]*\r?\n?`)
)

// CleanSource strips literal script-tag markers and a leading language-name
// token from submitted code. The UI sometimes prepends these when learners
// paste from formatted snippets; evaluating them verbatim would be a syntax
// error. Returned notes describe what was removed so the learner can see the
// cleanup in their console output.
func CleanSource(source string) (string, []string) {
	var notes []string

	cleaned := source
	if scriptTagPattern.MatchString(cleaned) {
		cleaned = scriptTagPattern.ReplaceAllString(cleaned, "")
		notes = append(notes, "Note: removed script tags from submitted code")
	}

	cleaned = strings.TrimSpace(cleaned)
	if token := langTokenPattern.FindString(cleaned); token != "" {
		cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, token))
		notes = append(notes, "Note: removed leading language marker from submitted code")
	}

	return cleaned, notes
}

// formatArgs renders console arguments the way the browser console would:
// objects and arrays pretty-printed as JSON, everything else coerced through
// the engine's ToString, joined by single spaces.
func formatArgs(args []goja.Value) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		parts = append(parts, formatValue(arg))
	}
	return strings.Join(parts, " ")
}

func formatValue(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	switch v.Export().(type) {
	case map[string]interface{}, []interface{}:
		if data, err := json.MarshalIndent(v.Export(), "", "  "); err == nil {
			return string(data)
		}
	}
	return v.String()
}

// errorMessage extracts the bare message from an engine error. For thrown
// Error objects this is the .message property ("boom", not "Error: boom");
// for interrupts it is the interrupt value; anything else falls back to the
// Go error text.
func errorMessage(err error) string {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		val := exc.Value()
		if obj, ok := val.(*goja.Object); ok {
			if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
				return msg.String()
			}
		}
		if val != nil {
			return val.String()
		}
		return exc.Error()
	}

	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Sprintf("%v", interrupted.Value())
	}

	return err.Error()
}
