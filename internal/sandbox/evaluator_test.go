package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateConsoleLog(t *testing.T) {
	e := New(0)
	result := e.Evaluate(context.Background(), "console.log(1+1)", Hooks{})

	assert.Equal(t, []string{"2"}, result.Output)
	assert.Empty(t, result.Error)
}

func TestEvaluateThrownError(t *testing.T) {
	e := New(0)
	result := e.Evaluate(context.Background(), "throw new Error('boom')", Hooks{})

	assert.Equal(t, "boom", result.Error)
	assert.Equal(t, []string{"Error: boom"}, result.Output)
}

func TestEvaluateSyntaxError(t *testing.T) {
	e := New(0)
	result := e.Evaluate(context.Background(), "let = ;", Hooks{})

	assert.NotEmpty(t, result.Error)
	require.NotEmpty(t, result.Output)
	assert.Contains(t, result.Output[len(result.Output)-1], "Error: ")
}

func TestEvaluateOutputOrder(t *testing.T) {
	e := New(0)
	source := `
console.log("first");
console.error("second");
console.log("third");
`
	result := e.Evaluate(context.Background(), source, Hooks{})

	assert.Equal(t, []string{"first", "Error: second", "third"}, result.Output)
	assert.Empty(t, result.Error)
}

func TestEvaluateMultipleArgsAndObjects(t *testing.T) {
	e := New(0)
	result := e.Evaluate(context.Background(), `console.log("x:", 1, true)`, Hooks{})
	require.Len(t, result.Output, 1)
	assert.Equal(t, "x: 1 true", result.Output[0])

	result = e.Evaluate(context.Background(), `console.log([1, 2])`, Hooks{})
	require.Len(t, result.Output, 1)
	assert.Contains(t, result.Output[0], "1")
	assert.Contains(t, result.Output[0], "2")
}

func TestEvaluateHooksSeeLinesInOrder(t *testing.T) {
	var logs, errs []string
	hooks := Hooks{
		OnLog:   func(line string) { logs = append(logs, line) },
		OnError: func(line string) { errs = append(errs, line) },
	}

	e := New(0)
	e.Evaluate(context.Background(), `console.log("a"); console.error("b")`, hooks)

	assert.Equal(t, []string{"a"}, logs)
	assert.Equal(t, []string{"Error: b"}, errs)
}

func TestEvaluateTimeout(t *testing.T) {
	e := New(50 * time.Millisecond)
	start := time.Now()
	result := e.Evaluate(context.Background(), "while (true) {}", Hooks{})

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, result.Error, "timed out")
}

func TestEvaluateContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	e := New(10 * time.Second)
	result := e.Evaluate(ctx, "while (true) {}", Hooks{})

	assert.NotEmpty(t, result.Error)
}

func TestEvaluateStateDoesNotLeakBetweenRuns(t *testing.T) {
	e := New(0)
	first := e.Evaluate(context.Background(), "var leak = 41", Hooks{})
	assert.Empty(t, first.Error)

	second := e.Evaluate(context.Background(), "console.log(typeof leak)", Hooks{})
	assert.Equal(t, []string{"undefined"}, second.Output)
}

func TestRunRejectsUnsupportedLanguage(t *testing.T) {
	e := New(0)
	_, err := e.Run(context.Background(), "print(1)", "python")
	assert.Error(t, err)

	result, err := e.Run(context.Background(), "console.log(1)", "JavaScript")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, result.Output)
}

func TestCleanSourceScriptTags(t *testing.T) {
	cleaned, notes := CleanSource(`<script>console.log("hi")</script>`)

	assert.Equal(t, `console.log("hi")`, cleaned)
	require.Len(t, notes, 1)
	assert.Equal(t, "Note: removed script tags from submitted code", notes[0])
}

func TestCleanSourceLanguageMarker(t *testing.T) {
	cleaned, notes := CleanSource("javascript\nconsole.log(1)")

	assert.Equal(t, "console.log(1)", cleaned)
	require.Len(t, notes, 1)
	assert.Equal(t, "Note: removed leading language marker from submitted code", notes[0])
}

func TestCleanSourcePlainCodeUntouched(t *testing.T) {
	cleaned, notes := CleanSource("console.log(1)")

	assert.Equal(t, "console.log(1)", cleaned)
	assert.Empty(t, notes)
}

func TestEvaluateEmitsCleanupNotes(t *testing.T) {
	e := New(0)
	result := e.Evaluate(context.Background(), "<script>console.log(7)</script>", Hooks{})

	require.Len(t, result.Output, 2)
	assert.Equal(t, "Note: removed script tags from submitted code", result.Output[0])
	assert.Equal(t, "7", result.Output[1])
}
