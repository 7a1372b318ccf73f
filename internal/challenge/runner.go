package challenge

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/dop251/goja"

	"github.com/jononovo/codementor/internal/domain"
	"github.com/jononovo/codementor/internal/sandbox"
)

// Verdict messages. The "Error running test:" prefix is part of the contract:
// the UI highlights those rows as broken tests rather than failed submissions.
const (
	msgPassed    = "Test passed!"
	msgFailed    = "Test failed"
	errMsgPrefix = "Error running test: "
)

// testTimeout bounds a single pattern match or predicate invocation.
// Catastrophic regex backtracking and looping predicates degrade to a failed
// test instead of stalling the suite.
const testTimeout = time.Second

// RunTests applies every test case to the submitted code and the console
// output of its most recent run, producing one result per case in input
// order. A run is a pure mapping, nothing is retained between calls, and a
// single broken test never aborts the remaining ones.
func RunTests(code string, tests []domain.TestCase, consoleOutput []string) []domain.TestResult {
	cleaned, _ := sandbox.CleanSource(code)

	results := make([]domain.TestResult, 0, len(tests))
	for _, tc := range tests {
		passed, err := runOne(cleaned, tc, consoleOutput)

		message := msgFailed
		switch {
		case err != nil:
			passed = false
			message = errMsgPrefix + err.Error()
		case passed:
			message = msgPassed
		}

		results = append(results, domain.TestResult{
			ID:      tc.ID,
			Name:    tc.Name,
			Passed:  passed,
			Message: message,
		})
	}
	return results
}

func runOne(code string, tc domain.TestCase, consoleOutput []string) (bool, error) {
	if tc.Validation == "" {
		return false, nil
	}
	if tc.Kind == domain.TestKindPredicate {
		return runPredicate(code, tc.Validation, consoleOutput)
	}
	return runPattern(code, tc.Validation)
}

// runPattern matches the validation as an ECMAScript-flavored regular
// expression anywhere in the cleaned source. Authors write these tests
// against JavaScript regex semantics, so the matcher follows suit.
func runPattern(code, validation string) (bool, error) {
	re, err := regexp2.Compile(validation, regexp2.ECMAScript)
	if err != nil {
		return false, err
	}
	re.MatchTimeout = testTimeout
	return re.MatchString(code)
}

// runPredicate compiles the validation as the body of a two-parameter
// function (code, consoleOutput) and returns the truthiness of its result.
// Each predicate gets a fresh VM with an interrupt timer, so predicates
// cannot observe each other or hang the runner.
func runPredicate(code, validation string, consoleOutput []string) (bool, error) {
	vm := goja.New()

	timer := time.AfterFunc(testTimeout, func() {
		vm.Interrupt(fmt.Sprintf("predicate timed out after %s", testTimeout))
	})
	defer timer.Stop()

	fnVal, err := vm.RunString("(function(code, consoleOutput) {\n" + validation + "\n})")
	if err != nil {
		return false, err
	}

	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return false, fmt.Errorf("validation did not compile to a function")
	}

	if consoleOutput == nil {
		consoleOutput = []string{}
	}
	res, err := fn(goja.Undefined(), vm.ToValue(code), vm.ToValue(consoleOutput))
	if err != nil {
		return false, err
	}
	return res.ToBoolean(), nil
}

// AllPassed reports overall success: true iff there is at least one result
// and every result passed.
func AllPassed(results []domain.TestResult) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
