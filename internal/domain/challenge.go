package domain

// TestKind distinguishes the two validation styles a challenge test can use.
type TestKind string

const (
	// TestKindPattern validates by matching a regular expression against the
	// submitted source text.
	TestKindPattern TestKind = "pattern"

	// TestKindPredicate validates by running the test's code body as a
	// (code, consoleOutput) -> boolean function.
	TestKindPredicate TestKind = "predicate"
)

// TestCase is one validation rule attached to a challenge slide.
// Validation holds either a regular-expression source (pattern) or the body
// of a two-argument predicate function (predicate). IDs are unique within
// one slide's test block.
type TestCase struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Validation  string   `json:"validation"`
	Kind        TestKind `json:"kind"`
}

// TestResult is the verdict for a single TestCase. Produced fresh on every
// run and never persisted.
type TestResult struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}
