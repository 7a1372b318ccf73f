// Package challenge turns a slide's pipe-delimited test block into structured
// test cases and applies them to a code submission.
package challenge

import (
	"fmt"
	"strings"

	"github.com/jononovo/codementor/internal/domain"
)

// predicateMarker is the 4th-field value that selects a predicate test.
// Any other value (including a missing field) selects a pattern test.
const predicateMarker = "predicate"

// ParseTests parses free-form text where each non-blank line is
//
//	name | description | validation | kind
//
// into an ordered sequence of test cases. Fields are trimmed, blank lines are
// skipped, and ids are assigned 1-based in line order. Missing fields default:
// the name falls back to "Test {n}", description and validation to the empty
// string. A row with fewer fields than expected keeps whatever it does carry,
// so a short row with a name still shows that name in its verdict. Malformed
// rows never raise; a row without a validation simply becomes a test that
// cannot pass.
func ParseTests(text string) []domain.TestCase {
	var tests []domain.TestCase

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "|")
		field := func(i int) string {
			if i < len(fields) {
				return strings.TrimSpace(fields[i])
			}
			return ""
		}

		id := len(tests) + 1
		name := field(0)
		if name == "" {
			name = fmt.Sprintf("Test %d", id)
		}

		kind := domain.TestKindPattern
		if field(3) == predicateMarker {
			kind = domain.TestKindPredicate
		}

		tests = append(tests, domain.TestCase{
			ID:          id,
			Name:        name,
			Description: field(1),
			Validation:  field(2),
			Kind:        kind,
		})
	}

	return tests
}
