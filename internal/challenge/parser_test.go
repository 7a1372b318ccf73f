package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jononovo/codementor/internal/domain"
)

func TestParseTestsEmpty(t *testing.T) {
	assert.Empty(t, ParseTests(""))
	assert.Empty(t, ParseTests("\n\n   \n"))
}

func TestParseTestsFullRow(t *testing.T) {
	tests := ParseTests("Has function|Checks func exists|function\\s+foo|regex")

	require.Len(t, tests, 1)
	tc := tests[0]
	assert.Equal(t, 1, tc.ID)
	assert.Equal(t, "Has function", tc.Name)
	assert.Equal(t, "Checks func exists", tc.Description)
	assert.Equal(t, `function\s+foo`, tc.Validation)
	assert.Equal(t, domain.TestKindPattern, tc.Kind)
}

func TestParseTestsPredicateMarker(t *testing.T) {
	tests := ParseTests("Logs twice|Counts output|return consoleOutput.length >= 2|predicate")

	require.Len(t, tests, 1)
	assert.Equal(t, domain.TestKindPredicate, tests[0].Kind)
}

func TestParseTestsUnknownKindIsPattern(t *testing.T) {
	tests := ParseTests("A|B|C|something-else")

	require.Len(t, tests, 1)
	assert.Equal(t, domain.TestKindPattern, tests[0].Kind)
}

func TestParseTestsDefaults(t *testing.T) {
	tests := ParseTests("|only description here")

	require.Len(t, tests, 1)
	assert.Equal(t, "Test 1", tests[0].Name)
	assert.Equal(t, "only description here", tests[0].Description)
	assert.Equal(t, "", tests[0].Validation)
}

func TestParseTestsShortRowKeepsName(t *testing.T) {
	tests := ParseTests("Named but incomplete")

	require.Len(t, tests, 1)
	assert.Equal(t, "Named but incomplete", tests[0].Name)
	assert.Equal(t, "", tests[0].Validation)
	assert.Equal(t, domain.TestKindPattern, tests[0].Kind)
}

func TestParseTestsMultipleLines(t *testing.T) {
	text := "First|a|foo\n\nSecond|b|bar|predicate\n  Third | c | baz  \n"
	tests := ParseTests(text)

	require.Len(t, tests, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{tests[0].ID, tests[1].ID, tests[2].ID})
	assert.Equal(t, "Second", tests[1].Name)
	assert.Equal(t, domain.TestKindPredicate, tests[1].Kind)
	assert.Equal(t, "Third", tests[2].Name)
	assert.Equal(t, "baz", tests[2].Validation)
}
