package formatter

import (
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/guard/internal/lints"
	tt "github.com/gnoswap-labs/guard/internal/types"
)

func init() {
	color.NoColor = true
}

var sample = &SourceCode{
	Lines: []string{
		"package main",
		"",
		`import "github.com/gnoswap-labs/guard"`,
		"",
		"func f(cond bool) (res guard.Option[int]) {",
		"\tguard.Guard(true)",
		"\tguard.Verify(cond)",
		"\treturn guard.Some(1)",
		"}",
	},
}

func TestGenerateFormattedIssue(t *testing.T) {
	issues := []tt.Issue{
		{
			Rule:       lints.RuleConstantPredicate,
			Filename:   "test.go",
			Start:      token.Position{Line: 6, Column: 2},
			End:        token.Position{Line: 6, Column: 19},
			Message:    "guard.Guard(true) always succeeds",
			Suggestion: "remove the check",
			Severity:   tt.SeverityWarning,
		},
		{
			Rule:     lints.RuleDiscardedVerify,
			Filename: "test.go",
			Start:    token.Position{Line: 7, Column: 2},
			End:      token.Position{Line: 7, Column: 20},
			Message:  "result of guard.Verify is discarded",
			Note:     "Verify never returns early",
			Severity: tt.SeverityInfo,
		},
	}

	expected := `warning: guard-constant-predicate
 --> test.go:6:2
  |
6 | guard.Guard(true)
  | ~~~~~~~~~~~~~~~~~
  = guard.Guard(true) always succeeds
Suggestion: remove the check

info: guard-discarded-verify
 --> test.go:7:2
  |
7 | guard.Verify(cond)
  | ~~~~~~~~~~~~~~~~~~
  = result of guard.Verify is discarded
Note: Verify never returns early

`

	assert.Equal(t, expected, GenerateFormattedIssue(issues, sample))
}

func TestGenerateFormattedIssue_Catch(t *testing.T) {
	issues := []tt.Issue{
		{
			Rule:     lints.RuleMissingCatch,
			Filename: "test.go",
			Start:    token.Position{Line: 6, Column: 2},
			End:      token.Position{Line: 6, Column: 19},
			Message:  "no catcher",
			Severity: tt.SeverityError,
		},
	}

	expected := `error: guard-missing-catch
 --> test.go:6:2
  |
6 | guard.Guard(true)
  | ~~~~~~~~~~~~~~~~~
  = no catcher
  = a guarded function looks like:
  |     func f() (res guard.Option[T]) {
  |         defer guard.Catch(&res)
  |         guard.Guard(cond)
  |         ...

`

	assert.Equal(t, expected, GenerateFormattedIssue(issues, sample))
}

func TestGenerateFormattedIssue_MultiLine(t *testing.T) {
	issues := []tt.Issue{
		{
			Rule:     lints.RuleCatchOrder,
			Filename: "test.go",
			Start:    token.Position{Line: 5, Column: 1},
			End:      token.Position{Line: 9, Column: 2},
			Message:  "late catcher",
			Severity: tt.SeverityWarning,
		},
	}

	out := GenerateFormattedIssue(issues, sample)
	assert.Contains(t, out, "5 | func f(cond bool) (res guard.Option[int]) {\n")
	assert.Contains(t, out, "6 | \tguard.Guard(true)\n")
	assert.Contains(t, out, "9 | }\n")
	assert.Contains(t, out, "  | ~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~~\n")
}

func TestGenerateFormattedIssue_OutOfRange(t *testing.T) {
	issues := []tt.Issue{
		{
			Rule:     lints.RuleCatchOrder,
			Filename: "test.go",
			Start:    token.Position{Line: 40, Column: 1},
			End:      token.Position{Line: 41, Column: 1},
			Message:  "stale position",
			Severity: tt.SeverityWarning,
		},
	}

	expected := `warning: guard-catch-order
  --> test.go:40:1
   = stale position

`
	assert.Equal(t, expected, GenerateFormattedIssue(issues, sample))
}

func TestVisualColumn(t *testing.T) {
	tests := []struct {
		line     string
		column   int
		expected int
	}{
		{"abc", 1, 0},
		{"abc", 3, 2},
		{"\tabc", 2, 8},
		{"a\tb", 3, 8},
		{"abc", 10, 3},
		{"abc", 0, 0},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, visualColumn(tc.line, tc.column), "%q col %d", tc.line, tc.column)
	}
}

func TestFindCommonIndent(t *testing.T) {
	assert.Equal(t, "\t", findCommonIndent([]string{"\t\tx", "", "\ty"}))
	assert.Equal(t, "", findCommonIndent([]string{"x", "\ty"}))
	assert.Equal(t, "", findCommonIndent(nil))
}

func TestReadSourceCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.go")
	require.NoError(t, os.WriteFile(path, []byte("package a\n\nfunc f() {}\n"), 0o644))

	src, err := ReadSourceCode(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"package a", "", "func f() {}", ""}, src.Lines)

	_, err = ReadSourceCode(filepath.Join(t.TempDir(), "missing.go"))
	assert.Error(t, err)
}
