package internal

import (
	"errors"
	"go/ast"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gnoswap-labs/guard/internal/lints"
	tt "github.com/gnoswap-labs/guard/internal/types"
)

// createTempFile writes content to name inside a fresh temporary directory.
func createTempFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleSource = `package main

import "github.com/gnoswap-labs/guard"

func half(n int) guard.Option[int] {
	guard.Guard(n%2 == 0)
	return guard.Some(n / 2)
}

func check(ok bool) (res guard.Option[int]) {
	guard.Guard(true)
	defer guard.Catch(&res)
	guard.Verify(ok)
	return guard.Some(1)
}
`

func rulesOf(issues []tt.Issue) []string {
	rules := make([]string, 0, len(issues))
	for _, issue := range issues {
		rules = append(rules, issue.Rule)
	}
	return rules
}

func TestEngine_Run(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(nil, nil)
	require.NoError(t, err)

	path := createTempFile(t, "sample.go", sampleSource)
	issues, err := engine.Run(path)
	require.NoError(t, err)

	assert.Equal(t, []string{
		lints.RuleMissingCatch,
		lints.RuleConstantPredicate,
		lints.RuleCatchOrder,
		lints.RuleDiscardedVerify,
	}, rulesOf(issues))

	assert.Equal(t, path, issues[0].Filename)
	assert.Equal(t, tt.SeverityError, issues[0].Severity)
	assert.Equal(t, tt.SeverityWarning, issues[1].Severity)
}

func TestEngine_RunSource(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(nil, nil)
	require.NoError(t, err)

	issues, err := engine.RunSource([]byte(sampleSource))
	require.NoError(t, err)
	assert.Len(t, issues, 4)

	_, err = engine.RunSource([]byte("package main\nfunc {"))
	assert.Error(t, err)
}

func TestEngine_ConfiguredSeverity(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(nil, map[string]tt.ConfigRule{
		lints.RuleMissingCatch:      {Severity: tt.SeverityWarning},
		lints.RuleConstantPredicate: {Severity: tt.SeverityOff},
		lints.RuleDiscardedVerify:   {Severity: tt.SeverityInfo},
	})
	require.NoError(t, err)

	issues, err := engine.RunSource([]byte(sampleSource))
	require.NoError(t, err)
	require.Len(t, issues, 3)

	assert.Equal(t, lints.RuleMissingCatch, issues[0].Rule)
	assert.Equal(t, tt.SeverityWarning, issues[0].Severity)
	assert.Equal(t, lints.RuleDiscardedVerify, issues[2].Rule)
	assert.Equal(t, tt.SeverityInfo, issues[2].Severity)
}

func TestEngine_UnknownRule(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(nil, map[string]tt.ConfigRule{
		"no-such-rule": {Severity: tt.SeverityError},
	})
	assert.ErrorContains(t, err, "no-such-rule")
}

func TestEngine_IgnoreRule(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(nil, nil)
	require.NoError(t, err)
	engine.IgnoreRule(lints.RuleMissingCatch)
	engine.IgnoreRule(lints.RuleCatchOrder)

	issues, err := engine.RunSource([]byte(sampleSource))
	require.NoError(t, err)
	assert.Equal(t, []string{lints.RuleConstantPredicate, lints.RuleDiscardedVerify}, rulesOf(issues))
}

type failingRule struct {
	LintRule
}

func (failingRule) Check(string, *ast.File, *token.FileSet) ([]tt.Issue, error) {
	return nil, errors.New("rule exploded")
}

func (failingRule) Name() string { return "failing" }

func TestEngine_RuleErrorIsLogged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	engine, err := NewEngine(nil, nil)
	require.NoError(t, err)
	engine.SetLogger(zap.New(core))
	engine.rules["failing"] = failingRule{}

	issues, err := engine.RunSource([]byte(sampleSource))
	require.NoError(t, err)
	assert.Len(t, issues, 4)

	entries := logs.FilterMessage("Rule failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, "failing", entries[0].ContextMap()["rule"])
	assert.Equal(t, "rule exploded", entries[0].ContextMap()["error"])
}

func TestEngine_Nolint(t *testing.T) {
	t.Parallel()

	src := `package main

import "github.com/gnoswap-labs/guard"

//nolint:guard-missing-catch
func half(n int) guard.Option[int] {
	guard.Guard(n%2 == 0)
	return guard.Some(n / 2)
}

func third(n int) guard.Option[int] {
	guard.Guard(n%3 == 0) //nolint:guard
	return guard.Some(n / 3)
}

func quarter(n int) guard.Option[int] {
	guard.Guard(n%4 == 0)
	return guard.Some(n / 4)
}
`
	engine, err := NewEngine(nil, nil)
	require.NoError(t, err)

	issues, err := engine.RunSource([]byte(src))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 17, issues[0].Start.Line)
}

func TestEngine_Packages(t *testing.T) {
	t.Parallel()

	src := `package main

import "example.com/checks"

func f(ok bool) {
	checks.Guard(ok)
}
`
	engine, err := NewEngine([]string{"example.com/checks"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com/checks"}, engine.Packages())

	issues, err := engine.RunSource([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{lints.RuleMissingCatch}, rulesOf(issues))
}

func TestEngine_ShouldIgnore(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(nil, nil)
	require.NoError(t, err)
	engine.IgnorePath("vendor")
	engine.IgnorePath("*_gen.go")
	engine.IgnorePath("internal/legacy/*.go")

	tests := []struct {
		path     string
		expected bool
	}{
		{"vendor", true},
		{"vendor/example.com/x/x.go", true},
		{"vendors/x.go", false},
		{"pkg/types_gen.go", true},
		{"internal/legacy/old.go", true},
		{"internal/legacy/sub/old.go", false},
		{"main.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, engine.ShouldIgnore(tt.path))
		})
	}
}

func TestDefaultRules(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	assert.Len(t, rules, len(RuleNames()))
	assert.Equal(t, tt.SeverityError, rules[lints.RuleMissingCatch].Severity)
	assert.Equal(t, tt.SeverityWarning, rules[lints.RuleCatchOrder].Severity)
	assert.Equal(t, tt.SeverityError, rules[lints.RuleRecoverAfterCatch].Severity)
	assert.IsIncreasing(t, RuleNames())
}
