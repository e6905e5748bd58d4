package internal

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/gnoswap-labs/guard/internal/lints"
	"github.com/gnoswap-labs/guard/internal/nolint"
	tt "github.com/gnoswap-labs/guard/internal/types"
)

// Engine manages the linting process.
type Engine struct {
	ignoredRules map[string]bool
	ignoredPaths []string
	packages     []string
	rules        map[string]LintRule
	logger       *zap.Logger
}

// NewEngine creates a new lint engine. pkgs are import paths treated as
// the guard package besides the default one; rules overrides the default
// severities.
func NewEngine(pkgs []string, rules map[string]tt.ConfigRule) (*Engine, error) {
	engine := &Engine{packages: pkgs, logger: zap.NewNop()}
	if err := engine.applyRules(rules); err != nil {
		return nil, err
	}

	return engine, nil
}

type ruleConstructor func(pkgs []string) LintRule

type ruleMap map[string]ruleConstructor

var allRuleConstructors = ruleMap{
	lints.RuleMissingCatch:      NewMissingCatchRule,
	lints.RuleCatchNotDeferred:  NewCatchNotDeferredRule,
	lints.RuleCatchTarget:       NewCatchTargetRule,
	lints.RuleCatchOrder:        NewCatchOrderRule,
	lints.RuleRecoverAfterCatch: NewRecoverAfterCatchRule,
	lints.RuleConstantPredicate: NewConstantPredicateRule,
	lints.RuleDiscardedVerify:   NewDiscardedVerifyRule,
}

// RuleNames lists every known rule, sorted.
func RuleNames() []string {
	names := make([]string, 0, len(allRuleConstructors))
	for name := range allRuleConstructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRules returns every rule with its default severity.
func DefaultRules() map[string]tt.ConfigRule {
	rules := make(map[string]tt.ConfigRule, len(allRuleConstructors))
	for name, newRule := range allRuleConstructors {
		rules[name] = tt.ConfigRule{Severity: newRule(nil).Severity()}
	}
	return rules
}

func (e *Engine) applyRules(rules map[string]tt.ConfigRule) error {
	e.rules = make(map[string]LintRule, len(allRuleConstructors))
	for name, newRule := range allRuleConstructors {
		e.rules[name] = newRule(e.packages)
	}

	for name, rule := range rules {
		r, ok := e.rules[name]
		if !ok {
			return fmt.Errorf("unknown rule %q", name)
		}
		if rule.Severity == tt.SeverityOff {
			e.IgnoreRule(name)
			continue
		}
		r.SetSeverity(rule.Severity)
	}
	return nil
}

// Run applies all lint rules to the given file and returns its issues
// sorted by position.
func (e *Engine) Run(filename string) ([]tt.Issue, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("error parsing file: %w", err)
	}

	return e.check(filename, node, fset), nil
}

// RunSource applies all lint rules to the given source.
func (e *Engine) RunSource(source []byte) ([]tt.Issue, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, "", source, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("error parsing content: %w", err)
	}

	return e.check("", node, fset), nil
}

func (e *Engine) check(filename string, node *ast.File, fset *token.FileSet) []tt.Issue {
	nolintMgr := nolint.ParseComments(node, fset)

	var wg sync.WaitGroup
	var mu sync.Mutex

	var allIssues []tt.Issue
	for _, rule := range e.rules {
		if e.ignoredRules[rule.Name()] {
			continue
		}

		wg.Add(1)
		go func(r LintRule) {
			defer wg.Done()

			issues, err := r.Check(filename, node, fset)
			if err != nil {
				e.logger.Debug("Rule failed", zap.String("rule", r.Name()), zap.String("file", filename), zap.Error(err))
				return
			}
			issues = filterNolintIssues(nolintMgr, issues)

			mu.Lock()
			allIssues = append(allIssues, issues...)
			mu.Unlock()
		}(rule)
	}
	wg.Wait()

	sort.SliceStable(allIssues, func(i, j int) bool {
		a, b := allIssues[i].Start, allIssues[j].Start
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return allIssues[i].Rule < allIssues[j].Rule
	})
	return allIssues
}

// SetLogger replaces the engine's logger. A nil logger discards output.
func (e *Engine) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e.logger = logger
}

func (e *Engine) IgnoreRule(rule string) {
	if e.ignoredRules == nil {
		e.ignoredRules = make(map[string]bool)
	}
	e.ignoredRules[rule] = true
}

// IgnorePath excludes files matching a glob pattern, or lying under a
// directory, from linting.
func (e *Engine) IgnorePath(path string) {
	e.ignoredPaths = append(e.ignoredPaths, filepath.Clean(path))
}

// ShouldIgnore reports whether path was excluded by IgnorePath.
func (e *Engine) ShouldIgnore(path string) bool {
	path = filepath.Clean(path)
	for _, pattern := range e.ignoredPaths {
		if path == pattern || strings.HasPrefix(path, pattern+string(filepath.Separator)) {
			return true
		}
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

// Packages returns the extra guard import paths the engine recognises.
func (e *Engine) Packages() []string {
	return e.packages
}

func filterNolintIssues(m *nolint.Manager, issues []tt.Issue) []tt.Issue {
	filtered := make([]tt.Issue, 0, len(issues))
	for _, issue := range issues {
		pos := token.Position{
			Filename: issue.Start.Filename,
			Line:     issue.Start.Line,
		}
		if !m.IsNolint(pos, issue.Rule, issue.Category) {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}
