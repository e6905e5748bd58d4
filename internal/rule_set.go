package internal

import (
	"go/ast"
	"go/token"

	"github.com/gnoswap-labs/guard/internal/lints"
	tt "github.com/gnoswap-labs/guard/internal/types"
)

// LintRule defines the interface for all lint rules.
type LintRule interface {
	// Check runs the lint rule on the given file and returns a slice of Issues.
	Check(filename string, node *ast.File, fset *token.FileSet) ([]tt.Issue, error)

	// Name returns the name of the lint rule.
	Name() string

	// Severity returns the severity of the lint rule.
	Severity() tt.Severity

	// SetSeverity sets the severity of the lint rule.
	SetSeverity(tt.Severity)
}

type detectFunc func(filename string, node *ast.File, fset *token.FileSet, pkgs []string, severity tt.Severity) ([]tt.Issue, error)

// guardRule adapts a guard detector to LintRule. pkgs are the import paths
// recognised besides the default guard package.
type guardRule struct {
	name     string
	detect   detectFunc
	severity tt.Severity
	pkgs     []string
}

func (r *guardRule) Check(filename string, node *ast.File, fset *token.FileSet) ([]tt.Issue, error) {
	return r.detect(filename, node, fset, r.pkgs, r.severity)
}

func (r *guardRule) Name() string {
	return r.name
}

func (r *guardRule) Severity() tt.Severity {
	return r.severity
}

func (r *guardRule) SetSeverity(severity tt.Severity) {
	r.severity = severity
}

func newRule(name string, detect detectFunc, severity tt.Severity) ruleConstructor {
	return func(pkgs []string) LintRule {
		return &guardRule{name: name, detect: detect, severity: severity, pkgs: pkgs}
	}
}

func NewMissingCatchRule(pkgs []string) LintRule {
	return newRule(lints.RuleMissingCatch, lints.DetectMissingCatch, tt.SeverityError)(pkgs)
}

func NewCatchNotDeferredRule(pkgs []string) LintRule {
	return newRule(lints.RuleCatchNotDeferred, lints.DetectCatchNotDeferred, tt.SeverityError)(pkgs)
}

func NewCatchTargetRule(pkgs []string) LintRule {
	return newRule(lints.RuleCatchTarget, lints.DetectCatchTarget, tt.SeverityError)(pkgs)
}

func NewCatchOrderRule(pkgs []string) LintRule {
	return newRule(lints.RuleCatchOrder, lints.DetectCatchOrder, tt.SeverityWarning)(pkgs)
}

func NewRecoverAfterCatchRule(pkgs []string) LintRule {
	return newRule(lints.RuleRecoverAfterCatch, lints.DetectRecoverAfterCatch, tt.SeverityError)(pkgs)
}

func NewConstantPredicateRule(pkgs []string) LintRule {
	return newRule(lints.RuleConstantPredicate, lints.DetectConstantPredicate, tt.SeverityWarning)(pkgs)
}

func NewDiscardedVerifyRule(pkgs []string) LintRule {
	return newRule(lints.RuleDiscardedVerify, lints.DetectDiscardedVerify, tt.SeverityWarning)(pkgs)
}
