package lints

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/gnoswap-labs/guard/internal/guardast"
	tt "github.com/gnoswap-labs/guard/internal/types"
)

// Rule names.
const (
	RuleMissingCatch      = "guard-missing-catch"
	RuleCatchNotDeferred  = "guard-catch-not-deferred"
	RuleCatchTarget       = "guard-catch-target"
	RuleCatchOrder        = "guard-catch-order"
	RuleRecoverAfterCatch = "guard-recover-after-catch"
	RuleConstantPredicate = "guard-constant-predicate"
	RuleDiscardedVerify   = "guard-discarded-verify"
)

const guardCategory = "guard"

// GuardChecker reports guard calls whose enclosing function cannot turn a
// failure into a return value.
type GuardChecker struct {
	fset     *token.FileSet
	filename string
	pkgs     []string
	severity tt.Severity
	issues   []tt.Issue
}

// NewGuardChecker returns a checker recognising the default guard package
// plus pkgs.
func NewGuardChecker(filename string, fset *token.FileSet, pkgs []string, severity tt.Severity) *GuardChecker {
	return &GuardChecker{
		filename: filename,
		fset:     fset,
		pkgs:     pkgs,
		severity: severity,
	}
}

func (gc *GuardChecker) checkMissingCatch(f *guardast.Func) {
	if len(f.Catches) > 0 {
		return
	}
	for _, p := range f.Propagations {
		gc.addIssue(RuleMissingCatch, p.Expr.Pos(), p.Expr.End(),
			fmt.Sprintf("%s returns early through its caller, but the enclosing function defers no catcher", p),
			fmt.Sprintf("name the result and add `defer %s.Catch(&res)` (or CatchErr/CatchOK) at the top of the function", p.Pkg))
	}
}

func (gc *GuardChecker) checkCatchNotDeferred(f *guardast.Func) {
	for _, c := range f.Stray {
		gc.addIssue(RuleCatchNotDeferred, c.Expr.Pos(), c.Expr.End(),
			fmt.Sprintf("%s only intercepts failures when it is the deferred call itself", c),
			fmt.Sprintf("write `defer %s(...)` in the guarded function, not inside a closure or a plain call", c))
	}
}

func (gc *GuardChecker) checkCatchTarget(f *guardast.Func) {
	results := f.NamedResults()
	for _, site := range f.Catches {
		call := site.Call.Expr
		if len(call.Args) != 1 {
			continue
		}

		name, ok := site.Target()
		if ok && results[name] {
			continue
		}

		msg := fmt.Sprintf("%s must receive the address of a named result", site.Call)
		if ok {
			msg = fmt.Sprintf("%s stores the failure into %q, which is not a named result, so the function still returns its old value", site.Call, name)
		}
		gc.addIssue(RuleCatchTarget, call.Pos(), call.End(), msg,
			"name the function's result and pass its address")
	}
}

func (gc *GuardChecker) checkCatchOrder(f *guardast.Func) {
	first := f.FirstPropagation()
	if len(f.Catches) == 0 || first == token.NoPos {
		return
	}

	for _, site := range f.Catches {
		switch {
		case !site.TopLevel:
			gc.addIssue(RuleCatchOrder, site.Stmt.Pos(), site.Stmt.End(),
				fmt.Sprintf("%s is deferred inside a nested block; a failure on a path that skips it escapes the function", site.Call),
				"move the defer to the first statement of the function body")
		case site.Stmt.Pos() > first:
			gc.addIssue(RuleCatchOrder, site.Stmt.Pos(), site.Stmt.End(),
				fmt.Sprintf("%s is deferred after the first propagating call at line %d", site.Call, gc.fset.Position(first).Line),
				"move the defer to the first statement of the function body")
		}
	}
}

// checkRecoverAfterCatch reports recovering defers that run ahead of a
// catcher. Deferred calls run last-in first-out, so such a defer swallows
// the failure and the function returns its current result instead.
func (gc *GuardChecker) checkRecoverAfterCatch(f *guardast.Func) {
	for _, site := range f.Catches {
		for _, d := range f.DefersAfter(site.Stmt.Pos()) {
			if !guardast.Recovers(d) {
				continue
			}
			gc.addIssue(RuleRecoverAfterCatch, d.Pos(), d.End(),
				fmt.Sprintf("this deferred recover runs before %s and swallows a guard failure, so the function returns its current result", site.Call),
				fmt.Sprintf("defer the recovering function before %s", site.Call))
		}
	}
}

func (gc *GuardChecker) addIssue(rule string, start, end token.Pos, message, suggestion string) {
	gc.issues = append(gc.issues, tt.Issue{
		Rule:       rule,
		Category:   guardCategory,
		Filename:   gc.filename,
		Start:      gc.fset.Position(start),
		End:        gc.fset.Position(end),
		Message:    message,
		Suggestion: suggestion,
		Severity:   gc.severity,
	})
}

// check runs one rule over every guarded function of the file.
func (gc *GuardChecker) check(node *ast.File, rule func(*guardast.Func)) []tt.Issue {
	gc.issues = nil
	for _, f := range guardast.Scan(node, gc.pkgs) {
		rule(f)
	}
	return gc.issues
}

func DetectMissingCatch(filename string, node *ast.File, fset *token.FileSet, pkgs []string, severity tt.Severity) ([]tt.Issue, error) {
	gc := NewGuardChecker(filename, fset, pkgs, severity)
	return gc.check(node, gc.checkMissingCatch), nil
}

func DetectCatchNotDeferred(filename string, node *ast.File, fset *token.FileSet, pkgs []string, severity tt.Severity) ([]tt.Issue, error) {
	gc := NewGuardChecker(filename, fset, pkgs, severity)
	return gc.check(node, gc.checkCatchNotDeferred), nil
}

func DetectCatchTarget(filename string, node *ast.File, fset *token.FileSet, pkgs []string, severity tt.Severity) ([]tt.Issue, error) {
	gc := NewGuardChecker(filename, fset, pkgs, severity)
	return gc.check(node, gc.checkCatchTarget), nil
}

func DetectRecoverAfterCatch(filename string, node *ast.File, fset *token.FileSet, pkgs []string, severity tt.Severity) ([]tt.Issue, error) {
	gc := NewGuardChecker(filename, fset, pkgs, severity)
	return gc.check(node, gc.checkRecoverAfterCatch), nil
}

func DetectCatchOrder(filename string, node *ast.File, fset *token.FileSet, pkgs []string, severity tt.Severity) ([]tt.Issue, error) {
	gc := NewGuardChecker(filename, fset, pkgs, severity)
	return gc.check(node, gc.checkCatchOrder), nil
}
