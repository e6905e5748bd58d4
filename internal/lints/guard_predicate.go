package lints

import (
	"fmt"
	"go/ast"
	"go/token"

	"github.com/gnoswap-labs/guard/internal/guardast"
	tt "github.com/gnoswap-labs/guard/internal/types"
)

var predicateFuncs = map[string]bool{
	"Guard":        true,
	"Verify":       true,
	"VerifyResult": true,
	"VerifyErr":    true,
	"VerifyWith":   true,
}

func (gc *GuardChecker) checkConstantPredicate(f *guardast.Func) {
	calls := append(append([]guardast.Call{}, f.Propagations...), f.Verifications...)

	for _, c := range calls {
		if !predicateFuncs[c.Name] || len(c.Expr.Args) == 0 {
			continue
		}

		value, ok := constantBool(c.Expr.Args[0])
		if !ok {
			continue
		}

		msg := fmt.Sprintf("%s(%s) always succeeds", c, value)
		if value == "false" {
			msg = fmt.Sprintf("%s(%s) always fails", c, value)
		}
		gc.addIssue(RuleConstantPredicate, c.Expr.Pos(), c.Expr.End(), msg,
			"remove the check or replace the literal with the intended condition")
	}
}

func (gc *GuardChecker) checkDiscardedVerify(f *guardast.Func) {
	for _, c := range f.Discarded {
		gc.addIssue(RuleDiscardedVerify, c.Expr.Pos(), c.Expr.End(),
			fmt.Sprintf("result of %s is discarded, so the check has no effect", c),
			fmt.Sprintf("use %s.Guard to return early, or propagate the value with %s.Try", c.Pkg, c.Pkg))
	}
}

// constantBool matches the predeclared true and false, possibly
// parenthesised.
func constantBool(expr ast.Expr) (string, bool) {
	ident, ok := guardast.Unparen(expr).(*ast.Ident)
	if !ok || (ident.Name != "true" && ident.Name != "false") {
		return "", false
	}
	return ident.Name, true
}

func DetectConstantPredicate(filename string, node *ast.File, fset *token.FileSet, pkgs []string, severity tt.Severity) ([]tt.Issue, error) {
	gc := NewGuardChecker(filename, fset, pkgs, severity)
	return gc.check(node, gc.checkConstantPredicate), nil
}

func DetectDiscardedVerify(filename string, node *ast.File, fset *token.FileSet, pkgs []string, severity tt.Severity) ([]tt.Issue, error) {
	gc := NewGuardChecker(filename, fset, pkgs, severity)
	return gc.check(node, gc.checkDiscardedVerify), nil
}
