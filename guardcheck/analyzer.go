// Package guardcheck reports guard calls that cannot return early from
// their function, as a go/analysis analyzer.
package guardcheck

import (
	"go/ast"
	"go/token"
	"strings"

	"golang.org/x/tools/go/analysis"

	"github.com/gnoswap-labs/guard/internal/lints"
	"github.com/gnoswap-labs/guard/internal/nolint"
	tt "github.com/gnoswap-labs/guard/internal/types"
)

const doc = `guardcheck checks uses of the guard package

A propagating call (guard.Guard, guard.Try and friends) only returns early
when the function making it defers a catcher over one of its named results:

	func half(n int) (res guard.Option[int]) {
		defer guard.Catch(&res)
		guard.Guard(n%2 == 0)
		return guard.Some(n / 2)
	}

guardcheck reports propagating calls without a catcher, catchers that are not
deferred directly, catchers over anything but a named result, catchers
deferred too late, recovering defers that run ahead of the catcher, constant
predicates and discarded Verify results.`

// Analyzer runs every guard rule.
var Analyzer = &analysis.Analyzer{
	Name: "guardcheck",
	Doc:  doc,
	Run:  run,
}

var extraPackages string

func init() {
	Analyzer.Flags.StringVar(&extraPackages, "packages", "", "comma-separated import paths to treat as the guard package")
}

type detector func(filename string, node *ast.File, fset *token.FileSet, pkgs []string, severity tt.Severity) ([]tt.Issue, error)

var detectors = []detector{
	lints.DetectMissingCatch,
	lints.DetectCatchNotDeferred,
	lints.DetectCatchTarget,
	lints.DetectCatchOrder,
	lints.DetectRecoverAfterCatch,
	lints.DetectConstantPredicate,
	lints.DetectDiscardedVerify,
}

func run(pass *analysis.Pass) (any, error) {
	pkgs := splitPackages(extraPackages)

	for _, file := range pass.Files {
		tf := pass.Fset.File(file.Pos())
		if tf == nil {
			continue
		}
		mgr := nolint.ParseComments(file, pass.Fset)

		for _, detect := range detectors {
			issues, err := detect(tf.Name(), file, pass.Fset, pkgs, tt.SeverityError)
			if err != nil {
				return nil, err
			}
			for _, issue := range issues {
				if mgr.IsNolint(issue.Start, issue.Rule, issue.Category) {
					continue
				}
				pass.Report(analysis.Diagnostic{
					Pos:      tf.Pos(issue.Start.Offset),
					End:      tf.Pos(issue.End.Offset),
					Category: issue.Rule,
					Message:  issue.Message,
				})
			}
		}
	}

	return nil, nil
}

func splitPackages(s string) []string {
	var pkgs []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			pkgs = append(pkgs, p)
		}
	}
	return pkgs
}
