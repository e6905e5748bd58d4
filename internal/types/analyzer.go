package types

import (
	"go/ast"
	"go/parser"
	"go/token"

	"golang.org/x/tools/go/analysis"
)

// RunAnalyzer runs the analyzer over a single source file and returns what
// it reported. The pass carries no type information, which is enough for
// analyzers working on syntax alone.
func RunAnalyzer(code string, analyzer *analysis.Analyzer) ([]Issue, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "test.go", code, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	var issues []Issue
	pass := &analysis.Pass{
		Analyzer: analyzer,
		Fset:     fset,
		Files:    []*ast.File{file},
		ResultOf: map[*analysis.Analyzer]any{},
		Report: func(d analysis.Diagnostic) {
			issues = append(issues, Issue{
				Rule:     d.Category,
				Message:  d.Message,
				Category: analyzer.Name,
				Start:    fset.Position(d.Pos),
				End:      fset.Position(d.End),
			})
		},
	}

	if _, err := analyzer.Run(pass); err != nil {
		return nil, err
	}

	return issues, nil
}
