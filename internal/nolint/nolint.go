// Package nolint honours //nolint directives in linted files.
//
// A directive may name rules or categories after a colon
// (//nolint:guard-missing-catch,guard) and may carry an explanation after a
// second comment marker. Without names it silences every rule.
//
// Its reach depends on where it is written:
//   - above the package clause: the whole file
//   - after code on the same line: that statement
//   - on the line before a statement or declaration: that node
//   - anywhere else: its own line
package nolint

import (
	"errors"
	"go/ast"
	"go/token"
	"strings"
)

const directive = "//nolint"

var errNotDirective = errors.New("not a nolint directive")

type span struct {
	names    map[string]bool // empty: every rule
	from, to int             // line range, inclusive
}

func (s span) covers(line int, rule, category string) bool {
	if line < s.from || line > s.to {
		return false
	}
	return len(s.names) == 0 || s.names[rule] || (category != "" && s.names[category])
}

// Manager answers whether an issue is silenced.
type Manager struct {
	spans map[string][]span // by filename
}

// ParseComments collects the directives of one file. Malformed directives
// are ignored.
func ParseComments(f *ast.File, fset *token.FileSet) *Manager {
	m := &Manager{spans: make(map[string][]span)}
	nodes := nodesByLine(f, fset)
	packageLine := fset.Position(f.Package).Line

	for _, group := range f.Comments {
		for _, c := range group.List {
			names, err := parseDirective(c.Text)
			if err != nil {
				continue
			}

			pos := fset.Position(c.Slash)
			s := span{names: names, from: pos.Line, to: pos.Line}

			switch {
			case pos.Line < packageLine:
				s.from, s.to = 1, fset.Position(f.End()).Line
			case nodes[pos.Line] != nil && fset.Position(nodes[pos.Line].Pos()).Offset < pos.Offset:
				node := nodes[pos.Line]
				s.to = fset.Position(node.End()).Line
			case nodes[pos.Line+1] != nil:
				s.to = fset.Position(nodes[pos.Line+1].End()).Line
			}

			m.spans[pos.Filename] = append(m.spans[pos.Filename], s)
		}
	}
	return m
}

// parseDirective returns the names listed by a nolint comment.
func parseDirective(text string) (map[string]bool, error) {
	rest, ok := strings.CutPrefix(text, directive)
	if !ok {
		return nil, errNotDirective
	}
	if i := strings.Index(rest, "//"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimRight(rest, " \t")

	names := make(map[string]bool)
	if rest == "" {
		return names, nil
	}
	if rest[0] != ':' {
		return nil, errNotDirective
	}

	for _, name := range strings.Split(rest[1:], ",") {
		if name = strings.TrimSpace(name); name != "" {
			names[name] = true
		}
	}
	if len(names) == 0 {
		return nil, errors.New("nolint directive lists no rules")
	}
	return names, nil
}

// nodesByLine maps a line to the first statement or top-level declaration
// starting on it.
func nodesByLine(f *ast.File, fset *token.FileSet) map[int]ast.Node {
	nodes := make(map[int]ast.Node)
	record := func(n ast.Node) {
		line := fset.Position(n.Pos()).Line
		if _, ok := nodes[line]; !ok {
			nodes[line] = n
		}
	}

	for _, decl := range f.Decls {
		record(decl)
	}
	ast.Inspect(f, func(n ast.Node) bool {
		if stmt, ok := n.(ast.Stmt); ok {
			record(stmt)
		}
		return true
	})
	return nodes
}

// IsNolint reports whether rule, or its category, is silenced at pos.
func (m *Manager) IsNolint(pos token.Position, rule, category string) bool {
	for _, s := range m.spans[pos.Filename] {
		if s.covers(pos.Line, rule, category) {
			return true
		}
	}
	return false
}
