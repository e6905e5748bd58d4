// Package expand rewrites guard statements into the explicit early return
// they stand for.
//
// In a function that defers a catcher for one of its named results, the
// statement
//
//	guard.Guard(cond)
//
// becomes
//
//	if !cond {
//		res.Fail(guard.ErrGuard)
//		return
//	}
//
// (err = guard.ErrGuard for CatchErr, ok = false for CatchOK). The
// catcher is dropped once no propagating call is left, and so is the
// import once nothing refers to it.
package expand

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"sort"

	"golang.org/x/tools/go/ast/astutil"

	"github.com/gnoswap-labs/guard/internal/guardast"
)

// Edit replaces the source between Pos and End with Text.
type Edit struct {
	Pos, End token.Pos
	Text     string

	guard bool
}

// Skip is a function whose guards were left in place.
type Skip struct {
	Pos    token.Position
	Reason string
}

// Plan is the set of edits for one file.
type Plan struct {
	Edits    []Edit
	Expanded int
	Skipped  []Skip
}

// guard-equivalent forms: Guard(c), and each Verify variant fed straight
// to its propagation operator.
var verifyFor = map[string]string{
	"Try":       "Verify",
	"TryResult": "VerifyResult",
	"TryErr":    "VerifyErr",
}

type planner struct {
	fset *token.FileSet
	src  []byte
	scan *guardast.Scanner
	plan *Plan
}

// File plans the expansion of every guarded function of node. src must be
// the text node was parsed from.
func File(fset *token.FileSet, node *ast.File, src []byte, pkgs []string) *Plan {
	p := &planner{
		fset: fset,
		src:  src,
		scan: guardast.NewScanner(node, pkgs),
		plan: &Plan{},
	}
	if p.scan.Empty() {
		return p.plan
	}

	ast.Inspect(node, func(n ast.Node) bool {
		switch fn := n.(type) {
		case *ast.FuncDecl:
			if fn.Body != nil {
				p.function(fn.Type, fn.Body)
			}
		case *ast.FuncLit:
			p.function(fn.Type, fn.Body)
		}
		return true
	})

	p.plan.Edits = dropOverlapping(p.plan.Edits)
	for _, e := range p.plan.Edits {
		if e.guard {
			p.plan.Expanded++
		}
	}
	return p.plan
}

func (p *planner) function(typ *ast.FuncType, body *ast.BlockStmt) {
	f := p.scan.ScanFunc(typ, body)
	if f == nil {
		return
	}

	stmts, listed := p.guardStmts(body)
	if !listed {
		p.skip(typ, "guard statement in an if, switch or for header cannot become an if block")
		return
	}
	if len(stmts) == 0 {
		return
	}

	site, reason := p.catcher(f)
	if reason != "" {
		p.skip(typ, reason)
		return
	}
	target, _ := site.Target()

	if len(f.DefersAfter(site.Stmt.Pos())) > 0 {
		p.skip(typ, "a call deferred after the catcher would see the failure before returning instead of after")
		return
	}

	if name, ok := redeclared(f); ok {
		p.skip(typ, fmt.Sprintf("result %q is redeclared inside the function, so a bare return is not allowed", name))
		return
	}

	for _, s := range stmts {
		p.plan.Edits = append(p.plan.Edits, Edit{
			Pos:   s.stmt.Pos(),
			End:   s.stmt.End(),
			Text:  p.expansion(s.cond, site.Call, target),
			guard: true,
		})
	}

	if len(f.Propagations) == len(stmts) {
		p.plan.Edits = append(p.plan.Edits, p.removeStmt(body, site.Stmt))
	}
}

type guardStmt struct {
	stmt *ast.ExprStmt
	cond ast.Expr
}

// guardStmts finds the guard statements made directly by body. listed is
// false when one of them is not an element of a statement list, such as
// the init of an if or the post of a for.
func (p *planner) guardStmts(body *ast.BlockStmt) (stmts []guardStmt, listed bool) {
	inList := make(map[ast.Stmt]bool)
	mark := func(list []ast.Stmt) {
		for _, stmt := range list {
			inList[stmt] = true
		}
	}

	listed = true
	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.BlockStmt:
			mark(n.List)
		case *ast.CaseClause:
			mark(n.Body)
		case *ast.CommClause:
			mark(n.Body)
		case *ast.LabeledStmt:
			inList[n.Stmt] = inList[n]
		case *ast.ExprStmt:
			cond, ok := p.guardCond(n)
			if !ok {
				return true
			}
			if !inList[n] {
				listed = false
				return true
			}
			stmts = append(stmts, guardStmt{stmt: n, cond: cond})
		}
		return true
	})
	return stmts, listed
}

func (p *planner) guardCond(stmt *ast.ExprStmt) (ast.Expr, bool) {
	call, ok := stmt.X.(*ast.CallExpr)
	if !ok || len(call.Args) != 1 {
		return nil, false
	}
	c, ok := p.scan.Classify(call)
	if !ok {
		return nil, false
	}
	if c.Name == "Guard" {
		return call.Args[0], true
	}

	want, ok := verifyFor[c.Name]
	if !ok {
		return nil, false
	}
	inner, ok := guardast.Unparen(call.Args[0]).(*ast.CallExpr)
	if !ok || len(inner.Args) != 1 {
		return nil, false
	}
	v, ok := p.scan.Classify(inner)
	if !ok || v.Name != want {
		return nil, false
	}
	return inner.Args[0], true
}

// catcher returns the single catcher guarding the whole body, or the
// reason there is none.
func (p *planner) catcher(f *guardast.Func) (guardast.CatchSite, string) {
	switch len(f.Catches) {
	case 0:
		return guardast.CatchSite{}, "no deferred catcher"
	case 1:
	default:
		return guardast.CatchSite{}, "more than one deferred catcher"
	}

	site := f.Catches[0]
	if !site.TopLevel || site.Stmt.Pos() > f.FirstPropagation() {
		return guardast.CatchSite{}, "catcher is not deferred ahead of every propagating call"
	}
	target, ok := site.Target()
	if !ok || !f.NamedResults()[target] {
		return guardast.CatchSite{}, "catcher does not receive the address of a named result"
	}
	return site, ""
}

func (p *planner) expansion(cond ast.Expr, catch guardast.Call, target string) string {
	var failure string
	switch catch.Name {
	case "Catch":
		failure = fmt.Sprintf("%s.Fail(%s.ErrGuard)", target, catch.Pkg)
	case "CatchErr":
		failure = fmt.Sprintf("%s = %s.ErrGuard", target, catch.Pkg)
	case "CatchOK":
		failure = target + " = false"
	}
	return fmt.Sprintf("if %s {\n%s\nreturn\n}", p.negate(cond), failure)
}

func (p *planner) negate(cond ast.Expr) string {
	switch e := cond.(type) {
	case *ast.UnaryExpr:
		if e.Op == token.NOT {
			return p.text(e.X)
		}
	case *ast.Ident, *ast.CallExpr, *ast.SelectorExpr, *ast.IndexExpr, *ast.IndexListExpr, *ast.ParenExpr:
		return "!" + p.text(cond)
	}
	return "!(" + p.text(cond) + ")"
}

func (p *planner) text(n ast.Node) string {
	return string(p.src[p.offset(n.Pos()):p.offset(n.End())])
}

func (p *planner) offset(pos token.Pos) int {
	return p.fset.File(pos).Offset(pos)
}

// removeStmt deletes stmt together with its line when it stands alone,
// plus the blank line that follows it at the top of a body.
func (p *planner) removeStmt(body *ast.BlockStmt, stmt ast.Stmt) Edit {
	file := p.fset.File(stmt.Pos())
	start, end := p.offset(stmt.Pos()), p.offset(stmt.End())

	lineStart := start
	for lineStart > 0 && isBlank(p.src[lineStart-1]) {
		lineStart--
	}
	lineEnd := end
	for lineEnd < len(p.src) && isBlank(p.src[lineEnd]) {
		lineEnd++
	}

	if (lineStart == 0 || p.src[lineStart-1] == '\n') && lineEnd < len(p.src) && p.src[lineEnd] == '\n' {
		start, end = lineStart, lineEnd+1

		if len(body.List) > 0 && body.List[0] == stmt {
			next := end
			for next < len(p.src) && isBlank(p.src[next]) {
				next++
			}
			if next < len(p.src) && p.src[next] == '\n' {
				end = next + 1
			}
		}
	}

	return Edit{Pos: file.Pos(start), End: file.Pos(end)}
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}

func (p *planner) skip(typ *ast.FuncType, reason string) {
	p.plan.Skipped = append(p.plan.Skipped, Skip{
		Pos:    p.fset.Position(typ.Pos()),
		Reason: reason,
	})
}

// redeclared reports a named result that is declared again somewhere in
// the body.
func redeclared(f *guardast.Func) (string, bool) {
	names := f.NamedResults()
	fields := make(map[*ast.Field]bool)
	for _, field := range f.Type.Results.List {
		fields[field] = true
	}

	var found string
	ast.Inspect(f.Body, func(n ast.Node) bool {
		if found != "" {
			return false
		}
		switch n := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.Ident:
			if !names[n.Name] || n.Obj == nil {
				return true
			}
			if field, ok := n.Obj.Decl.(*ast.Field); !ok || !fields[field] {
				found = n.Name
			}
		}
		return true
	})
	return found, found != ""
}

// dropOverlapping keeps the outermost of any overlapping edits.
func dropOverlapping(edits []Edit) []Edit {
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].Pos < edits[j].Pos
	})

	kept := edits[:0]
	end := token.NoPos
	for _, e := range edits {
		if end != token.NoPos && e.Pos < end {
			continue
		}
		kept = append(kept, e)
		end = e.End
	}
	return kept
}

// Apply returns src with the edits applied. Edits must not overlap.
func Apply(fset *token.FileSet, src []byte, edits []Edit) []byte {
	sorted := append([]Edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Pos > sorted[j].Pos
	})

	out := append([]byte(nil), src...)
	for _, e := range sorted {
		file := fset.File(e.Pos)
		start, end := file.Offset(e.Pos), file.Offset(e.End)
		out = append(out[:start], append([]byte(e.Text), out[end:]...)...)
	}
	return out
}

// Source expands the guards of one file and returns the formatted result.
// A file with nothing to expand is returned unchanged.
func Source(filename string, src []byte, pkgs []string) ([]byte, *Plan, error) {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse file: %w", err)
	}

	plan := File(fset, node, src, pkgs)
	if len(plan.Edits) == 0 {
		return src, plan, nil
	}

	expanded := Apply(fset, src, plan.Edits)

	fset = token.NewFileSet()
	node, err = parser.ParseFile(fset, filename, expanded, parser.ParseComments)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse expanded file: %w", err)
	}
	removeUnusedImports(fset, node, pkgs)

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, node); err != nil {
		return nil, nil, fmt.Errorf("failed to format file: %w", err)
	}
	return buf.Bytes(), plan, nil
}

func removeUnusedImports(fset *token.FileSet, node *ast.File, pkgs []string) {
	for name, path := range guardast.Imports(node, pkgs) {
		if usesName(node, name) {
			continue
		}
		for _, imp := range node.Imports {
			if imp.Path.Value != fmt.Sprintf("%q", path) {
				continue
			}
			specName := ""
			if imp.Name != nil {
				specName = imp.Name.Name
			}
			astutil.DeleteNamedImport(fset, node, specName, path)
			break
		}
	}
}

func usesName(node *ast.File, name string) bool {
	used := false
	ast.Inspect(node, func(n ast.Node) bool {
		if used {
			return false
		}
		if sel, ok := n.(*ast.SelectorExpr); ok {
			if id, ok := sel.X.(*ast.Ident); ok && id.Name == name && id.Obj == nil {
				used = true
			}
		}
		return true
	})
	return used
}
