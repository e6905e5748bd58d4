package guardast

import (
	"go/ast"
	"go/token"
)

// Kind classifies guard package functions.
type Kind int

const (
	KindOther Kind = iota
	KindPropagate
	KindCatch
	KindVerify
)

var funcKinds = map[string]Kind{
	"Guard":     KindPropagate,
	"Try":       KindPropagate,
	"TryResult": KindPropagate,
	"TryErr":    KindPropagate,
	"TryOK":     KindPropagate,

	"Catch":    KindCatch,
	"CatchErr": KindCatch,
	"CatchOK":  KindCatch,

	"Verify":       KindVerify,
	"VerifyResult": KindVerify,
	"VerifyErr":    KindVerify,
	"VerifyWith":   KindVerify,
}

// Call is a call into the guard package.
type Call struct {
	Expr *ast.CallExpr
	Pkg  string // local import name
	Name string
	Kind Kind
}

func (c Call) String() string {
	return c.Pkg + "." + c.Name
}

// CatchSite is a deferred catcher.
type CatchSite struct {
	Stmt     *ast.DeferStmt
	Call     Call
	TopLevel bool // statement of the function body itself, not of a nested block
}

// Target returns the name whose address the catcher receives, if the
// argument has the form &name.
func (s CatchSite) Target() (string, bool) {
	if len(s.Call.Expr.Args) != 1 {
		return "", false
	}
	return AddressedIdent(s.Call.Expr.Args[0])
}

// Func collects the guard calls made directly by one function body. Calls
// inside nested function literals belong to those literals.
type Func struct {
	Type *ast.FuncType
	Body *ast.BlockStmt

	Propagations  []Call
	Catches       []CatchSite
	Verifications []Call
	Stray         []Call // catchers that are not the deferred call itself
	Discarded     []Call // verifications used as statements

	Defers []*ast.DeferStmt // deferred calls other than catchers
}

// DefersAfter returns the deferred calls that follow pos in the body.
// They run before a catcher deferred at pos.
func (f *Func) DefersAfter(pos token.Pos) []*ast.DeferStmt {
	var after []*ast.DeferStmt
	for _, d := range f.Defers {
		if d.Pos() > pos {
			after = append(after, d)
		}
	}
	return after
}

// NamedResults returns the names of the function's results.
func (f *Func) NamedResults() map[string]bool {
	names := make(map[string]bool)
	if f.Type.Results == nil {
		return names
	}
	for _, field := range f.Type.Results.List {
		for _, name := range field.Names {
			if name.Name != "_" {
				names[name.Name] = true
			}
		}
	}
	return names
}

// FirstPropagation returns the position of the earliest propagating call,
// or token.NoPos.
func (f *Func) FirstPropagation() token.Pos {
	first := token.NoPos
	for _, p := range f.Propagations {
		if first == token.NoPos || p.Expr.Pos() < first {
			first = p.Expr.Pos()
		}
	}
	return first
}

// Scanner classifies calls against one file's guard imports.
type Scanner struct {
	names map[string]string
}

func NewScanner(node *ast.File, pkgs []string) *Scanner {
	return &Scanner{names: Imports(node, pkgs)}
}

// Empty reports whether the file does not import the guard package.
func (s *Scanner) Empty() bool {
	return len(s.names) == 0
}

// ImportPath returns the import path bound to a local name.
func (s *Scanner) ImportPath(name string) string {
	return s.names[name]
}

// Scan returns every function of the file that makes at least one guard
// call, in source order.
func Scan(node *ast.File, pkgs []string) []*Func {
	s := NewScanner(node, pkgs)
	if s.Empty() {
		return nil
	}

	var funcs []*Func
	ast.Inspect(node, func(n ast.Node) bool {
		var f *Func
		switch fn := n.(type) {
		case *ast.FuncDecl:
			if fn.Body != nil {
				f = s.ScanFunc(fn.Type, fn.Body)
			}
		case *ast.FuncLit:
			f = s.ScanFunc(fn.Type, fn.Body)
		}
		if f != nil {
			funcs = append(funcs, f)
		}
		return true
	})

	return funcs
}

// ScanFunc collects the guard calls of one body, or returns nil when there
// are none.
func (s *Scanner) ScanFunc(typ *ast.FuncType, body *ast.BlockStmt) *Func {
	f := &Func{Type: typ, Body: body}
	deferred := make(map[*ast.CallExpr]bool)

	topLevel := make(map[ast.Stmt]bool, len(body.List))
	for _, stmt := range body.List {
		topLevel[stmt] = true
	}

	ast.Inspect(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			return false

		case *ast.DeferStmt:
			c, ok := s.Classify(n.Call)
			if !ok || c.Kind != KindCatch {
				f.Defers = append(f.Defers, n)
				return true
			}
			deferred[n.Call] = true
			f.Catches = append(f.Catches, CatchSite{
				Stmt:     n,
				Call:     c,
				TopLevel: topLevel[n],
			})

		case *ast.ExprStmt:
			if call, ok := n.X.(*ast.CallExpr); ok {
				if c, ok := s.Classify(call); ok && c.Kind == KindVerify {
					f.Discarded = append(f.Discarded, c)
				}
			}

		case *ast.CallExpr:
			c, ok := s.Classify(n)
			if !ok {
				return true
			}
			switch c.Kind {
			case KindPropagate:
				f.Propagations = append(f.Propagations, c)
			case KindCatch:
				if !deferred[n] {
					f.Stray = append(f.Stray, c)
				}
			case KindVerify:
				f.Verifications = append(f.Verifications, c)
			}
		}
		return true
	})

	if len(f.Propagations) == 0 && len(f.Catches) == 0 && len(f.Stray) == 0 && len(f.Verifications) == 0 {
		return nil
	}
	return f
}

// Classify recognises pkg.Name(...) and pkg.Name[T](...) calls into the
// guard package.
func (s *Scanner) Classify(call *ast.CallExpr) (Call, bool) {
	fun := call.Fun
	switch f := fun.(type) {
	case *ast.IndexExpr:
		fun = f.X
	case *ast.IndexListExpr:
		fun = f.X
	}

	sel, ok := fun.(*ast.SelectorExpr)
	if !ok {
		return Call{}, false
	}
	pkg, ok := sel.X.(*ast.Ident)
	if !ok {
		return Call{}, false
	}
	if _, ok := s.names[pkg.Name]; !ok {
		return Call{}, false
	}
	kind, ok := funcKinds[sel.Sel.Name]
	if !ok {
		return Call{}, false
	}

	return Call{Expr: call, Pkg: pkg.Name, Name: sel.Sel.Name, Kind: kind}, true
}

// Recovers reports whether a deferred function literal calls the recover
// builtin itself. Named functions are not followed.
func Recovers(d *ast.DeferStmt) bool {
	lit, ok := Unparen(d.Call.Fun).(*ast.FuncLit)
	if !ok {
		return false
	}

	found := false
	ast.Inspect(lit.Body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.CallExpr:
			if id, ok := Unparen(n.Fun).(*ast.Ident); ok && id.Name == "recover" && id.Obj == nil {
				found = true
			}
		}
		return !found
	})
	return found
}

// AddressedIdent matches &name, possibly parenthesised.
func AddressedIdent(expr ast.Expr) (string, bool) {
	expr = Unparen(expr)

	unary, ok := expr.(*ast.UnaryExpr)
	if !ok || unary.Op != token.AND {
		return "", false
	}
	ident, ok := Unparen(unary.X).(*ast.Ident)
	if !ok {
		return "", false
	}
	return ident.Name, true
}

func Unparen(expr ast.Expr) ast.Expr {
	for {
		paren, ok := expr.(*ast.ParenExpr)
		if !ok {
			return expr
		}
		expr = paren.X
	}
}
