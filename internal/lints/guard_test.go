package lints

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tt "github.com/gnoswap-labs/guard/internal/types"
)

type detector func(filename string, node *ast.File, fset *token.FileSet, pkgs []string, severity tt.Severity) ([]tt.Issue, error)

func runDetector(t *testing.T, detect detector, code string, pkgs ...string) []tt.Issue {
	t.Helper()

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, "test.go", code, parser.ParseComments)
	require.NoError(t, err)

	issues, err := detect("test.go", node, fset, pkgs, tt.SeverityError)
	require.NoError(t, err)
	return issues
}

func TestDetectMissingCatch(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		pkgs     []string
		expected int
	}{
		{
			name: "guard with catch",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(cond bool) (res guard.Option[int]) {
	defer guard.Catch(&res)
	guard.Guard(cond)
	return guard.Some(42)
}`,
			expected: 0,
		},
		{
			name: "guard without catch",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(cond bool) guard.Option[int] {
	guard.Guard(cond)
	return guard.Some(42)
}`,
			expected: 1,
		},
		{
			name: "every propagating call is reported",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(o guard.Option[int], err error) int {
	guard.TryErr(err)
	if o.IsSome() {
		guard.Guard(o.OrElse(0) > 0)
	}
	return guard.Try(o)
}`,
			expected: 3,
		},
		{
			name: "closure needs its own catch",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo() (res guard.Option[int]) {
	defer guard.Catch(&res)
	go func() {
		guard.Guard(false)
	}()
	return guard.Some(1)
}`,
			expected: 1,
		},
		{
			name: "renamed import",
			code: `
package main

import g "github.com/gnoswap-labs/guard"

func foo(cond bool) g.Option[int] {
	g.Guard(cond)
	return g.Some(1)
}`,
			expected: 1,
		},
		{
			name: "explicit type arguments",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(o guard.Option[int]) int {
	return guard.Try[int](o)
}`,
			expected: 1,
		},
		{
			name: "configured package",
			code: `
package main

import "example.com/internal/guardx/v2"

func foo(cond bool) {
	guardx.Guard(cond)
}`,
			pkgs:     []string{"example.com/internal/guardx/v2"},
			expected: 1,
		},
		{
			name: "unrelated package with the same function names",
			code: `
package main

import "example.com/other/guard"

func foo(cond bool) {
	guard.Guard(cond)
}`,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := runDetector(t, DetectMissingCatch, tt.code, tt.pkgs...)
			assert.Len(t, issues, tt.expected)
			for _, issue := range issues {
				assert.Equal(t, RuleMissingCatch, issue.Rule)
				assert.Equal(t, "guard", issue.Category)
			}
		})
	}
}

func TestDetectMissingCatch_Message(t *testing.T) {
	code := `
package main

import g "github.com/gnoswap-labs/guard"

func foo(cond bool) g.Option[int] {
	g.Guard(cond)
	return g.Some(1)
}`

	issues := runDetector(t, DetectMissingCatch, code)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "g.Guard")
	assert.Contains(t, issues[0].Suggestion, "defer g.Catch(&res)")
	assert.Equal(t, 7, issues[0].Start.Line)
}

func TestDetectCatchNotDeferred(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{
			name: "plain call",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo() (res guard.Option[int]) {
	guard.Catch(&res)
	return guard.Some(1)
}`,
			expected: 1,
		},
		{
			name: "inside deferred closure",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo() (err error) {
	defer func() {
		guard.CatchErr(&err)
	}()
	guard.Guard(false)
	return nil
}`,
			expected: 1,
		},
		{
			name: "deferred directly",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo() (ok bool) {
	defer guard.CatchOK(&ok)
	guard.Guard(false)
	return true
}`,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := runDetector(t, DetectCatchNotDeferred, tt.code)
			assert.Len(t, issues, tt.expected)
		})
	}
}

func TestDetectCatchTarget(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{
			name: "named result",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo() (n int, err error) {
	defer guard.CatchErr(&err)
	guard.Guard(n > 0)
	return 1, nil
}`,
			expected: 0,
		},
		{
			name: "local variable",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo() guard.Option[int] {
	var res guard.Option[int]
	defer guard.Catch(&res)
	guard.Guard(false)
	return guard.Some(1)
}`,
			expected: 1,
		},
		{
			name: "not an address",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(p *guard.Option[int]) (res guard.Option[int]) {
	defer guard.Catch(p)
	guard.Guard(false)
	return guard.Some(1)
}`,
			expected: 1,
		},
		{
			name: "function literal result",
			code: `
package main

import "github.com/gnoswap-labs/guard"

var f = func() (res guard.Result[int]) {
	defer guard.Catch((&res))
	guard.Guard(false)
	return guard.Ok(1)
}`,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := runDetector(t, DetectCatchTarget, tt.code)
			assert.Len(t, issues, tt.expected)
		})
	}
}

func TestDetectCatchOrder(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{
			name: "catch first",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(cond bool) (res guard.Option[int]) {
	defer guard.Catch(&res)
	guard.Guard(cond)
	return guard.Some(1)
}`,
			expected: 0,
		},
		{
			name: "catch after guard",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(cond bool) (res guard.Option[int]) {
	guard.Guard(cond)
	defer guard.Catch(&res)
	return guard.Some(1)
}`,
			expected: 1,
		},
		{
			name: "conditional catch",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(cond bool) (res guard.Option[int]) {
	if cond {
		defer guard.Catch(&res)
	}
	guard.Guard(cond)
	return guard.Some(1)
}`,
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := runDetector(t, DetectCatchOrder, tt.code)
			assert.Len(t, issues, tt.expected)
		})
	}
}

func TestDetectRecoverAfterCatch(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{
			name: "recover deferred after catch",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(cond bool) (res guard.Result[int]) {
	defer guard.Catch(&res)
	defer func() { recover() }()
	res = guard.Ok(1)
	guard.Guard(cond)
	return res
}`,
			expected: 1,
		},
		{
			name: "recover deferred before catch",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(cond bool) (res guard.Result[int]) {
	defer func() {
		if r := recover(); r != nil {
			res = guard.Err[int](nil)
		}
	}()
	defer guard.Catch(&res)
	guard.Guard(cond)
	return guard.Ok(1)
}`,
			expected: 0,
		},
		{
			name: "conditional recover after catch",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(cond bool) (err error) {
	defer guard.CatchErr(&err)
	if !cond {
		defer func() { _ = recover() }()
	}
	guard.Guard(cond)
	return nil
}`,
			expected: 1,
		},
		{
			name: "plain defer after catch",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(cond bool) (res guard.Option[int]) {
	defer guard.Catch(&res)
	defer cleanup()
	defer func() { log(res) }()
	guard.Guard(cond)
	return guard.Some(1)
}`,
			expected: 0,
		},
		{
			name: "recover in a goroutine",
			code: `
package main

import "github.com/gnoswap-labs/guard"

func foo(cond bool) (res guard.Option[int]) {
	defer guard.Catch(&res)
	go func() {
		defer func() { recover() }()
	}()
	guard.Guard(cond)
	return guard.Some(1)
}`,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := runDetector(t, DetectRecoverAfterCatch, tt.code)
			assert.Len(t, issues, tt.expected)
			for _, issue := range issues {
				assert.Equal(t, RuleRecoverAfterCatch, issue.Rule)
				assert.Contains(t, issue.Message, "swallows a guard failure")
			}
		})
	}
}

func TestDetectConstantPredicate(t *testing.T) {
	code := `
package main

import "github.com/gnoswap-labs/guard"

func foo(cond bool) (res guard.Option[int]) {
	defer guard.Catch(&res)
	guard.Guard(true)
	guard.Guard((false))
	guard.Try(guard.Verify(true))
	guard.Guard(cond)
	return guard.Some(1)
}`

	issues := runDetector(t, DetectConstantPredicate, code)
	require.Len(t, issues, 3)
	assert.Contains(t, issues[0].Message, "always succeeds")
	assert.Contains(t, issues[1].Message, "always fails")
	assert.Contains(t, issues[2].Message, "guard.Verify(true)")
}

func TestDetectDiscardedVerify(t *testing.T) {
	code := `
package main

import "github.com/gnoswap-labs/guard"

func foo(cond bool) guard.Option[guard.Unit] {
	guard.Verify(cond)
	guard.VerifyErr(cond)
	v := guard.Verify(cond)
	return v
}`

	issues := runDetector(t, DetectDiscardedVerify, code)
	require.Len(t, issues, 2)
	assert.Equal(t, RuleDiscardedVerify, issues[0].Rule)
	assert.Contains(t, issues[0].Suggestion, "guard.Guard")
}
