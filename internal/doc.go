// Package internal provides the lint engine behind guardlint.
//
// Engine: parses a file once and runs every enabled LintRule over the
// shared AST concurrently, dropping issues silenced by //nolint comments.
//
// LintRule: one guard check (see package lints) together with its
// severity. Severities come from the rule defaults, overridden by the
// configuration; a rule set to "off" is skipped.
//
// Watcher: re-runs the engine on Go files as they are written.
//
// Usage:
//
//	engine, err := internal.NewEngine(nil, nil)
//	if err != nil {
//	    // handle error
//	}
//
//	issues, err := engine.Run("path/to/file.go")
//	if err != nil {
//	    // handle error
//	}
package internal
