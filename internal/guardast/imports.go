// Package guardast finds calls into the guard package in a parsed file and
// groups them by the function that makes them.
//
// Recognition is syntactic: a call counts when its receiver is the local
// name of an import of the guard package (or of a configured equivalent).
// No type information is needed, so files can be inspected one at a time.
package guardast

import (
	"go/ast"
	"path"
	"strconv"
	"strings"
)

// DefaultPackage is the import path recognised without configuration.
const DefaultPackage = "github.com/gnoswap-labs/guard"

// Imports maps the local names under which the file imports the default
// guard package or any of pkgs to their import paths. Blank and dot imports
// are not tracked.
func Imports(node *ast.File, pkgs []string) map[string]string {
	wanted := make(map[string]bool, len(pkgs)+1)
	wanted[DefaultPackage] = true
	for _, p := range pkgs {
		wanted[p] = true
	}

	names := make(map[string]string)
	for _, imp := range node.Imports {
		importPath, err := strconv.Unquote(imp.Path.Value)
		if err != nil || !wanted[importPath] {
			continue
		}

		if imp.Name != nil {
			if imp.Name.Name != "_" && imp.Name.Name != "." {
				names[imp.Name.Name] = importPath
			}
			continue
		}
		names[DefaultImportName(importPath)] = importPath
	}

	return names
}

// DefaultImportName guesses the package name from its path, skipping a
// trailing major version element.
func DefaultImportName(importPath string) string {
	base := path.Base(importPath)
	if isMajorVersion(base) {
		base = path.Base(path.Dir(importPath))
	}
	return strings.ReplaceAll(base, "-", "_")
}

func isMajorVersion(elem string) bool {
	if len(elem) < 2 || elem[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(elem[1:])
	return err == nil
}
