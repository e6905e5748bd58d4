package fixer

import (
	"fmt"
	"io"
	"os"

	"github.com/gnoswap-labs/guard/internal/expand"
)

// Fixer rewrites guard statements in place as explicit early returns.
type Fixer struct {
	DryRun   bool
	Packages []string // import paths recognised besides the default one
	Out      io.Writer
}

func New(dryRun bool, pkgs []string) *Fixer {
	return &Fixer{
		DryRun:   dryRun,
		Packages: pkgs,
		Out:      os.Stdout,
	}
}

// Fix expands one file. In dry-run mode the expanded source is printed
// instead of written.
func (f *Fixer) Fix(filename string) (*expand.Plan, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	expanded, plan, err := expand.Source(filename, content, f.Packages)
	if err != nil {
		return nil, err
	}

	for _, skip := range plan.Skipped {
		fmt.Fprintf(f.Out, "Skipped function at %s: %s\n", skip.Pos, skip.Reason)
	}
	if plan.Expanded == 0 {
		return plan, nil
	}

	if f.DryRun {
		fmt.Fprintf(f.Out, "Would expand %d guard(s) in %s:\n%s", plan.Expanded, filename, expanded)
		return plan, nil
	}

	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if err := os.WriteFile(filename, expanded, info.Mode().Perm()); err != nil {
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	fmt.Fprintf(f.Out, "Expanded %d guard(s) in %s\n", plan.Expanded, filename)
	return plan, nil
}
