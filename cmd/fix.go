package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/guard/internal/fixer"
	tt "github.com/gnoswap-labs/guard/internal/types"
	"github.com/gnoswap-labs/guard/lint"
)

var dryRun bool

var fixCmd = &cobra.Command{
	Use:   "fix [paths...]",
	Short: "Expand guard calls into explicit early returns",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		engine, err := newEngine()
		if err != nil {
			logger.Fatal("Failed to initialize lint engine", zap.Error(err))
		}

		fix := fixer.New(dryRun, engine.Packages())
		fix.Out = cmd.OutOrStdout()

		if _, err := runAutoFix(ctx, logger, engine, fix, args); err != nil {
			logger.Error("Error fixing files", zap.Error(err))
			os.Exit(1)
		}
	},
}

func init() {
	fixCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the expanded sources instead of writing them")
	fixCmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
}

// runAutoFix expands every Go file under paths and returns the number of
// guard statements rewritten.
func runAutoFix(ctx context.Context, logger *zap.Logger, engine lint.LintEngine, fix *fixer.Fixer, paths []string) (int, error) {
	var (
		mu       sync.Mutex
		expanded int
	)
	// ProcessPath fixes files concurrently and Fixer shares one writer
	expandFile := func(_ lint.LintEngine, filename string) ([]tt.Issue, error) {
		mu.Lock()
		defer mu.Unlock()

		plan, err := fix.Fix(filename)
		if err != nil {
			return nil, err
		}
		expanded += plan.Expanded
		return nil, nil
	}

	_, err := lint.ProcessFiles(ctx, logger, engine, paths, expandFile)
	return expanded, err
}
