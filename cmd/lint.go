package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/guard/formatter"
	"github.com/gnoswap-labs/guard/internal"
	tt "github.com/gnoswap-labs/guard/internal/types"
	"github.com/gnoswap-labs/guard/lint"
)

var (
	ignoreRules    string
	ignorePaths    string
	lintJsonOutput bool
	outPath        string
	watch          bool
)

var lintCmd = &cobra.Command{
	Use:   "lint [paths...]",
	Short: "Report guard calls that cannot return early",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			fmt.Println("error: Please provide file or directory paths")
			os.Exit(1)
		}

		engine, err := newEngine()
		if err != nil {
			logger.Fatal("Failed to initialize lint engine", zap.Error(err))
		}

		if watch {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			if err := runWatch(ctx, logger, engine, cmd.OutOrStdout(), args); err != nil {
				logger.Fatal("Watch failed", zap.Error(err))
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		n, err := runNormalLintProcess(ctx, logger, engine, cmd.OutOrStdout(), args, lintJsonOutput, outPath)
		if err != nil {
			logger.Error("Error processing files", zap.Error(err))
			os.Exit(1)
		}
		if n > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	lintCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of lint rules to ignore")
	lintCmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
	lintCmd.Flags().BoolVar(&lintJsonOutput, "json", false, "Output issues in JSON format")
	lintCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	lintCmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-lint files as they change")
}

// newEngine loads the configuration and applies the ignore flags.
func newEngine() (*internal.Engine, error) {
	engine, err := lint.New(cfgFile)
	if err != nil {
		return nil, err
	}
	engine.SetLogger(logger)

	for _, rule := range splitList(ignoreRules) {
		engine.IgnoreRule(rule)
	}
	for _, path := range splitList(ignorePaths) {
		engine.IgnorePath(path)
	}
	return engine, nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// runNormalLintProcess lints paths, prints the issues and returns how many
// were found.
func runNormalLintProcess(
	ctx context.Context,
	logger *zap.Logger,
	engine lint.LintEngine,
	out io.Writer,
	paths []string,
	isJson bool,
	jsonOutput string,
) (int, error) {
	issues, err := lint.ProcessFiles(ctx, logger, engine, paths, lint.ProcessFile)
	if err != nil {
		return 0, err
	}

	if err := printIssues(logger, out, issues, isJson, jsonOutput); err != nil {
		return 0, err
	}
	return len(issues), nil
}

func printIssues(logger *zap.Logger, out io.Writer, issues []tt.Issue, isJson bool, jsonOutput string) error {
	issuesByFile := make(map[string][]tt.Issue)
	for _, issue := range issues {
		issuesByFile[issue.Filename] = append(issuesByFile[issue.Filename], issue)
	}

	if isJson {
		d, err := json.Marshal(issuesByFile)
		if err != nil {
			return fmt.Errorf("error marshalling issues to JSON: %w", err)
		}
		if jsonOutput == "" {
			_, err = fmt.Fprintln(out, string(d))
			return err
		}
		if err := os.WriteFile(jsonOutput, d, 0o644); err != nil {
			return fmt.Errorf("error writing JSON output file: %w", err)
		}
		return nil
	}

	sortedFiles := make([]string, 0, len(issuesByFile))
	for filename := range issuesByFile {
		sortedFiles = append(sortedFiles, filename)
	}
	sort.Strings(sortedFiles)

	for _, filename := range sortedFiles {
		sourceCode, err := formatter.ReadSourceCode(filename)
		if err != nil {
			logger.Error("Error reading source file", zap.String("file", filename), zap.Error(err))
			continue
		}
		fmt.Fprint(out, formatter.GenerateFormattedIssue(issuesByFile[filename], sourceCode))
	}
	return nil
}

// runWatch lints paths once, then again whenever a Go file under them
// changes, until ctx is done.
func runWatch(ctx context.Context, logger *zap.Logger, engine *internal.Engine, out io.Writer, paths []string) error {
	if _, err := runNormalLintProcess(ctx, logger, engine, out, paths, false, ""); err != nil {
		return err
	}

	dirs, err := watchDirs(paths)
	if err != nil {
		return err
	}

	w, err := engine.NewWatcher(logger, dirs)
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Fprintf(out, "Watching %s for changes\n", strings.Join(dirs, ", "))

	err = w.Run(ctx, func(filename string, issues []tt.Issue) {
		if len(issues) == 0 {
			fmt.Fprintf(out, "%s: no issues\n", filename)
			return
		}
		if err := printIssues(logger, out, issues, false, ""); err != nil {
			logger.Error("Error printing issues", zap.String("file", filename), zap.Error(err))
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchDirs maps each path to the directory to watch, without duplicates.
func watchDirs(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var dirs []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing %s: %w", path, err)
		}
		dir := filepath.Clean(path)
		if !info.IsDir() {
			dir = filepath.Dir(dir)
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}
