package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnoswap-labs/guard/internal"
	"github.com/gnoswap-labs/guard/lint"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List every rule with its configured severity",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := lint.LoadConfig(cfgFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		if err := printRules(cmd.OutOrStdout(), config); err != nil {
			logger.Error("Error printing rules", zap.Error(err))
		}
	},
}

func printRules(out io.Writer, config lint.Config) error {
	defaults := internal.DefaultRules()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, name := range internal.RuleNames() {
		rule := defaults[name]
		if configured, ok := config.Rules[name]; ok {
			rule = configured
		}
		fmt.Fprintf(w, "%s\t%s\n", name, rule.Severity)
	}
	return w.Flush()
}
