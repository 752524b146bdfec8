package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kyuns-96/sanity-log-parser/internal/logging"
)

// Global flag values.
var (
	verbose bool
	quiet   bool
	noColor bool
)

// rootCmd is the base command for sanity-log-parser.
var rootCmd = &cobra.Command{
	Use:   "sanity-log-parser",
	Short: "Cluster EDA sanity check reports into reviewable groups",
	Long: `sanity-log-parser digests the violation reports EDA sanity checks emit,
collapses thousands of near-identical lines into logic groups, and
optionally merges semantically equivalent groups using text embeddings.
The result is a short, reviewable list of distinct problems instead of a
wall of repeated messages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logging.Setup(verbose, quiet)
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(viewCmd)
}
