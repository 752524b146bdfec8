package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kyuns-96/sanity-log-parser/internal/results"
	"github.com/kyuns-96/sanity-log-parser/internal/view"
)

var viewLimit int

var viewCmd = &cobra.Command{
	Use:   "view <results-file>",
	Short: "Render a previously written results file",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		doc, err := results.Read(args[0])
		if err != nil {
			return err
		}
		view.Render(os.Stdout, doc, viewLimit)
		return nil
	},
}

func init() {
	viewCmd.Flags().IntVarP(&viewLimit, "limit", "n", 0, "show at most this many groups (0 = all)")
}
