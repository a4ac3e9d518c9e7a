package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/filemill/filemill/internal/analyze"
	"github.com/filemill/filemill/internal/config"
)

// NewAnalyzersCmd creates the "analyzers" subcommand listing the
// built-in per-file analyzers.
func NewAnalyzersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyzers",
		Short: "List the available per-file analyzers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "NAME\tDESCRIPTION")
			for _, info := range analyze.All() {
				name := info.Name
				if name == config.DefaultAnalyzer {
					name += " (default)"
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\n", name, info.Summary)
			}
			return tw.Flush()
		},
	}
}
