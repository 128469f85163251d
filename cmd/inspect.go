package cmd

import (
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <font>...",
		Short: "Summarize font binaries",
		Long:  "Print the family name, glyph count, units per em and cmap coverage of each font.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return currentWorkflow(cmd).Inspect(cmd.Context(), args)
		},
	}
}

func init() {
	rootCmd.AddCommand(newInspectCmd())
}
