package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view [report]",
		Short: "View a saved run report",
		Long:  "Print the failures and summary stored in a report written by run --report. Defaults to the configured report path.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString(reportKey)
			if len(args) == 1 {
				path = args[0]
			}

			return currentWorkflow(cmd).View(cmd.Context(), path)
		},
	}
}

func init() {
	rootCmd.AddCommand(newViewCmd())
}
