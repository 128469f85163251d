package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"subsetcheck.dev/pkg/subsetcheck/internal/domain"
)

var (
	listWorkerFlag   string
	listCommandsFlag bool
)

const listLongDescription = `List the test cases of one or more suites without running them.

Shows every font, profile and code point combination, the expected dump each
one is compared against and whether that dump exists yet. With --commands the
hb-subset invocation of every case is printed as well.`

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <suite>...",
		Short: "List the test cases of suites",
		Long:  listLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			return currentWorkflow(cmd).List(cmd.Context(), domain.ListArgs{
				Suites:       args,
				WorkerPath:   listWorkerFlag,
				DropTables:   viper.GetStringSlice(dropTablesKey),
				KeepTables:   viper.GetStringSlice(keepTablesKey),
				ShowCommands: listCommandsFlag,
			})
		},
	}

	cmd.Flags().StringVar(&listWorkerFlag, workerFlagName, "hb-subset", "worker shown in printed commands")
	cmd.Flags().BoolVar(&listCommandsFlag, commandsFlagName, false, "print the worker command of every case")

	return cmd
}

func init() {
	rootCmd.AddCommand(newListCmd())
}
