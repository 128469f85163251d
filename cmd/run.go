package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"subsetcheck.dev/pkg/subsetcheck/internal/domain"
	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
)

var (
	sanitizerFlag     string
	noSanitizeFlag    bool
	pythonFlag        string
	workerTimeoutFlag time.Duration
	keepOutputFlag    string
	reportFlag        string
	dropTablesFlag    []string
	keepTablesFlag    []string
)

const runLongDescription = `Run one or more suites against an hb-subset binary.

The first argument is the hb-subset executable; it is started once in batch
mode and receives every test case of every suite. Each command is printed
before it is sent, so a failure can be reproduced by pasting it into a shell.`

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <hb-subset> <suite>...",
		Short: "Run subsetting suites",
		Long:  runLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			keep, err := domain.ParseKeepOutput(viper.GetString(keepOutputKey))
			if err != nil {
				return m.WrapError(m.ClassConfiguration, err, "--%s", keepOutputFlagName)
			}

			runArgs := domain.RunArgs{
				SanitizerPath: viper.GetString(sanitizerPathKey),
				NoSanitize:    viper.GetBool(sanitizerDisabledKey),
				WorkerTimeout: viper.GetDuration(workerTimeoutKey),
				DropTables:    viper.GetStringSlice(dropTablesKey),
				KeepTables:    viper.GetStringSlice(keepTablesKey),
				KeepOutput:    keep,
				ReportPath:    viper.GetString(reportKey),
			}

			if len(args) > 0 {
				runArgs.WorkerPath = args[0]
				runArgs.Suites = args[1:]
			}

			return currentWorkflow(cmd).Run(cmd.Context(), runArgs)
		},
	}

	configureRunFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func configureRunFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVar(&sanitizerFlag, sanitizerFlagName, viper.GetString(sanitizerPathKey), "ots-sanitize executable (path or name on PATH)")
	bindFlagToConfig(flags.Lookup(sanitizerFlagName), sanitizerPathKey)

	flags.BoolVar(&noSanitizeFlag, noSanitizeFlagName, viper.GetBool(sanitizerDisabledKey), "skip the ots-sanitize check")
	bindFlagToConfig(flags.Lookup(noSanitizeFlagName), sanitizerDisabledKey)

	flags.StringVar(&pythonFlag, pythonFlagName, viper.GetString(dumpPythonKey), "python interpreter with fontTools installed")
	bindFlagToConfig(flags.Lookup(pythonFlagName), dumpPythonKey)

	flags.DurationVar(&workerTimeoutFlag, workerTimeoutFlagName, viper.GetDuration(workerTimeoutKey),
		"how long to wait for each worker response (0 waits forever)")
	bindFlagToConfig(flags.Lookup(workerTimeoutFlagName), workerTimeoutKey)

	flags.StringVar(&keepOutputFlag, keepOutputFlagName, viper.GetString(keepOutputKey), "keep per-test output directories: all, failed or none")
	bindFlagToConfig(flags.Lookup(keepOutputFlagName), keepOutputKey)

	flags.StringVar(&reportFlag, reportFlagName, viper.GetString(reportKey), "write a YAML report of failing tests to this file")
	bindFlagToConfig(flags.Lookup(reportFlagName), reportKey)

	flags.StringSliceVar(&dropTablesFlag, dropTableFlagName, viper.GetStringSlice(dropTablesKey), "table tags always dropped (can be repeated)")
	bindFlagToConfig(flags.Lookup(dropTableFlagName), dropTablesKey)

	flags.StringSliceVar(&keepTablesFlag, keepTableFlagName, viper.GetStringSlice(keepTablesKey), "table tags never dropped (can be repeated)")
	bindFlagToConfig(flags.Lookup(keepTableFlagName), keepTablesKey)
}
