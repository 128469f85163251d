// Package cmd provides the root command and CLI setup for subsetcheck.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"subsetcheck.dev/pkg/subsetcheck/internal/controller"
	"subsetcheck.dev/pkg/subsetcheck/internal/domain"
	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
)

// workflow is set by tests; commands otherwise build one per invocation.
var workflow domain.Workflow

var newWorkflow = func(cmd *cobra.Command) domain.Workflow {
	ui := controller.NewUI(cmd, controller.IsTTY(os.Stdout))
	return domain.NewLocalWorkflow(ui, viper.GetString(dumpPythonKey), viper.GetDuration(dumpTimeoutKey))
}

var (
	verboseFlag bool
	logFileFlag string
)

const rootLongDescription = `subsetcheck runs font subsetting regression suites against hb-subset.

Each suite lists fonts, profiles and code point subsets. Every combination is
sent to one long-running "hb-subset --batch" process, the produced font is
dumped with fontTools and compared with the expected dump, and the result is
optionally validated with ots-sanitize.

Exit status: 0 all passed, 1 tests failed, 2 configuration or worker error,
77 fontTools missing (test skipped).`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func init() {
	configureRootCmd(rootCmd)
}

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "subsetcheck",
		Short:         "Font subsetting regression test harness",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootCmd(cmd)

	return cmd
}

func configureRootCmd(cmd *cobra.Command) {
	configureRootFlags(cmd)

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return m.WrapError(m.ClassConfiguration, err, "invalid arguments")
	})
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)

	cmd.PersistentFlags().StringVar(&logFileFlag, logFileFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func currentWorkflow(cmd *cobra.Command) domain.Workflow {
	if workflow != nil {
		return workflow
	}

	return newWorkflow(cmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(m.ExitCode(err))
	}
}
