package domain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"subsetcheck.dev/pkg/subsetcheck/internal/adapter"
	"subsetcheck.dev/pkg/subsetcheck/internal/controller"
	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
	"subsetcheck.dev/pkg/subsetcheck/pkg/spill"
)

const (
	workerName = "hb-subset"

	msgUnusableWorker   = "First argument does not seem to point to usable hb-subset."
	msgNoTests          = "No tests supplied."
	msgFontToolsMissing = "fonttools is not present, skipping test."
	msgOTSMissing       = "OTS is not present, skipping all ots checks."
)

// RunArgs holds everything one `run` invocation needs.
type RunArgs struct {
	WorkerPath    string
	Suites        []string
	SanitizerPath string
	NoSanitize    bool
	WorkerTimeout time.Duration
	DropTables    []string
	KeepTables    []string
	KeepOutput    KeepOutput
	// ReportPath, when set, receives a YAML report of the failing tests.
	ReportPath string
}

// ListArgs controls `list`. The worker path and table overrides only affect
// the commands printed when ShowCommands is set.
type ListArgs struct {
	Suites       []string
	WorkerPath   string
	DropTables   []string
	KeepTables   []string
	ShowCommands bool
}

// Workflow is the entry point used by the CLI commands.
type Workflow interface {
	Run(ctx context.Context, args RunArgs) error
	List(ctx context.Context, args ListArgs) error
	Inspect(ctx context.Context, paths []string) error
	View(ctx context.Context, reportPath string) error
}

// SessionStarter launches a worker session.
type SessionStarter func(workerPath string, stderr io.Writer, timeout time.Duration) (adapter.Session, error)

// SanitizerFinder resolves the sanitizer named by the configuration.
type SanitizerFinder func(name string) (adapter.Sanitizer, error)

// WorkflowDeps bundles the adapters a Workflow drives.
type WorkflowDeps struct {
	FS            adapter.FSAdapter
	Dumper        adapter.FontDumper
	Inspector     adapter.FontInspector
	Reports       adapter.ReportStore
	UI            controller.UI
	StartSession  SessionStarter
	FindSanitizer SanitizerFinder
	// SpillDir holds the failure log during a run; empty means os.TempDir().
	SpillDir string
}

type workflow struct {
	WorkflowDeps
	loader SuiteLoader
}

// NewWorkflow creates a Workflow over deps.
func NewWorkflow(deps WorkflowDeps) Workflow {
	return &workflow{
		WorkflowDeps: deps,
		loader:       NewSuiteLoader(deps.FS, NewProfileTable(deps.FS)),
	}
}

// NewLocalWorkflow wires the workflow to the local filesystem, the given
// python for fontTools dumps and real worker processes.
func NewLocalWorkflow(ui controller.UI, python string, commandTimeout time.Duration) Workflow {
	runner := adapter.NewLocalCommandRunner(commandTimeout)

	return NewWorkflow(WorkflowDeps{
		FS:        adapter.NewLocalFSAdapter(),
		Dumper:    adapter.NewFontToolsDumper(python, runner),
		Inspector: adapter.NewSfntInspector(),
		Reports:   adapter.NewReportStore(),
		UI:        ui,
		StartSession: func(path string, stderr io.Writer, timeout time.Duration) (adapter.Session, error) {
			session, err := adapter.StartBatchSession(path, stderr, timeout)
			if err != nil {
				return nil, err
			}

			return session, nil
		},
		FindSanitizer: func(name string) (adapter.Sanitizer, error) {
			sanitizer, err := adapter.FindOTSSanitizer(name, runner)
			if err != nil {
				return nil, err
			}

			return sanitizer, nil
		},
	})
}

// Run validates the invocation, checks the external tools, then runs every
// suite against one worker session. A run with failing tests returns a
// ClassTestFailures error.
func (w *workflow) Run(ctx context.Context, args RunArgs) error {
	if err := w.checkWorker(args.WorkerPath); err != nil {
		return err
	}

	if len(args.Suites) == 0 {
		return m.NewError(m.ClassConfiguration, msgNoTests)
	}

	if err := w.Dumper.Available(ctx); err != nil {
		w.UI.DisplayNotice(ctx, msgFontToolsMissing)

		if m.ClassOf(err) != m.ClassToolUnavailable {
			err = m.WrapError(m.ClassToolUnavailable, err, "fonttools")
		}

		return err
	}

	sanitizer := w.sanitizer(ctx, args)

	failures, err := spill.New[m.Outcome](w.SpillDir)
	if err != nil {
		return fmt.Errorf("open failure log: %w", err)
	}

	defer func() {
		if err := failures.Close(); err != nil {
			slog.Warn("Failed to close failure log", "error", err)
		}
	}()

	session, err := w.StartSession(args.WorkerPath, w.UI.Output(), args.WorkerTimeout)
	if err != nil {
		return err
	}

	runner := NewRunner(RunnerDeps{
		Session:    session,
		Loader:     w.loader,
		Comparator: NewComparator(w.Dumper, w.FS),
		Sanitizer:  sanitizer,
		Inspector:  w.Inspector,
		FS:         w.FS,
		UI:         w.UI,
		Outcomes:   failures,
	}, RunnerOptions{
		WorkerPath: args.WorkerPath,
		DropTables: args.DropTables,
		KeepTables: args.KeepTables,
		KeepOutput: args.KeepOutput,
	})

	summary, runErr := runner.Run(ctx, args.Suites)

	if closeErr := session.Close(); closeErr != nil {
		slog.Error("Worker did not shut down cleanly", "worker", args.WorkerPath, "error", closeErr)

		if runErr == nil {
			runErr = closeErr
		}
	}

	slog.Info("Run finished", "suites", summary.Suites, "tests", summary.Total, "failures", summary.Failures)

	if args.ReportPath != "" {
		if err := w.saveReport(args, summary, failures); err != nil {
			return errors.Join(runErr, err)
		}
	}

	if runErr != nil {
		return runErr
	}

	w.UI.DisplaySummary(ctx, summary)

	if !summary.Passed() {
		return m.NewError(m.ClassTestFailures, "%d test(s) failed.", summary.Failures)
	}

	return nil
}

func (w *workflow) checkWorker(path string) error {
	if path == "" || !w.FS.FileExists(path) || !strings.Contains(path, workerName) {
		slog.Error("Unusable worker", "worker", path)
		return m.NewError(m.ClassConfiguration, msgUnusableWorker)
	}

	return nil
}

func (w *workflow) sanitizer(ctx context.Context, args RunArgs) adapter.Sanitizer {
	if args.NoSanitize {
		slog.Info("Sanitization disabled")
		return nil
	}

	sanitizer, err := w.FindSanitizer(args.SanitizerPath)
	if err != nil {
		w.UI.DisplayNotice(ctx, msgOTSMissing)
		return nil
	}

	return sanitizer
}

func (w *workflow) saveReport(args RunArgs, summary m.RunSummary, failures spill.Spill[m.Outcome]) error {
	report := m.RunReport{Worker: args.WorkerPath, Summary: summary}

	err := failures.Range(func(_ uint64, outcome m.Outcome) error {
		report.Outcomes = append(report.Outcomes, outcome)
		return nil
	})
	if err != nil {
		return fmt.Errorf("read failure log: %w", err)
	}

	if err := w.Reports.SaveReport(args.ReportPath, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	slog.Info("Saved report", "path", args.ReportPath, "failures", len(report.Outcomes))

	return nil
}

// List loads each suite and prints its test cases without running anything.
func (w *workflow) List(ctx context.Context, args ListArgs) error {
	if len(args.Suites) == 0 {
		return m.NewError(m.ClassConfiguration, msgNoTests)
	}

	worker := args.WorkerPath
	if worker == "" {
		worker = workerName
	}

	runner := NewRunner(RunnerDeps{}, RunnerOptions{
		WorkerPath: worker,
		DropTables: args.DropTables,
		KeepTables: args.KeepTables,
	})

	for _, path := range args.Suites {
		suite, err := w.loader.Load(path)
		if err != nil {
			return err
		}

		cases := make([]controller.CaseListing, 0, len(suite.Tests))

		for _, tc := range suite.Tests {
			listing := controller.CaseListing{
				Case:           tc,
				ExpectedPath:   suite.ExpectedPath(tc),
				ExpectedExists: w.FS.FileExists(suite.ExpectedPath(tc)),
			}

			if args.ShowCommands {
				out := filepath.Join(os.TempDir(), tc.OutputFileName())
				listing.Command = shellquote.Join(append([]string{worker}, runner.BuildArgs(tc, out)...)...)
			}

			cases = append(cases, listing)
		}

		w.UI.DisplayListing(ctx, suite, cases)
	}

	return nil
}

// Inspect prints a native summary of each font. Unreadable fonts are reported
// alongside the others and make the call fail.
func (w *workflow) Inspect(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return m.NewError(m.ClassConfiguration, "No fonts supplied.")
	}

	summaries := make([]m.FontSummary, 0, len(paths))
	errs := map[string]error{}

	for _, path := range paths {
		summary, err := w.Inspector.Inspect(path)
		if err != nil {
			errs[path] = err
			continue
		}

		summaries = append(summaries, summary)
	}

	w.UI.DisplayFontSummaries(ctx, summaries, errs)

	if len(errs) > 0 {
		return fmt.Errorf("%d font(s) could not be inspected", len(errs))
	}

	return nil
}

// View replays the failures and summary of a saved run report.
func (w *workflow) View(ctx context.Context, reportPath string) error {
	report, err := w.Reports.LoadReport(reportPath)
	if err != nil {
		return m.WrapError(m.ClassConfiguration, err, "load report %s", reportPath)
	}

	w.UI.DisplayNotice(ctx, fmt.Sprintf("Report for %s: %d suite(s), %d test(s)",
		report.Worker, report.Summary.Suites, report.Summary.Total))

	for _, outcome := range report.Outcomes {
		w.UI.DisplayOutcome(ctx, outcome)
	}

	w.UI.DisplaySummary(ctx, report.Summary)

	return nil
}
