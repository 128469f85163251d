package domain

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"

	"subsetcheck.dev/pkg/subsetcheck/internal/adapter"
	"subsetcheck.dev/pkg/subsetcheck/internal/controller"
	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
	"subsetcheck.dev/pkg/subsetcheck/pkg/spill"
)

const (
	msgSanitizeFailed = "ots for subsetted file fails."
	tempDirPattern    = "subsetcheck-*"
)

// KeepOutput decides which per-test output directories survive the run.
type KeepOutput string

// Output retention policies.
const (
	KeepAll    KeepOutput = "all"
	KeepFailed KeepOutput = "failed"
	KeepNone   KeepOutput = "none"
)

// ParseKeepOutput validates a retention policy name.
func ParseKeepOutput(value string) (KeepOutput, error) {
	switch k := KeepOutput(strings.ToLower(strings.TrimSpace(value))); k {
	case KeepAll, KeepFailed, KeepNone:
		return k, nil
	case "":
		return KeepFailed, nil
	default:
		return "", fmt.Errorf("invalid keep-output policy %q (want all, failed or none)", value)
	}
}

// RunnerOptions are the run-wide settings applied to every test case.
type RunnerOptions struct {
	// WorkerPath is shown as the first word of reproduction commands.
	WorkerPath string
	// DropTables are always added to the worker's drop set.
	DropTables []string
	// KeepTables are always removed from the worker's drop set.
	KeepTables []string
	KeepOutput KeepOutput
}

// Runner drives every test case of every suite through one worker session.
// It is single-threaded: the batch protocol allows one request in flight.
type Runner struct {
	session    adapter.Session
	loader     SuiteLoader
	comparator Comparator
	sanitizer  adapter.Sanitizer
	inspector  adapter.FontInspector
	fs         adapter.FSAdapter
	ui         controller.UI
	outcomes   spill.Spill[m.Outcome]
	opts       RunnerOptions
}

// RunnerDeps bundles the collaborators of a Runner. Sanitizer, Inspector and
// Outcomes may be nil. Failing outcomes are appended to Outcomes.
type RunnerDeps struct {
	Session    adapter.Session
	Loader     SuiteLoader
	Comparator Comparator
	Sanitizer  adapter.Sanitizer
	Inspector  adapter.FontInspector
	FS         adapter.FSAdapter
	UI         controller.UI
	Outcomes   spill.Spill[m.Outcome]
}

// NewRunner constructs a Runner.
func NewRunner(deps RunnerDeps, opts RunnerOptions) *Runner {
	if opts.KeepOutput == "" {
		opts.KeepOutput = KeepFailed
	}

	return &Runner{
		session:    deps.Session,
		loader:     deps.Loader,
		comparator: deps.Comparator,
		sanitizer:  deps.Sanitizer,
		inspector:  deps.Inspector,
		fs:         deps.FS,
		ui:         deps.UI,
		outcomes:   deps.Outcomes,
		opts:       opts,
	}
}

// Run executes the suites in order. Per-test failures are recorded and the run
// continues; a suite that fails to load, a desynchronized or vanished worker,
// or a canceled context stop the run and are returned as the error.
func (r *Runner) Run(ctx context.Context, suitePaths []string) (m.RunSummary, error) {
	var summary m.RunSummary

	for _, path := range suitePaths {
		suite, err := r.loader.Load(path)
		if err != nil {
			return summary, err
		}

		summary.Suites++
		r.ui.DisplaySuiteStart(ctx, path, len(suite.Tests))

		for _, tc := range suite.Tests {
			if err := ctx.Err(); err != nil {
				return summary, fmt.Errorf("run canceled: %w", err)
			}

			outcome, err := r.RunTest(ctx, suite, tc)
			if err != nil {
				return summary, err
			}

			summary.Record(outcome)
			r.ui.DisplayOutcome(ctx, outcome)

			if r.outcomes != nil && outcome.Failed() {
				if err := r.outcomes.Append(outcome); err != nil {
					slog.Error("Failed to record outcome", "error", err)
				}
			}
		}
	}

	return summary, nil
}

// RunTest takes one test case from Built to a final outcome. The returned
// error is non-nil only for failures that must abort the run.
func (r *Runner) RunTest(ctx context.Context, suite m.TestSuite, tc m.TestCase) (m.Outcome, error) {
	outcome := m.Outcome{
		Suite:        suite.Path,
		FontPath:     tc.FontPath(),
		Profile:      tc.ProfileName(),
		Unicodes:     tc.Selection().Unicodes(),
		ExpectedFile: suite.ExpectedPath(tc),
		Stage:        m.StageBuilt,
	}

	dir, err := r.fs.CreateTempDir(tempDirPattern)
	if err != nil {
		return outcome, fmt.Errorf("create output dir: %w", err)
	}

	outFile := filepath.Join(dir, tc.OutputFileName())
	args := r.BuildArgs(tc, outFile)

	outcome.OutputFile = outFile
	outcome.Command = shellquote.Join(append([]string{r.opts.WorkerPath}, args...)...)

	r.ui.DisplayCommand(ctx, outcome.Command)

	outcome.Stage = m.StageDispatched

	token, err := r.session.Send(ctx, args)
	if err != nil {
		if m.IsFatal(err) {
			slog.Error("Worker session failed", "command", outcome.Command, "error", err)
			return outcome, err
		}

		outcome = failed(outcome, m.StageProtocolFailed, m.ClassProtocol, outcome.Command+" failed", err.Error())

		return r.finish(outcome, dir), nil
	}

	if token != adapter.SuccessToken {
		outcome = failed(outcome, m.StageProtocolFailed, m.ClassProtocol, outcome.Command+" failed",
			fmt.Sprintf("worker responded %q", token))

		return r.finish(outcome, dir), nil
	}

	result := r.comparator.Compare(ctx, outFile, outcome.ExpectedFile)
	if !result.Passed {
		diagnostic := result.Diagnostic
		if result.Class == m.ClassMismatch {
			diagnostic += r.describeFont(outFile)
		}

		outcome = failed(outcome, m.StageComparisonFailed, result.Class, result.Message, diagnostic)

		return r.finish(outcome, dir), nil
	}

	outcome.Stage = m.StageCompared

	if r.sanitizer == nil {
		outcome.SanitizeSkipped = true
	} else {
		r.ui.DisplayNotice(ctx, "Checking output with ots-sanitize.")

		report, err := r.sanitizer.Check(ctx, outFile)

		switch {
		case err != nil:
			outcome = failed(outcome, m.StageSanitizationFailed, m.ClassSanitization, msgSanitizeFailed, err.Error())
			return r.finish(outcome, dir), nil
		case !report.Passed:
			outcome = failed(outcome, m.StageSanitizationFailed, m.ClassSanitization, msgSanitizeFailed,
				"OTS Failure: "+report.Output)

			return r.finish(outcome, dir), nil
		}
	}

	outcome.Stage = m.StageDone

	return r.finish(outcome, dir), nil
}

// BuildArgs assembles the worker command for tc: input, output, code points,
// the run-wide table overrides, then the profile's flags.
func (r *Runner) BuildArgs(tc m.TestCase, outFile string) []string {
	args := []string{
		"--font-file=" + tc.FontPath(),
		"--output-file=" + outFile,
		"--unicodes=" + tc.Selection().Unicodes(),
	}

	if len(r.opts.DropTables) > 0 {
		args = append(args, "--drop-tables+="+strings.Join(r.opts.DropTables, ","))
	}

	if len(r.opts.KeepTables) > 0 {
		args = append(args, "--drop-tables-="+strings.Join(r.opts.KeepTables, ","))
	}

	return append(args, tc.ProfileFlags()...)
}

func (r *Runner) describeFont(path string) string {
	if r.inspector == nil {
		return ""
	}

	summary, err := r.inspector.Inspect(path)
	if err != nil {
		slog.Debug("Font inspection failed", "path", path, "error", err)
		return ""
	}

	return fmt.Sprintf("actual font: %d glyph(s), cmap %s\n", summary.Glyphs, controller.FormatCmapRange(summary))
}

func (r *Runner) finish(outcome m.Outcome, dir string) m.Outcome {
	keep := r.opts.KeepOutput == KeepAll || (r.opts.KeepOutput == KeepFailed && outcome.Failed())
	if keep {
		return outcome
	}

	if err := r.fs.RemoveAll(dir); err != nil {
		slog.Warn("Failed to remove output dir", "dir", dir, "error", err)
		return outcome
	}

	outcome.OutputFile = ""

	return outcome
}

func failed(outcome m.Outcome, stage m.Stage, class m.Class, message, diagnostic string) m.Outcome {
	outcome.Stage = stage
	outcome.Class = class
	outcome.Message = message
	outcome.Diagnostic = diagnostic

	return outcome
}
