package domain

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsetcheck.dev/pkg/subsetcheck/internal/adapter"
	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
	"subsetcheck.dev/pkg/subsetcheck/pkg/spill"
)

const (
	suitePath   = "/data/tests/basics.tests"
	expectedDir = "/data/expected/basics"
	workerPath  = "/opt/harfbuzz/bin/hb-subset"
)

type runnerFixture struct {
	fs        *memFS
	session   *fakeSession
	dumper    *fakeDumper
	sanitizer *fakeSanitizer
	inspector *fakeInspector
	ui        *recordingUI
	failures  spill.Spill[m.Outcome]
}

func newRunnerFixture(t *testing.T, suite string) *runnerFixture {
	t.Helper()

	failures, err := spill.New[m.Outcome](t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = failures.Close() })

	return &runnerFixture{
		fs:        newMemFS(map[string]string{suitePath: suite}),
		session:   &fakeSession{},
		dumper:    &fakeDumper{dumps: map[string]string{}},
		sanitizer: &fakeSanitizer{report: adapter.SanitizeReport{Passed: true}},
		inspector: &fakeInspector{},
		ui:        &recordingUI{},
		failures:  failures,
	}
}

func (f *runnerFixture) runner(opts RunnerOptions) *Runner {
	deps := RunnerDeps{
		Session:    f.session,
		Loader:     NewSuiteLoader(f.fs, NewProfileTable(f.fs)),
		Comparator: NewComparator(f.dumper, f.fs),
		Inspector:  f.inspector,
		FS:         f.fs,
		UI:         f.ui,
		Outcomes:   f.failures,
	}

	if f.sanitizer != nil {
		deps.Sanitizer = f.sanitizer
	}

	if opts.WorkerPath == "" {
		opts.WorkerPath = workerPath
	}

	return NewRunner(deps, opts)
}

// expect registers a matching expected dump and worker output for a case.
func (f *runnerFixture) expect(expectedName, outputName, dump string) {
	f.fs.files[filepath.Join(expectedDir, expectedName)] = dump
	f.dumper.dumps[outputName] = dump
}

const twoCaseSuite = "FONTS:\nRoboto.ttf\nPROFILES:\ndrop-hints.txt\nSUBSETS:\nab\nno-unicodes\n"

func TestRunner_AllPass(t *testing.T) {
	f := newRunnerFixture(t, twoCaseSuite)
	f.expect("Roboto.drop-hints.61,62.ttx", "Roboto.drop-hints.61,62-subset.ttf", expectedDump)
	f.expect("Roboto.drop-hints.no-unicodes.ttx", "Roboto.drop-hints.no-unicodes-subset.ttf", expectedDump)

	summary, err := f.runner(RunnerOptions{DropTables: []string{"DSIG"}, KeepTables: []string{"sbix"}}).
		Run(context.Background(), []string{suitePath})
	require.NoError(t, err)

	assert.Equal(t, m.RunSummary{Suites: 1, Total: 2}, summary)
	assert.True(t, summary.Passed())
	assert.Equal(t, uint64(0), f.failures.Len())

	require.Len(t, f.session.sent, 2)
	assert.Equal(t, []string{
		"--font-file=/data/fonts/Roboto.ttf",
		"--output-file=/tmp/subsetcheck-1/Roboto.drop-hints.61,62-subset.ttf",
		"--unicodes=61,62",
		"--drop-tables+=DSIG",
		"--drop-tables-=sbix",
		"--no-hinting",
	}, f.session.sent[0])
	assert.Contains(t, f.session.sent[1], "--unicodes=")

	assert.Len(t, f.sanitizer.checked, 2)
	assert.Equal(t, []string{"/tmp/subsetcheck-1", "/tmp/subsetcheck-2"}, f.fs.removed)

	require.Len(t, f.ui.commands, 2)
	assert.Equal(t, workerPath+" --font-file=/data/fonts/Roboto.ttf "+
		"--output-file=/tmp/subsetcheck-1/Roboto.drop-hints.61,62-subset.ttf --unicodes=61,62 "+
		"--drop-tables+=DSIG --drop-tables-=sbix --no-hinting", f.ui.commands[0])

	for _, outcome := range f.ui.outcomes {
		assert.Equal(t, m.StageDone, outcome.Stage)
		assert.False(t, outcome.Failed())
	}
}

func TestRunner_WorkerReportsFailure(t *testing.T) {
	f := newRunnerFixture(t, twoCaseSuite)
	f.session.script = []sendResult{{token: "error"}}
	f.expect("Roboto.drop-hints.no-unicodes.ttx", "Roboto.drop-hints.no-unicodes-subset.ttf", expectedDump)

	summary, err := f.runner(RunnerOptions{}).Run(context.Background(), []string{suitePath})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, map[m.Class]int{m.ClassProtocol: 1}, summary.ByClass)

	failed := f.ui.outcomes[0]
	assert.Equal(t, m.StageProtocolFailed, failed.Stage)
	assert.Equal(t, failed.Command+" failed", failed.Message)
	assert.Equal(t, "/tmp/subsetcheck-1/Roboto.drop-hints.61,62-subset.ttf", failed.OutputFile)

	// Only the second case got as far as the dump tool.
	assert.Equal(t, []string{"/tmp/subsetcheck-2/Roboto.drop-hints.no-unicodes-subset.ttf"}, f.dumper.dumped)
	assert.Equal(t, []string{"/tmp/subsetcheck-2"}, f.fs.removed)
	assert.Equal(t, uint64(1), f.failures.Len())
}

func TestRunner_MismatchCarriesDiffAndFontSummary(t *testing.T) {
	f := newRunnerFixture(t, "FONTS:\nRoboto.ttf\nPROFILES:\ndefault\nSUBSETS:\na\n")
	f.fs.files[filepath.Join(expectedDir, "Roboto.default.61.ttx")] = expectedDump
	f.dumper.dumps["Roboto.default.61-subset.ttf"] = "<ttFont>\n</ttFont>\n"

	out := "/tmp/subsetcheck-1/Roboto.default.61-subset.ttf"
	f.inspector.summaries = map[string]m.FontSummary{
		out: {Path: out, Glyphs: 2, HasCmap: true, CmapLow: 0x61, CmapHigh: 0x61},
	}

	summary, err := f.runner(RunnerOptions{}).Run(context.Background(), []string{suitePath})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failures)

	outcome := f.ui.outcomes[0]
	assert.Equal(t, m.ClassMismatch, outcome.Class)
	assert.Equal(t, m.StageComparisonFailed, outcome.Stage)
	assert.Contains(t, outcome.Diagnostic, "+<ttFont>\n")
	assert.Contains(t, outcome.Diagnostic, "actual font: 2 glyph(s), cmap U+0061..U+0061")
	assert.Empty(t, f.sanitizer.checked)
	assert.Empty(t, f.fs.removed)

	var spilled []m.Outcome
	require.NoError(t, f.failures.Range(func(_ uint64, o m.Outcome) error {
		spilled = append(spilled, o)
		return nil
	}))
	assert.Equal(t, []m.Outcome{outcome}, spilled)
}

func TestRunner_SanitizationFailure(t *testing.T) {
	f := newRunnerFixture(t, "FONTS:\nRoboto.ttf\nPROFILES:\ndefault\nSUBSETS:\na\n")
	f.expect("Roboto.default.61.ttx", "Roboto.default.61-subset.ttf", expectedDump)
	f.sanitizer.report = adapter.SanitizeReport{Passed: false, Output: "ERROR: cmap: bad subtable"}

	summary, err := f.runner(RunnerOptions{KeepOutput: KeepNone}).Run(context.Background(), []string{suitePath})
	require.NoError(t, err)
	assert.Equal(t, map[m.Class]int{m.ClassSanitization: 1}, summary.ByClass)

	outcome := f.ui.outcomes[0]
	assert.Equal(t, m.StageSanitizationFailed, outcome.Stage)
	assert.Equal(t, "ots for subsetted file fails.", outcome.Message)
	assert.Equal(t, "OTS Failure: ERROR: cmap: bad subtable", outcome.Diagnostic)
	assert.Contains(t, f.ui.notices, "Checking output with ots-sanitize.")

	// keep-output=none removes even failing output.
	assert.Equal(t, []string{"/tmp/subsetcheck-1"}, f.fs.removed)
	assert.Empty(t, outcome.OutputFile)
}

func TestRunner_SanitizerErrorIsPerTest(t *testing.T) {
	f := newRunnerFixture(t, "FONTS:\nRoboto.ttf\nPROFILES:\ndefault\nSUBSETS:\na\n")
	f.expect("Roboto.default.61.ttx", "Roboto.default.61-subset.ttf", expectedDump)
	f.sanitizer.err = errors.New("exec: killed")

	summary, err := f.runner(RunnerOptions{}).Run(context.Background(), []string{suitePath})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ByClass[m.ClassSanitization])
}

func TestRunner_NoSanitizerSkipsCheck(t *testing.T) {
	f := newRunnerFixture(t, "FONTS:\nRoboto.ttf\nPROFILES:\ndefault\nSUBSETS:\na\n")
	f.expect("Roboto.default.61.ttx", "Roboto.default.61-subset.ttf", expectedDump)
	f.sanitizer = nil

	summary, err := f.runner(RunnerOptions{KeepOutput: KeepAll}).Run(context.Background(), []string{suitePath})
	require.NoError(t, err)
	assert.True(t, summary.Passed())

	outcome := f.ui.outcomes[0]
	assert.True(t, outcome.SanitizeSkipped)
	assert.Equal(t, m.StageDone, outcome.Stage)
	assert.Empty(t, f.fs.removed)
	assert.NotEmpty(t, outcome.OutputFile)
}

func TestRunner_FatalSessionErrorAbortsRun(t *testing.T) {
	f := newRunnerFixture(t, twoCaseSuite)
	f.expect("Roboto.drop-hints.61,62.ttx", "Roboto.drop-hints.61,62-subset.ttf", expectedDump)
	f.session.script = []sendResult{
		{token: adapter.SuccessToken},
		{err: m.NewError(m.ClassProtocolDesync, "worker wrote an unexpected extra line")},
	}

	summary, err := f.runner(RunnerOptions{}).Run(context.Background(), []string{suitePath, suitePath})
	require.Error(t, err)
	assert.Equal(t, m.ClassProtocolDesync, m.ClassOf(err))

	assert.Equal(t, 1, summary.Total)
	assert.Len(t, f.session.sent, 2)
	assert.Len(t, f.ui.suites, 1)
}

func TestRunner_TimeoutIsPerTestUntilWorkerGone(t *testing.T) {
	f := newRunnerFixture(t, twoCaseSuite)
	f.session.script = []sendResult{
		{err: m.NewError(m.ClassProtocol, "no response from worker within 1s")},
		{err: m.NewError(m.ClassWorkerGone, "worker session abandoned")},
	}

	summary, err := f.runner(RunnerOptions{}).Run(context.Background(), []string{suitePath})
	require.Error(t, err)
	assert.Equal(t, m.ClassWorkerGone, m.ClassOf(err))

	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, "no response from worker within 1s", f.ui.outcomes[0].Diagnostic)
}

func TestRunner_SuiteParseErrorStopsRun(t *testing.T) {
	f := newRunnerFixture(t, "abc\n")

	_, err := f.runner(RunnerOptions{}).Run(context.Background(), []string{suitePath})
	require.Error(t, err)
	assert.Equal(t, m.ClassSuiteParse, m.ClassOf(err))
	assert.Empty(t, f.session.sent)
}

func TestRunner_CanceledContext(t *testing.T) {
	f := newRunnerFixture(t, twoCaseSuite)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner(RunnerOptions{}).Run(ctx, []string{suitePath})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.session.sent)
}

func TestParseKeepOutput(t *testing.T) {
	tests := map[string]KeepOutput{
		"all":     KeepAll,
		"Failed ": KeepFailed,
		"none":    KeepNone,
		"":        KeepFailed,
	}

	for in, want := range tests {
		got, err := ParseKeepOutput(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseKeepOutput("some")
	assert.Error(t, err)
}
