package domain

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"subsetcheck.dev/pkg/subsetcheck/internal/adapter"
	"subsetcheck.dev/pkg/subsetcheck/internal/controller"
	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
)

// memFS is an in-memory FSAdapter.
type memFS struct {
	files   map[string]string
	dirs    int
	removed []string
}

func newMemFS(files map[string]string) *memFS {
	if files == nil {
		files = map[string]string{}
	}

	return &memFS{files: files}
}

func (f *memFS) ReadFile(path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}

	return []byte(data), nil
}

func (f *memFS) FileExists(path string) bool {
	_, ok := f.files[path]
	return ok
}

func (f *memFS) CreateTempDir(pattern string) (string, error) {
	f.dirs++
	return filepath.Join("/tmp", strings.Replace(pattern, "*", fmt.Sprint(f.dirs), 1)), nil
}

func (f *memFS) RemoveAll(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

type sendResult struct {
	token string
	err   error
}

// fakeSession answers each Send with the next scripted result, then with
// "success" once the script runs out.
type fakeSession struct {
	script   []sendResult
	sent     [][]string
	closed   bool
	closeErr error
}

func (s *fakeSession) Send(_ context.Context, args []string) (string, error) {
	s.sent = append(s.sent, append([]string(nil), args...))

	if len(s.script) == 0 {
		return adapter.SuccessToken, nil
	}

	next := s.script[0]
	s.script = s.script[1:]

	return next.token, next.err
}

func (s *fakeSession) Close() error {
	s.closed = true
	return s.closeErr
}

// fakeDumper returns dumps keyed by the base name of the dumped file.
type fakeDumper struct {
	availErr error
	dumps    map[string]string
	errs     map[string]error
	dumped   []string
}

func (d *fakeDumper) Available(context.Context) error {
	return d.availErr
}

func (d *fakeDumper) Dump(_ context.Context, path string) (string, error) {
	d.dumped = append(d.dumped, path)

	name := filepath.Base(path)
	if err, ok := d.errs[name]; ok {
		return "", err
	}

	dump, ok := d.dumps[name]
	if !ok {
		return "", fmt.Errorf("no dump for %s", name)
	}

	return dump, nil
}

type fakeSanitizer struct {
	report  adapter.SanitizeReport
	err     error
	checked []string
}

func (s *fakeSanitizer) Check(_ context.Context, path string) (adapter.SanitizeReport, error) {
	s.checked = append(s.checked, path)
	return s.report, s.err
}

type fakeInspector struct {
	summaries map[string]m.FontSummary
}

func (i *fakeInspector) Inspect(path string) (m.FontSummary, error) {
	summary, ok := i.summaries[path]
	if !ok {
		return m.FontSummary{}, fmt.Errorf("%s: not a font", path)
	}

	return summary, nil
}

type fakeReportStore struct {
	saved map[string]m.RunReport
}

func (s *fakeReportStore) SaveReport(path string, report m.RunReport) error {
	if s.saved == nil {
		s.saved = map[string]m.RunReport{}
	}

	s.saved[path] = report

	return nil
}

func (s *fakeReportStore) LoadReport(path string) (m.RunReport, error) {
	report, ok := s.saved[path]
	if !ok {
		return m.RunReport{}, fs.ErrNotExist
	}

	return report, nil
}

// recordingUI keeps everything it is asked to display.
type recordingUI struct {
	out       bytes.Buffer
	notices   []string
	suites    []string
	commands  []string
	outcomes  []m.Outcome
	summaries []m.RunSummary
	listings  [][]controller.CaseListing
	fonts     []m.FontSummary
	fontErrs  map[string]error
}

func (u *recordingUI) Output() io.Writer { return &u.out }

func (u *recordingUI) DisplayNotice(_ context.Context, message string) {
	u.notices = append(u.notices, message)
}

func (u *recordingUI) DisplaySuiteStart(_ context.Context, path string, _ int) {
	u.suites = append(u.suites, path)
}

func (u *recordingUI) DisplayCommand(_ context.Context, command string) {
	u.commands = append(u.commands, command)
}

func (u *recordingUI) DisplayOutcome(_ context.Context, outcome m.Outcome) {
	u.outcomes = append(u.outcomes, outcome)
}

func (u *recordingUI) DisplaySummary(_ context.Context, summary m.RunSummary) {
	u.summaries = append(u.summaries, summary)
}

func (u *recordingUI) DisplayListing(_ context.Context, _ m.TestSuite, cases []controller.CaseListing) {
	u.listings = append(u.listings, cases)
}

func (u *recordingUI) DisplayFontSummaries(_ context.Context, summaries []m.FontSummary, errs map[string]error) {
	u.fonts = summaries
	u.fontErrs = errs
}
