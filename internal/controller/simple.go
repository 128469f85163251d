package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
)

// SimpleUI prints plain, line-oriented output through a cobra command.
type SimpleUI struct {
	cmd   *cobra.Command
	color bool

	errorStyle  lipgloss.Style
	passStyle   lipgloss.Style
	noticeStyle lipgloss.Style
}

// NewSimpleUI creates a SimpleUI. color enables ANSI styling of labels.
func NewSimpleUI(cmd *cobra.Command, color bool) *SimpleUI {
	return &SimpleUI{
		cmd:         cmd,
		color:       color,
		errorStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		passStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		noticeStyle: lipgloss.NewStyle().Faint(true),
	}
}

// Output returns the command's stdout.
func (s *SimpleUI) Output() io.Writer {
	return s.cmd.OutOrStdout()
}

// DisplayNotice prints a one-off informational line.
func (s *SimpleUI) DisplayNotice(ctx context.Context, message string) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s\n", s.style(s.noticeStyle, message))
}

// DisplaySuiteStart announces a suite.
func (s *SimpleUI) DisplaySuiteStart(ctx context.Context, path string, _ int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Running tests in %s\n", path)
}

// DisplayCommand echoes the command about to be sent to the worker.
func (s *SimpleUI) DisplayCommand(ctx context.Context, command string) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s\n", command)
}

// DisplayOutcome prints nothing for a pass. For a failure it prints the
// diagnostic followed by the state needed to reproduce it by hand.
func (s *SimpleUI) DisplayOutcome(ctx context.Context, outcome m.Outcome) {
	if ctx.Err() != nil || !outcome.Failed() {
		return
	}

	if outcome.Diagnostic != "" {
		s.printf("%s", outcome.Diagnostic)

		if !strings.HasSuffix(outcome.Diagnostic, "\n") {
			s.printf("\n")
		}
	}

	s.printf("%s %s\n", s.style(s.errorStyle, "ERROR:"), outcome.Message)
	s.printf("Test State:\n")
	s.printf("  test.font_path    %s\n", absPath(outcome.FontPath))
	s.printf("  test.profile      %s\n", outcome.Profile)
	s.printf("  test.unicodes     %s\n", outcome.Unicodes)
	s.printf("  expected_file     %s\n", absPath(outcome.ExpectedFile))

	if outcome.OutputFile != "" {
		s.printf("  output_file       %s\n", outcome.OutputFile)
	}

	s.printf("  command           %s\n", outcome.Command)
}

// DisplaySummary prints the failure breakdown. The final pass line is only
// printed for a clean run; failing runs end with the returned error instead.
func (s *SimpleUI) DisplaySummary(ctx context.Context, summary m.RunSummary) {
	if ctx.Err() != nil {
		return
	}

	if summary.Passed() {
		s.printf("%s\n", s.style(s.passStyle, "All tests passed."))
		return
	}

	s.printf("\n%s", renderSummaryTable(summary))
}

func renderSummaryTable(summary m.RunSummary) string {
	var buf bytes.Buffer

	classes := make([]string, 0, len(summary.ByClass))
	for class := range summary.ByClass {
		classes = append(classes, string(class))
	}

	sort.Strings(classes)

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Failure", "Tests"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})

	for _, class := range classes {
		table.Append([]string{class, fmt.Sprintf("%d", summary.ByClass[m.Class(class)])})
	}

	table.SetFooter([]string{
		fmt.Sprintf("%d of %d failed", summary.Failures, summary.Total),
		fmt.Sprintf("%d", summary.Failures),
	})
	table.Render()

	return buf.String()
}

// DisplayListing prints the test cases of a suite as a table.
func (s *SimpleUI) DisplayListing(ctx context.Context, suite m.TestSuite, cases []CaseListing) {
	if ctx.Err() != nil {
		return
	}

	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Font", "Profile", "Code points", "Expected"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	missing := 0

	for _, c := range cases {
		expected := filepath.Base(c.ExpectedPath)
		if !c.ExpectedExists {
			expected += " (missing)"
			missing++
		}

		table.Append([]string{filepath.Base(c.Case.FontPath()), c.Case.ProfileName(), c.Case.Selection().Ranges(), expected})
	}

	table.SetFooter([]string{fmt.Sprintf("%d test(s)", len(cases)), "", "", fmt.Sprintf("%d missing", missing)})
	table.Render()

	s.printf("%s (expected dumps in %s)\n%s", suite.Path, suite.OutputDirectory, buf.String())

	for _, c := range cases {
		if c.Command != "" {
			s.printf("  %s\n", c.Command)
		}
	}
}

// DisplayFontSummaries prints native font summaries.
func (s *SimpleUI) DisplayFontSummaries(ctx context.Context, summaries []m.FontSummary, errs map[string]error) {
	if ctx.Err() != nil {
		return
	}

	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Font", "Family", "Glyphs", "UPM", "Cmap"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	for _, summary := range summaries {
		table.Append([]string{
			summary.Path,
			summary.Family,
			fmt.Sprintf("%d", summary.Glyphs),
			fmt.Sprintf("%d", summary.UnitsPerEm),
			FormatCmapRange(summary),
		})
	}

	table.Render()
	s.printf("%s", buf.String())

	paths := make([]string, 0, len(errs))
	for path := range errs {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	for _, path := range paths {
		s.printf("%s %s: %v\n", s.style(s.errorStyle, "ERROR:"), path, errs[path])
	}
}

// FormatCmapRange renders the cmap coverage of a summary.
func FormatCmapRange(summary m.FontSummary) string {
	if !summary.HasCmap {
		return "none"
	}

	return fmt.Sprintf("U+%04X..U+%04X", summary.CmapLow, summary.CmapHigh)
}

func (s *SimpleUI) style(style lipgloss.Style, text string) string {
	if !s.color {
		return text
	}

	return style.Render(text)
}

func (s *SimpleUI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func absPath(path string) string {
	if path == "" {
		return path
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return abs
}
