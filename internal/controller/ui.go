// Package controller renders subset-check progress and results.
package controller

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
)

// CaseListing is one row of a suite listing.
type CaseListing struct {
	Case           m.TestCase
	ExpectedPath   string
	ExpectedExists bool
	Command        string
}

// UI receives progress and results as they are computed. Output is streaming:
// every call prints immediately.
type UI interface {
	// Output is where worker diagnostics are forwarded.
	Output() io.Writer
	DisplayNotice(ctx context.Context, message string)
	DisplaySuiteStart(ctx context.Context, path string, tests int)
	DisplayCommand(ctx context.Context, command string)
	DisplayOutcome(ctx context.Context, outcome m.Outcome)
	DisplaySummary(ctx context.Context, summary m.RunSummary)
	DisplayListing(ctx context.Context, suite m.TestSuite, cases []CaseListing)
	DisplayFontSummaries(ctx context.Context, summaries []m.FontSummary, errs map[string]error)
}

// NewUI returns the console UI. Labels are styled only when color is set,
// typically when stdout is a terminal.
func NewUI(cmd *cobra.Command, color bool) UI {
	return NewSimpleUI(cmd, color)
}

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- file descriptors fit in int.
}
