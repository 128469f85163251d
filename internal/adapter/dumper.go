package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
)

// FontDumper turns a font binary into its structured textual dump.
type FontDumper interface {
	// Available checks that the dump tooling is installed.
	Available(ctx context.Context) error
	// Dump returns the structured dump of the font at path, with "\n" line endings.
	Dump(ctx context.Context, path string) (string, error)
}

// ttxScript writes the TTX dump of argv[1] to stdout. The newline is fixed so
// dumps compare byte for byte across platforms.
const ttxScript = `import sys
from fontTools.ttLib import TTFont
with TTFont(sys.argv[1]) as font:
    font.saveXML(sys.stdout.buffer, newlinestr="\n")
`

const fontToolsProbe = "import fontTools.ttLib"

// FontToolsDumper produces TTX dumps through a Python interpreter with
// fontTools installed.
type FontToolsDumper struct {
	python string
	runner CommandRunner
}

// NewFontToolsDumper constructs a FontToolsDumper running python via runner.
func NewFontToolsDumper(python string, runner CommandRunner) *FontToolsDumper {
	return &FontToolsDumper{python: python, runner: runner}
}

// Available reports a ToolUnavailable error when fontTools cannot be imported.
func (d *FontToolsDumper) Available(ctx context.Context) error {
	res, err := d.runner.Run(ctx, []string{d.python, "-c", fontToolsProbe})
	if err != nil {
		return m.WrapError(m.ClassToolUnavailable, err, "fonttools is not present")
	}

	if res.ExitCode != 0 {
		slog.Warn("fontTools import failed", "python", d.python, "stderr", res.Stderr)
		return m.NewError(m.ClassToolUnavailable, "fonttools is not present")
	}

	return nil
}

// Dump returns the TTX dump of the font at path.
func (d *FontToolsDumper) Dump(ctx context.Context, path string) (string, error) {
	res, err := d.runner.Run(ctx, []string{d.python, "-c", ttxScript, path})
	if err != nil {
		return "", fmt.Errorf("dump %s: %w", path, err)
	}

	if res.ExitCode != 0 {
		slog.Debug("TTX dump failed", "font", path, "stderr", res.Stderr)
		return "", fmt.Errorf("dump %s: %s", path, lastLine(res.Stderr))
	}

	return res.Stdout, nil
}

// lastLine returns the last non-empty line, which for a Python traceback is
// the exception message.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
