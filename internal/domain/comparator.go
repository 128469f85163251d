package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"subsetcheck.dev/pkg/subsetcheck/internal/adapter"
	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
)

const (
	msgParseFailed     = "failed to parse actual result"
	msgMismatch        = "ttx for expected and actual does not match."
	msgExpectedMissing = "expected file is missing"

	diffContextLines = 3
)

// lineEndings folds CRLF and lone CR into LF, the way a text-mode read does.
var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// Comparator checks a produced font binary against an expected dump.
type Comparator interface {
	Compare(ctx context.Context, actualPath, expectedPath string) m.ComparisonResult
}

type fontComparator struct {
	dumper adapter.FontDumper
	fs     adapter.FSAdapter
}

// NewComparator returns a Comparator dumping binaries with dumper and reading
// expected dumps through fs.
func NewComparator(dumper adapter.FontDumper, fs adapter.FSAdapter) Comparator {
	return &fontComparator{dumper: dumper, fs: fs}
}

// Compare parses the actual binary into its dump, normalizes both sides and
// diffs them. Byte layout differences that survive parsing do not matter.
func (c *fontComparator) Compare(ctx context.Context, actualPath, expectedPath string) m.ComparisonResult {
	actual, err := c.dumper.Dump(ctx, actualPath)
	if err != nil {
		slog.Debug("Actual result did not parse", "path", actualPath, "error", err)
		return m.Fail(m.ClassArtifactParse, msgParseFailed, err.Error())
	}

	expectedData, err := c.fs.ReadFile(expectedPath)
	if err != nil {
		slog.Warn("Expected dump unreadable", "path", expectedPath, "error", err)
		return m.Fail(m.ClassExpectedMissing, msgExpectedMissing, err.Error())
	}

	return CompareDumps(string(expectedData), actual, expectedPath)
}

// CompareDumps compares two TTX dumps after normalization. Line endings are
// not significant, so an expected file checked out with CRLF still matches.
func CompareDumps(expected, actual, expectedName string) m.ComparisonResult {
	expected = Normalize(lineEndings.Replace(expected))
	actual = Normalize(lineEndings.Replace(actual))

	if expected == actual {
		return m.Pass()
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: expectedName,
		ToFile:   "actual",
		Context:  diffContextLines,
	})
	if err != nil {
		diff = fmt.Sprintf("(diff unavailable: %v)\n", err)
	}

	return m.Fail(m.ClassMismatch, msgMismatch, diff)
}
