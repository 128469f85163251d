package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
)

// DefaultSanitizer is the validator looked up on PATH when none is configured.
const DefaultSanitizer = "ots-sanitize"

// SanitizeReport is the verdict of a binary validity check.
type SanitizeReport struct {
	Passed bool
	Output string
}

// Sanitizer validates a font binary independently of its content.
type Sanitizer interface {
	Check(ctx context.Context, path string) (SanitizeReport, error)
}

// OTSSanitizer runs ots-sanitize as a one-shot command.
type OTSSanitizer struct {
	path   string
	runner CommandRunner
}

// FindOTSSanitizer resolves name (a path or a command on PATH). A missing
// tool yields a ToolUnavailable error, which callers downgrade to a notice.
func FindOTSSanitizer(name string, runner CommandRunner) (*OTSSanitizer, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultSanitizer
	}

	path, err := exec.LookPath(name)
	if err != nil {
		slog.Info("Sanitizer not found", "name", name, "error", err)
		return nil, m.WrapError(m.ClassToolUnavailable, err, "sanitizer %s", name)
	}

	return &OTSSanitizer{path: path, runner: runner}, nil
}

// Path is the resolved sanitizer executable.
func (s *OTSSanitizer) Path() string {
	return s.path
}

// Check validates the font at path. A non-zero exit status fails the check and
// the tool's own output becomes the report.
func (s *OTSSanitizer) Check(ctx context.Context, path string) (SanitizeReport, error) {
	res, err := s.runner.Run(ctx, []string{s.path, path})
	if err != nil {
		return SanitizeReport{}, fmt.Errorf("sanitize %s: %w", path, err)
	}

	report := strings.TrimSpace(res.Stderr)
	if report == "" {
		report = strings.TrimSpace(res.Stdout)
	}

	return SanitizeReport{Passed: res.ExitCode == 0, Output: report}, nil
}
