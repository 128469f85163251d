// Package model defines the data structures shared by the subset checker.
package model

import (
	"path/filepath"
	"strings"
)

const (
	outputSuffix   = "-subset"
	expectedSuffix = ".ttx"
)

// TestCase is one subsetting scenario: an input font, a named profile of
// worker flags and a code point selection. It is immutable once built.
type TestCase struct {
	fontPath  string
	profile   string
	flags     []string
	selection Selection
}

// NewTestCase builds a TestCase. profile is reduced to its base name without
// extension, so "profiles/drop-hints.txt" and "drop-hints" name the same profile.
func NewTestCase(fontPath, profile string, flags []string, selection Selection) TestCase {
	copied := make([]string, len(flags))
	copy(copied, flags)

	return TestCase{
		fontPath:  fontPath,
		profile:   stem(profile),
		flags:     copied,
		selection: selection,
	}
}

// FontPath is the path of the input font.
func (t TestCase) FontPath() string { return t.fontPath }

// ProfileName is the profile's name without directory or extension.
func (t TestCase) ProfileName() string { return t.profile }

// ProfileFlags returns a copy of the profile's worker flags.
func (t TestCase) ProfileFlags() []string {
	out := make([]string, len(t.flags))
	copy(out, t.flags)

	return out
}

// Selection returns the code point selection.
func (t TestCase) Selection() Selection { return t.selection }

// FontName is the base of every file name derived from this case:
// "<font-stem>.<profile>.<selection-token>".
func (t TestCase) FontName() string {
	return stem(t.fontPath) + "." + t.profile + "." + t.selection.FileToken()
}

// FontExtension is the input font's extension, including the dot.
func (t TestCase) FontExtension() string {
	return filepath.Ext(t.fontPath)
}

// OutputFileName is the name of the subset binary written by the worker.
func (t TestCase) OutputFileName() string {
	return t.FontName() + outputSuffix + t.FontExtension()
}

// ExpectedFileName is the name of the expected structured dump.
func (t TestCase) ExpectedFileName() string {
	return t.FontName() + expectedSuffix
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
