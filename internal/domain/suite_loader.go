package domain

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"subsetcheck.dev/pkg/subsetcheck/internal/adapter"
	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
)

const (
	sectionFonts    = "FONTS:"
	sectionProfiles = "PROFILES:"
	sectionSubsets  = "SUBSETS:"
)

// SuiteLoader turns a suite description file into a TestSuite.
type SuiteLoader interface {
	Load(path string) (m.TestSuite, error)
}

type suiteLoader struct {
	fs       adapter.FSAdapter
	profiles ProfileTable
}

// NewSuiteLoader constructs a SuiteLoader reading through fs.
func NewSuiteLoader(fs adapter.FSAdapter, profiles ProfileTable) SuiteLoader {
	return &suiteLoader{fs: fs, profiles: profiles}
}

// Load reads and parses the suite at path. Any malformed record fails the
// whole suite with a SuiteParseError.
func (l *suiteLoader) Load(path string) (m.TestSuite, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return m.TestSuite{}, m.WrapError(m.ClassSuiteParse, err, "read suite %s", path)
	}

	suite, err := ParseSuite(path, string(data), l.profiles)
	if err != nil {
		slog.Error("Failed to parse suite", "path", path, "error", err)
		return m.TestSuite{}, err
	}

	slog.Debug("Loaded suite", "path", path, "tests", len(suite.Tests))

	return suite, nil
}

type suiteDefinition struct {
	fonts    []string
	profiles []string
	subsets  []string
}

// ParseSuite parses a suite description. Files are resolved relative to the
// parent of the suite's directory: fonts/<font>, profiles/<profile> and
// expected/<suite-stem>. Test cases are fonts x profiles x subsets, in order.
func ParseSuite(path, definition string, profiles ProfileTable) (m.TestSuite, error) {
	def, err := parseSections(definition)
	if err != nil {
		return m.TestSuite{}, m.WrapError(m.ClassSuiteParse, err, "parse suite %s", path)
	}

	base := suiteBaseDir(path)
	suite := m.TestSuite{
		Path:            path,
		OutputDirectory: filepath.Join(base, "expected", suiteStem(path)),
	}

	selections := make([]m.Selection, 0, len(def.subsets))

	for _, line := range def.subsets {
		sel, err := m.ParseSelection(line)
		if err != nil {
			return m.TestSuite{}, m.WrapError(m.ClassSuiteParse, err, "parse suite %s", path)
		}

		selections = append(selections, sel)
	}

	for _, font := range def.fonts {
		fontPath := filepath.Join(base, "fonts", font)

		for _, profile := range def.profiles {
			flags, err := profiles.Flags(base, profile)
			if err != nil {
				return m.TestSuite{}, m.WrapError(m.ClassSuiteParse, err, "parse suite %s", path)
			}

			for _, sel := range selections {
				suite.Tests = append(suite.Tests, m.NewTestCase(fontPath, profile, flags, sel))
			}
		}
	}

	return suite, nil
}

func parseSections(definition string) (suiteDefinition, error) {
	var (
		def     suiteDefinition
		current *[]string
	)

	for i, raw := range strings.Split(definition, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		switch line {
		case sectionFonts:
			current = &def.fonts
			continue
		case sectionProfiles:
			current = &def.profiles
			continue
		case sectionSubsets:
			current = &def.subsets
			continue
		}

		if isSectionHeader(line) {
			return suiteDefinition{}, fmt.Errorf("line %d: unknown section %q", i+1, line)
		}

		if current == nil {
			return suiteDefinition{}, fmt.Errorf("line %d: %q appears before any section", i+1, line)
		}

		*current = append(*current, line)
	}

	return def, nil
}

// isSectionHeader matches "WORD:" style headers such as "INSTANCES:".
func isSectionHeader(line string) bool {
	name, ok := strings.CutSuffix(line, ":")
	if !ok || name == "" {
		return false
	}

	for _, r := range name {
		if (r < 'A' || r > 'Z') && r != '_' {
			return false
		}
	}

	return true
}

func suiteBaseDir(path string) string {
	return filepath.Dir(filepath.Dir(path))
}

func suiteStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
