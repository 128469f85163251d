package domain

import (
	"fmt"
	"path/filepath"
	"strings"

	"subsetcheck.dev/pkg/subsetcheck/internal/adapter"
)

// builtinProfiles maps profile names to worker flags for suites that do not
// ship a profiles/ directory. New profiles are added here.
var builtinProfiles = map[string][]string{
	"default":                  {},
	"drop-hints":               {"--no-hinting"},
	"drop-hints-retain-gids":   {"--no-hinting", "--retain-gids"},
	"retain-gids":              {"--retain-gids"},
	"desubroutinize":           {"--desubroutinize"},
	"name-ids":                 {"--name-IDs=0,1,2"},
	"layout-features":          {"--layout-features=*"},
	"keep-all-layout-features": {"--layout-features=*"},
	"notdef-outline":           {"--notdef-outline"},
	"no-prune-unicode-ranges":  {"--no-prune-unicode-ranges"},
	"glyph-names":              {"--glyph-names"},
	"no-layout-closure":        {"--no-layout-closure"},
}

// ProfileTable resolves profile names to worker flags.
type ProfileTable interface {
	Flags(baseDir, name string) ([]string, error)
}

type profileTable struct {
	fs      adapter.FSAdapter
	builtin map[string][]string
}

// NewProfileTable returns a table that prefers <baseDir>/profiles/<name> (one
// flag per line) and falls back to the built-in profiles.
func NewProfileTable(fs adapter.FSAdapter) ProfileTable {
	return &profileTable{fs: fs, builtin: builtinProfiles}
}

func (p *profileTable) Flags(baseDir, name string) ([]string, error) {
	path := filepath.Join(baseDir, "profiles", name)
	if p.fs.FileExists(path) {
		data, err := p.fs.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read profile %s: %w", path, err)
		}

		return parseProfile(string(data)), nil
	}

	key := strings.TrimSuffix(name, filepath.Ext(name))
	if flags, ok := p.builtin[key]; ok {
		return append([]string(nil), flags...), nil
	}

	return nil, fmt.Errorf("unknown profile %q", name)
}

func parseProfile(text string) []string {
	var flags []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		flags = append(flags, line)
	}

	return flags
}
