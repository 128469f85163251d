package model

import "path/filepath"

// TestSuite is the ordered list of test cases loaded from one suite
// description, plus the directory holding their expected dumps.
type TestSuite struct {
	Path            string
	OutputDirectory string
	Tests           []TestCase
}

// ExpectedPath returns where the expected dump of tc lives.
func (s TestSuite) ExpectedPath(tc TestCase) string {
	return filepath.Join(s.OutputDirectory, tc.ExpectedFileName())
}

// FontSummary is a short native description of a font binary.
type FontSummary struct {
	Path       string `yaml:"path"`
	Family     string `yaml:"family,omitempty"`
	Glyphs     int    `yaml:"glyphs"`
	UnitsPerEm uint16 `yaml:"units_per_em,omitempty"`
	CmapLow    rune   `yaml:"cmap_low,omitempty"`
	CmapHigh   rune   `yaml:"cmap_high,omitempty"`
	HasCmap    bool   `yaml:"has_cmap"`
}
