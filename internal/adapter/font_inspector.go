package adapter

import (
	"fmt"
	"os"

	"seehuhn.de/go/sfnt"

	m "subsetcheck.dev/pkg/subsetcheck/internal/model"
)

// FontInspector reads a short summary of a font binary without external tools.
type FontInspector interface {
	Inspect(path string) (m.FontSummary, error)
}

// SfntInspector parses fonts with seehuhn.de/go/sfnt.
type SfntInspector struct{}

// NewSfntInspector constructs a SfntInspector.
func NewSfntInspector() *SfntInspector {
	return &SfntInspector{}
}

// Inspect summarizes the font at path.
func (SfntInspector) Inspect(path string) (m.FontSummary, error) {
	file, err := os.Open(path) // #nosec G304 -- inspecting user-provided fonts.
	if err != nil {
		return m.FontSummary{}, err
	}
	defer file.Close()

	font, err := sfnt.Read(file)
	if err != nil {
		return m.FontSummary{}, fmt.Errorf("parse %s: %w", path, err)
	}

	summary := m.FontSummary{
		Path:       path,
		Family:     font.FamilyName,
		Glyphs:     font.NumGlyphs(),
		UnitsPerEm: font.UnitsPerEm,
	}

	if subtable, err := font.CMapTable.GetBest(); err == nil && subtable != nil {
		summary.HasCmap = true
		summary.CmapLow, summary.CmapHigh = subtable.CodeRange()
	}

	return summary, nil
}
