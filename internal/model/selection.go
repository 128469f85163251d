package model

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// SelectAllLine retains every code point of the input font.
	SelectAllLine = "*"
	// SelectNoneLine subsets to an empty code point set.
	SelectNoneLine = "no-unicodes"

	retainAllToken = "retain-all-codepoint"
	maxScalar      = 0x10FFFF
)

// Selection is an ordered set of Unicode scalar values to retain, together
// with the textual form handed to the worker's --unicodes flag.
type Selection struct {
	text   string
	all    bool
	points []rune
}

// SelectAll returns the selection that keeps every code point.
func SelectAll() Selection {
	return Selection{text: SelectAllLine, all: true}
}

// NewSelection builds a selection from code points. The code point set drops
// duplicates while keeping first-seen order; the --unicodes text lists every
// point as given, since expected-file names are derived from it.
func NewSelection(points []rune) (Selection, error) {
	seen := make(map[rune]struct{}, len(points))
	kept := make([]rune, 0, len(points))
	hex := make([]string, 0, len(points))

	for _, r := range points {
		if !isScalar(r) {
			return Selection{}, fmt.Errorf("U+%04X is not a Unicode scalar value", r)
		}

		hex = append(hex, fmt.Sprintf("%X", r))

		if _, dup := seen[r]; dup {
			continue
		}

		seen[r] = struct{}{}
		kept = append(kept, r)
	}

	return Selection{text: strings.Join(hex, ","), points: kept}, nil
}

// ParseSelection parses one subset line of a suite description.
//
// Accepted forms: "*" (all code points), "no-unicodes" (empty), a comma list of
// "U+XXXX" values or "U+XXXX-U+YYYY" ranges, or otherwise the literal
// characters of the line.
func ParseSelection(line string) (Selection, error) {
	switch {
	case line == SelectAllLine:
		return SelectAll(), nil
	case line == SelectNoneLine:
		return Selection{}, nil
	case strings.HasPrefix(line, "U+"):
		return parseHexSelection(line)
	}

	if !utf8.ValidString(line) {
		return Selection{}, fmt.Errorf("subset %q is not valid UTF-8", line)
	}

	return NewSelection([]rune(line))
}

func parseHexSelection(line string) (Selection, error) {
	text := strings.ReplaceAll(line, "U+", "")

	var points []rune

	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		low, high, isRange := strings.Cut(item, "-")

		first, err := parseScalar(low)
		if err != nil {
			return Selection{}, err
		}

		last := first
		if isRange {
			if last, err = parseScalar(high); err != nil {
				return Selection{}, err
			}

			if last < first {
				return Selection{}, fmt.Errorf("range %s is reversed", item)
			}
		}

		for r := first; r <= last; r++ {
			if isScalar(r) {
				points = append(points, r)
			}
		}
	}

	sel, err := NewSelection(points)
	if err != nil {
		return Selection{}, err
	}

	// The suite's own spelling is kept: expected-file names are derived from it.
	sel.text = text

	return sel, nil
}

func parseScalar(s string) (rune, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad code point %q: %w", s, err)
	}

	if v > maxScalar {
		return 0, fmt.Errorf("code point %X out of range", v)
	}

	return rune(v), nil
}

func isScalar(r rune) bool {
	return r >= 0 && r <= maxScalar && (r < 0xD800 || r > 0xDFFF)
}

// Unicodes returns the value passed to the worker's --unicodes flag.
func (s Selection) Unicodes() string {
	return s.text
}

// All reports whether every code point is retained.
func (s Selection) All() bool {
	return s.all
}

// Empty reports whether the selection retains no code points.
func (s Selection) Empty() bool {
	return !s.all && len(s.points) == 0
}

// Codepoints returns a copy of the selected code points in order.
func (s Selection) Codepoints() []rune {
	out := make([]rune, len(s.points))
	copy(out, s.points)

	return out
}

// FileToken is the selection's component of derived file names.
func (s Selection) FileToken() string {
	switch {
	case s.all:
		return retainAllToken
	case s.Empty():
		return SelectNoneLine
	default:
		return s.text
	}
}

// Ranges renders the selection as a compact range list, e.g. "41-43,61".
// Runs are merged in selection order.
func (s Selection) Ranges() string {
	if s.all {
		return SelectAllLine
	}

	var b strings.Builder

	for i := 0; i < len(s.points); {
		j := i
		for j+1 < len(s.points) && s.points[j+1] == s.points[j]+1 {
			j++
		}

		if b.Len() > 0 {
			b.WriteByte(',')
		}

		if j == i {
			fmt.Fprintf(&b, "%X", s.points[i])
		} else {
			fmt.Fprintf(&b, "%X-%X", s.points[i], s.points[j])
		}

		i = j + 1
	}

	return b.String()
}
