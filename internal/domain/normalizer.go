package domain

import "regexp"

// Fields that fontTools rewrites on every save. Both patterns are qualified by
// the attribute name so they never touch other numbers or strings.
var (
	checkSumAdjustmentRe = regexp.MustCompile(`checkSumAdjustment value="(?:0x[0-9a-fA-F]+)?"`)
	ttLibVersionRe       = regexp.MustCompile(` ttLibVersion="[^"]*"`)
)

const (
	blankCheckSumAdjustment = `checkSumAdjustment value=""`
	blankTTLibVersion       = ` ttLibVersion=""`
)

// Normalize blanks the first checkSumAdjustment value and the first
// ttLibVersion attribute of a TTX dump. The fields are blanked rather than
// removed, so a second pass matches the already-blank field again and leaves
// the text unchanged.
func Normalize(dump string) string {
	dump = replaceFirst(checkSumAdjustmentRe, dump, blankCheckSumAdjustment)
	return replaceFirst(ttLibVersionRe, dump, blankTTLibVersion)
}

func replaceFirst(re *regexp.Regexp, s, replacement string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}

	return s[:loc[0]] + replacement + s[loc[1]:]
}
