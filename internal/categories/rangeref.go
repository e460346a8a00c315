// Package categories discovers the category lists offered to the classifier.
// Each group curates its own categories as a data-validation dropdown in the
// spreadsheet; the package follows the validation formula to its source range
// and falls back to a static list when nothing usable is found.
package categories

import (
	"regexp"
	"strings"
)

// RangeRef is a source range extracted from a validation formula, split into
// the sheet title and an unqualified A1 range with anchoring dollars removed.
type RangeRef struct {
	Sheet string
	Range string
}

var (
	// ='Бюджет'!$A$4:$A$60 — quoted sheet title, possibly with doubled quotes.
	quotedRefPattern = regexp.MustCompile(`^=\s*'((?:[^']|'')+)'!(\$?[A-Za-z]+\$?\d+(?::\$?[A-Za-z]+\$?\d+)?)\s*$`)
	// =Бюджет!A4:A60 — bare sheet title without spaces or quotes.
	bareRefPattern = regexp.MustCompile(`^=\s*([^'!\s]+)!(\$?[A-Za-z]+\$?\d+(?::\$?[A-Za-z]+\$?\d+)?)\s*$`)
)

// ParseRangeRef extracts the source range from a ONE_OF_RANGE validation
// formula. It reports false for formulas it does not understand, such as
// inline value lists.
func ParseRangeRef(formula string) (RangeRef, bool) {
	formula = strings.TrimSpace(formula)
	if m := quotedRefPattern.FindStringSubmatch(formula); m != nil {
		sheet := strings.ReplaceAll(m[1], "''", "'")
		return RangeRef{Sheet: sheet, Range: stripAnchors(m[2])}, true
	}
	if m := bareRefPattern.FindStringSubmatch(formula); m != nil {
		return RangeRef{Sheet: m[1], Range: stripAnchors(m[2])}, true
	}
	return RangeRef{}, false
}

func stripAnchors(rng string) string {
	return strings.ReplaceAll(rng, "$", "")
}
